package residenceclient

import (
	"time"

	"github.com/shopspring/decimal"
)

type Person struct {
	ID       int64   `json:"id"`
	Nombre   string  `json:"nombre"`
	Apellido string  `json:"apellido"`
	Email    string  `json:"email,omitempty"`
	Telefono *string `json:"telefono,omitempty"`
}

type Residence struct {
	ID                int64               `json:"id"`
	NumeroUnidad      string              `json:"numero_unidad"`
	Bloque            *string             `json:"bloque"`
	Piso              *int                `json:"piso"`
	AreaM2            decimal.NullDecimal `json:"area_m2"`
	Habitaciones      *int                `json:"habitaciones"`
	Banos             decimal.NullDecimal `json:"banos"`
	Estacionamientos  int                 `json:"estacionamientos"`
	TipoPropiedad     *string             `json:"tipo_propiedad"`
	Precio            decimal.NullDecimal `json:"precio"`
	DuenoID           *int64              `json:"dueno_id"`
	ResidenteActualID *int64              `json:"residente_actual_id"`
	AdministradorID   *int64              `json:"administrador_id"`
	FechaAsignacion   *time.Time          `json:"fecha_asignacion"`
	Estado            string              `json:"estado"`
	Descripcion       *string             `json:"descripcion"`
	NotasAdicionales  *string             `json:"notas_adicionales"`
	Dueno             *Person             `json:"dueno"`
	ResidenteActual   *Person             `json:"residenteActual"`
	Administrador     *Person             `json:"administrador"`
	RowVersion        int64               `json:"row_version"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

type ReassignmentHistory struct {
	ID                  int64     `json:"id"`
	ResidenciaID        int64     `json:"residencia_id"`
	ResidenteAnteriorID *int64    `json:"residente_anterior_id"`
	ResidenteNuevoID    *int64    `json:"residente_nuevo_id"`
	TipoCambio          string    `json:"tipo_cambio"`
	Motivo              string    `json:"motivo"`
	Notas               *string   `json:"notas"`
	FechaCambio         time.Time `json:"fecha_cambio"`
	AutorizadoPor       int64     `json:"autorizado_por"`
	ResidenteAnterior   *Person   `json:"residenteAnterior"`
	ResidenteNuevo      *Person   `json:"residenteNuevo"`
	AutorizadoPorUser   *Person   `json:"autorizadoPor"`
}

type Page struct {
	Data        []Residence `json:"data"`
	Total       int         `json:"total"`
	Pages       int         `json:"pages"`
	CurrentPage int         `json:"currentPage"`
}

type ListParams struct {
	Estado string
	Bloque string
	Search string
	Page   int
	Limit  int
}

type CreateResidenceInput struct {
	NumeroUnidad      string              `json:"numero_unidad"`
	Bloque            *string             `json:"bloque,omitempty"`
	Piso              *int                `json:"piso,omitempty"`
	AreaM2            decimal.NullDecimal `json:"area_m2"`
	Habitaciones      *int                `json:"habitaciones,omitempty"`
	Banos             decimal.NullDecimal `json:"banos"`
	Estacionamientos  *int                `json:"estacionamientos,omitempty"`
	TipoPropiedad     *string             `json:"tipo_propiedad,omitempty"`
	Precio            decimal.NullDecimal `json:"precio"`
	DuenoID           *int64              `json:"dueno_id,omitempty"`
	ResidenteActualID *int64              `json:"residente_actual_id,omitempty"`
	AdministradorID   *int64              `json:"administrador_id,omitempty"`
	Estado            *string             `json:"estado,omitempty"`
	Descripcion       *string             `json:"descripcion,omitempty"`
	NotasAdicionales  *string             `json:"notas_adicionales,omitempty"`
}

// ResidenceUpdate is a partial update keyed by wire field name. A nil value
// clears the field.
type ResidenceUpdate map[string]any

// AssignResidentInput releases the residence when ResidenteNuevoID is nil.
type AssignResidentInput struct {
	ResidenteNuevoID *int64  `json:"residente_nuevo_id"`
	TipoCambio       string  `json:"tipo_cambio,omitempty"`
	Motivo           *string `json:"motivo,omitempty"`
	Notas            *string `json:"notas,omitempty"`
}
