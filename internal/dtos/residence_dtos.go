package dtos

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/comunidad/residence-service/internal/models"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	MaxUnitNumberLen = 20
	MaxBlockLen      = 10
)

// ----- Requests -----

type ListResidencesQuery struct {
	Estado string `validate:"omitempty,oneof=Disponible Ocupada Mantenimiento"`
	Bloque string `validate:"omitempty,max=10"`
	Search string `validate:"omitempty,max=100"`
	Page   int
	Limit  int
}

type CreateResidenceRequest struct {
	NumeroUnidad     string                  `json:"numero_unidad" validate:"required,max=20"`
	Bloque           *string                 `json:"bloque,omitempty" validate:"omitempty,max=10"`
	Piso             *int                    `json:"piso,omitempty"`
	AreaM2           decimal.NullDecimal     `json:"area_m2"`
	Habitaciones     *int                    `json:"habitaciones,omitempty" validate:"omitempty,gte=0"`
	Banos            decimal.NullDecimal     `json:"banos"`
	Estacionamientos *int                    `json:"estacionamientos,omitempty" validate:"omitempty,gte=0"`
	TipoPropiedad    *models.PropertyType    `json:"tipo_propiedad,omitempty" validate:"omitempty,oneof=Renta Compra"`
	Precio           decimal.NullDecimal     `json:"precio"`
	DuenoID          *int64                  `json:"dueno_id,omitempty" validate:"omitempty,gt=0"`
	ResidenteActual  *int64                  `json:"residente_actual_id,omitempty" validate:"omitempty,gt=0"`
	AdministradorID  *int64                  `json:"administrador_id,omitempty" validate:"omitempty,gt=0"`
	Estado           *models.ResidenceStatus `json:"estado,omitempty" validate:"omitempty,oneof=Disponible Ocupada Mantenimiento"`
	Descripcion      *string                 `json:"descripcion,omitempty"`
	NotasAdicionales *string                 `json:"notas_adicionales,omitempty"`
}

// UpdateResidenceRequest is a partial update: absent fields are left alone
// and an explicit null clears a nullable column.
type UpdateResidenceRequest struct {
	NumeroUnidad     Optional[string]                 `json:"numero_unidad"`
	Bloque           Optional[string]                 `json:"bloque"`
	Piso             Optional[int]                    `json:"piso"`
	AreaM2           Optional[decimal.Decimal]        `json:"area_m2"`
	Habitaciones     Optional[int]                    `json:"habitaciones"`
	Banos            Optional[decimal.Decimal]        `json:"banos"`
	Estacionamientos Optional[int]                    `json:"estacionamientos"`
	TipoPropiedad    Optional[models.PropertyType]    `json:"tipo_propiedad"`
	Precio           Optional[decimal.Decimal]        `json:"precio"`
	DuenoID          Optional[int64]                  `json:"dueno_id"`
	ResidenteActual  Optional[int64]                  `json:"residente_actual_id"`
	AdministradorID  Optional[int64]                  `json:"administrador_id"`
	Estado           Optional[models.ResidenceStatus] `json:"estado"`
	Descripcion      Optional[string]                 `json:"descripcion"`
	NotasAdicionales Optional[string]                 `json:"notas_adicionales"`
}

// Validate checks the fields an update can set. Optional fields are opaque
// to struct-tag validation, hence the hand-written rules.
func (r *UpdateResidenceRequest) Validate() error {
	if r.NumeroUnidad.Set {
		if r.NumeroUnidad.Null || r.NumeroUnidad.Value == "" {
			return fmt.Errorf("numero_unidad cannot be empty")
		}
		if len(r.NumeroUnidad.Value) > MaxUnitNumberLen {
			return fmt.Errorf("numero_unidad exceeds %d characters", MaxUnitNumberLen)
		}
	}
	if r.Bloque.Present() && len(r.Bloque.Value) > MaxBlockLen {
		return fmt.Errorf("bloque exceeds %d characters", MaxBlockLen)
	}
	if r.Estado.Set && (r.Estado.Null || !r.Estado.Value.Valid()) {
		return fmt.Errorf("estado must be one of Disponible, Ocupada, Mantenimiento")
	}
	if r.TipoPropiedad.Present() && !r.TipoPropiedad.Value.Valid() {
		return fmt.Errorf("tipo_propiedad must be Renta or Compra")
	}
	if r.Estacionamientos.Null {
		return fmt.Errorf("estacionamientos cannot be null")
	}
	counts := []struct {
		name string
		v    Optional[int]
	}{{"habitaciones", r.Habitaciones}, {"estacionamientos", r.Estacionamientos}}
	for _, c := range counts {
		if c.v.Present() && c.v.Value < 0 {
			return fmt.Errorf("%s cannot be negative", c.name)
		}
	}
	refs := []struct {
		name string
		v    Optional[int64]
	}{{"dueno_id", r.DuenoID}, {"residente_actual_id", r.ResidenteActual}, {"administrador_id", r.AdministradorID}}
	for _, ref := range refs {
		if ref.v.Present() && ref.v.Value <= 0 {
			return fmt.Errorf("%s must be a positive id", ref.name)
		}
	}
	return nil
}

// AssignResidentRequest accepts the legacy residente_id as an alias of
// residente_nuevo_id. Both null means release.
type AssignResidentRequest struct {
	ResidenteNuevoID *int64  `json:"residente_nuevo_id,omitempty" validate:"omitempty,gt=0"`
	ResidenteID      *int64  `json:"residente_id,omitempty" validate:"omitempty,gt=0"`
	TipoCambio       string  `json:"tipo_cambio,omitempty"`
	Motivo           *string `json:"motivo,omitempty"`
	Notas            *string `json:"notas,omitempty"`
}

// NewOccupantID resolves the two accepted field names into one value.
func (r *AssignResidentRequest) NewOccupantID() *int64 {
	if r.ResidenteNuevoID != nil {
		return r.ResidenteNuevoID
	}
	return r.ResidenteID
}

// ----- Responses -----

type ResidenceView struct {
	models.Residence
	Dueno           *models.UserSummary `json:"dueno"`
	ResidenteActual *models.UserSummary `json:"residenteActual"`
	Administrador   *models.UserSummary `json:"administrador"`
}

type ReassignmentHistoryView struct {
	models.ReassignmentHistory
	ResidenteAnterior *models.UserSummary `json:"residenteAnterior"`
	ResidenteNuevo    *models.UserSummary `json:"residenteNuevo"`
	AutorizadoPor     *models.UserSummary `json:"autorizadoPor"`
}

type PagedResidencesResponse struct {
	Data        []ResidenceView `json:"data"`
	Total       int             `json:"total"`
	Pages       int             `json:"pages"`
	CurrentPage int             `json:"currentPage"`
}

type ResidenceMutationResponse struct {
	Message   string         `json:"message"`
	Residence *ResidenceView `json:"residence"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ----- Consistency audit -----

type ConsistencyIssueKind string

const (
	IssueStatusMismatch  ConsistencyIssueKind = "status_occupancy_mismatch"
	IssueHistoryMismatch ConsistencyIssueKind = "history_occupancy_mismatch"
)

type ConsistencyIssue struct {
	Kind         ConsistencyIssueKind   `json:"kind"`
	ResidenceID  int64                  `json:"residencia_id"`
	UnitNumber   string                 `json:"numero_unidad"`
	Status       models.ResidenceStatus `json:"estado"`
	OccupantID   *int64                 `json:"residente_actual_id"`
	LastRecorded *int64                 `json:"ultimo_residente_registrado_id,omitempty"`
}

type ConsistencyReport struct {
	CheckedAt  string             `json:"checked_at"`
	Residences int                `json:"residences"`
	Issues     []ConsistencyIssue `json:"issues"`
}
