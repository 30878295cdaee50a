package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ResidenceStatus string

const (
	ResidenceStatusAvailable   ResidenceStatus = "Disponible"
	ResidenceStatusOccupied    ResidenceStatus = "Ocupada"
	ResidenceStatusMaintenance ResidenceStatus = "Mantenimiento"
)

func (s ResidenceStatus) Valid() bool {
	switch s {
	case ResidenceStatusAvailable, ResidenceStatusOccupied, ResidenceStatusMaintenance:
		return true
	}
	return false
}

type PropertyType string

const (
	PropertyTypeRent     PropertyType = "Renta"
	PropertyTypePurchase PropertyType = "Compra"
)

func (p PropertyType) Valid() bool {
	return p == PropertyTypeRent || p == PropertyTypePurchase
}

// Residence is a physical unit of the community. Owner, occupant and
// administrator are plain references to users; the residence never owns them.
type Residence struct {
	Versioned
	ID           int64               `json:"id"`
	UnitNumber   string              `json:"numero_unidad"`
	Block        *string             `json:"bloque"`
	Floor        *int                `json:"piso"`
	AreaM2       decimal.NullDecimal `json:"area_m2"`
	Rooms        *int                `json:"habitaciones"`
	Bathrooms    decimal.NullDecimal `json:"banos"`
	ParkingSpots int                 `json:"estacionamientos"`
	PropertyType *PropertyType       `json:"tipo_propiedad"`
	Price        decimal.NullDecimal `json:"precio"`
	OwnerID      *int64              `json:"dueno_id"`
	OccupantID   *int64              `json:"residente_actual_id"`
	AdminID      *int64              `json:"administrador_id"`
	AssignedAt   *time.Time          `json:"fecha_asignacion"`
	Status       ResidenceStatus     `json:"estado"`
	Description  *string             `json:"descripcion"`
	ExtraNotes   *string             `json:"notas_adicionales"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// InitialStatus resolves the status of a residence being created: an explicit
// status always wins, otherwise occupancy decides.
func InitialStatus(explicit *ResidenceStatus, occupantID *int64) ResidenceStatus {
	if explicit != nil && *explicit != "" {
		return *explicit
	}
	if occupantID != nil {
		return ResidenceStatusOccupied
	}
	return ResidenceStatusAvailable
}

// Assign moves the residence to a new occupant, or releases it when
// occupantID is nil. Status and assignment date follow the occupant.
func (r *Residence) Assign(occupantID *int64, at time.Time) {
	r.OccupantID = occupantID
	if occupantID != nil {
		t := at
		r.AssignedAt = &t
		r.Status = ResidenceStatusOccupied
		return
	}
	r.AssignedAt = nil
	r.Status = ResidenceStatusAvailable
}

// OccupancyConsistent reports whether status reflects occupancy.
// Maintenance is orthogonal to occupancy and always consistent.
func (r *Residence) OccupancyConsistent() bool {
	if r.Status == ResidenceStatusMaintenance {
		return true
	}
	return (r.Status == ResidenceStatusOccupied) == (r.OccupantID != nil)
}

// UserIDs lists the distinct non-nil user references of the residence.
func (r *Residence) UserIDs() []int64 {
	return distinctIDs(r.OwnerID, r.OccupantID, r.AdminID)
}

func distinctIDs(refs ...*int64) []int64 {
	seen := make(map[int64]struct{}, len(refs))
	var out []int64
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		if _, ok := seen[*ref]; ok {
			continue
		}
		seen[*ref] = struct{}{}
		out = append(out, *ref)
	}
	return out
}
