package models

import (
	"fmt"
	"strings"
	"time"
)

type ChangeType string

const (
	ChangeTypeAssignment ChangeType = "Asignacion"
	ChangeTypeChange     ChangeType = "Cambio"
	ChangeTypeRelease    ChangeType = "Liberacion"

	DefaultChangeType   = ChangeTypeAssignment
	DefaultChangeReason = "Asignación de residente"
)

// legacyChangeTypes maps every spelling older clients send to the canonical value.
var legacyChangeTypes = map[string]ChangeType{
	"asignacion":         ChangeTypeAssignment,
	"asignación":         ChangeTypeAssignment,
	"cambio":             ChangeTypeChange,
	"liberacion":         ChangeTypeRelease,
	"liberación":         ChangeTypeRelease,
	"venta":              ChangeTypeChange,
	"renta":              ChangeTypeChange,
	"cambio responsable": ChangeTypeChange,
	"herencia":           ChangeTypeChange,
}

// ParseChangeType normalizes a client-supplied change type. An empty value
// resolves to DefaultChangeType.
func ParseChangeType(raw string) (ChangeType, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return DefaultChangeType, nil
	}
	if ct, ok := legacyChangeTypes[key]; ok {
		return ct, nil
	}
	return "", fmt.Errorf("unknown change type %q", raw)
}

func (c ChangeType) Valid() bool {
	switch c {
	case ChangeTypeAssignment, ChangeTypeChange, ChangeTypeRelease:
		return true
	}
	return false
}

// ReassignmentHistory is one immutable audit row of an occupant transition.
type ReassignmentHistory struct {
	ID                 int64      `json:"id"`
	ResidenceID        int64      `json:"residencia_id"`
	PreviousOccupantID *int64     `json:"residente_anterior_id"`
	NewOccupantID      *int64     `json:"residente_nuevo_id"`
	ChangeType         ChangeType `json:"tipo_cambio"`
	Reason             string     `json:"motivo"`
	Notes              *string    `json:"notas"`
	ChangedAt          time.Time  `json:"fecha_cambio"`
	AuthorizedBy       int64      `json:"autorizado_por"`
}

// UserIDs lists the distinct user references of the history row.
func (h *ReassignmentHistory) UserIDs() []int64 {
	by := h.AuthorizedBy
	return distinctIDs(h.PreviousOccupantID, h.NewOccupantID, &by)
}
