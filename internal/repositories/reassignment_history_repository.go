package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"

	"github.com/comunidad/residence-service/internal/models"
)

// ReassignmentHistoryRepository is read-only: history rows are written
// exclusively by ResidenceRepository.AssignAtomic.
type ReassignmentHistoryRepository interface {
	ListByResidenceID(ctx context.Context, residenceID int64) ([]*models.ReassignmentHistory, error)
	LatestPerResidence(ctx context.Context) (map[int64]*models.ReassignmentHistory, error)
}

type reassignmentHistoryRepo struct {
	db DB
}

func NewReassignmentHistoryRepository(db DB) ReassignmentHistoryRepository {
	return &reassignmentHistoryRepo{db: db}
}

func (r *reassignmentHistoryRepo) ListByResidenceID(ctx context.Context, residenceID int64) ([]*models.ReassignmentHistory, error) {
	rows, err := r.db.Query(ctx,
		baseSelectHistory()+" WHERE residencia_id=$1 ORDER BY fecha_cambio DESC, id DESC", residenceID)
	if err != nil {
		return nil, errors.Wrap(err, "list reassignment history")
	}
	defer rows.Close()
	out, err := scanHistories(rows)
	return out, errors.Wrap(err, "scan reassignment history")
}

func (r *reassignmentHistoryRepo) LatestPerResidence(ctx context.Context) (map[int64]*models.ReassignmentHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (residencia_id)
		id, residencia_id, residente_anterior_id, residente_nuevo_id,
		tipo_cambio, motivo, notas, fecha_cambio, autorizado_por
		FROM reassignment_history
		ORDER BY residencia_id, fecha_cambio DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "latest reassignment per residence")
	}
	defer rows.Close()

	list, err := scanHistories(rows)
	if err != nil {
		return nil, errors.Wrap(err, "scan reassignment history")
	}
	out := make(map[int64]*models.ReassignmentHistory, len(list))
	for _, h := range list {
		out[h.ResidenceID] = h
	}
	return out, nil
}

// insertHistory appends a row inside the caller's transaction and fills the
// generated id back into h. h.ChangedAt must already be set.
func insertHistory(ctx context.Context, q Querier, h *models.ReassignmentHistory) error {
	err := q.QueryRow(ctx, `
		INSERT INTO reassignment_history (
			residencia_id, residente_anterior_id, residente_nuevo_id,
			tipo_cambio, motivo, notas, autorizado_por, fecha_cambio
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`,
		h.ResidenceID, h.PreviousOccupantID, h.NewOccupantID,
		h.ChangeType, h.Reason, h.Notes, h.AuthorizedBy, h.ChangedAt,
	).Scan(&h.ID)
	return errors.Wrap(err, "insert reassignment history")
}

func baseSelectHistory() string {
	return `
		SELECT id, residencia_id, residente_anterior_id, residente_nuevo_id,
		tipo_cambio, motivo, notas, fecha_cambio, autorizado_por
		FROM reassignment_history`
}

func scanHistory(row pgx.Row) (*models.ReassignmentHistory, error) {
	var h models.ReassignmentHistory
	if err := row.Scan(
		&h.ID, &h.ResidenceID, &h.PreviousOccupantID, &h.NewOccupantID,
		&h.ChangeType, &h.Reason, &h.Notes, &h.ChangedAt, &h.AuthorizedBy,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func scanHistories(rows pgx.Rows) ([]*models.ReassignmentHistory, error) {
	var out []*models.ReassignmentHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
