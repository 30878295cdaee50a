package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"

	"github.com/comunidad/residence-service/internal/models"
)

// AssignFunc receives the locked pre-image of a residence and the instant of
// the transition, mutates the residence in place and returns the history row
// describing the transition.
type AssignFunc func(current *models.Residence, at time.Time) (*models.ReassignmentHistory, error)

/* ───────────── public interface ───────────── */

type ResidenceRepository interface {
	Create(ctx context.Context, r *models.Residence) error

	GetByID(ctx context.Context, id int64) (*models.Residence, error)
	GetByUnitNumber(ctx context.Context, unitNumber string) (*models.Residence, error)
	List(ctx context.Context, f ResidenceFilter, limit, offset int) ([]*models.Residence, int, error)
	ListAll(ctx context.Context) ([]*models.Residence, error)

	UpdateIfVersion(ctx context.Context, r *models.Residence, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id int64, mutate func(*models.Residence) error) error

	// AssignAtomic locks the residence row, lets apply mutate it, then writes
	// the history row and the residence in one transaction.
	AssignAtomic(ctx context.Context, id int64, apply AssignFunc) (*models.Residence, *models.ReassignmentHistory, error)

	Delete(ctx context.Context, id int64) error
}

/* ───────────── implementation ───────────── */

type residenceRepo struct {
	*BaseVersionedRepo[*models.Residence]
	db DB
}

func NewResidenceRepository(db DB) ResidenceRepository {
	r := &residenceRepo{db: db}
	selectStmt := baseSelectResidence() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanResidence)
	return r
}

/* ---------- create ---------- */

func (r *residenceRepo) Create(ctx context.Context, res *models.Residence) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO residences (
			numero_unidad, bloque, piso, area_m2, habitaciones, banos,
			estacionamientos, tipo_propiedad, precio,
			dueno_id, residente_actual_id, administrador_id,
			fecha_asignacion, estado, descripcion, notas_adicionales,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16, NOW(), NOW(), 1)
		RETURNING id, created_at, updated_at, row_version
	`,
		res.UnitNumber, res.Block, res.Floor, res.AreaM2, res.Rooms, res.Bathrooms,
		res.ParkingSpots, res.PropertyType, res.Price,
		res.OwnerID, res.OccupantID, res.AdminID,
		res.AssignedAt, res.Status, res.Description, res.ExtraNotes,
	)
	if err := row.Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt, &res.RowVersion); err != nil {
		return errors.Wrap(err, "insert residence")
	}
	return nil
}

/* ---------- reads ---------- */

func (r *residenceRepo) GetByID(ctx context.Context, id int64) (*models.Residence, error) {
	res, err := r.BaseVersionedRepo.GetByID(ctx, id)
	return res, errors.Wrap(err, "get residence")
}

func (r *residenceRepo) GetByUnitNumber(ctx context.Context, unitNumber string) (*models.Residence, error) {
	row := r.db.QueryRow(ctx, baseSelectResidence()+" WHERE numero_unidad=$1", unitNumber)
	res, err := scanResidence(row)
	return res, errors.Wrap(err, "get residence by unit number")
}

func (r *residenceRepo) List(ctx context.Context, f ResidenceFilter, limit, offset int) ([]*models.Residence, int, error) {
	where, args := f.where()

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM residences"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count residences")
	}

	args = append(args, limit, offset)
	q := baseSelectResidence() + where + " ORDER BY numero_unidad ASC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list residences")
	}
	defer rows.Close()

	out, err := scanResidences(rows)
	if err != nil {
		return nil, 0, errors.Wrap(err, "scan residences")
	}
	return out, total, nil
}

func (r *residenceRepo) ListAll(ctx context.Context) ([]*models.Residence, error) {
	rows, err := r.db.Query(ctx, baseSelectResidence()+" ORDER BY numero_unidad ASC")
	if err != nil {
		return nil, errors.Wrap(err, "list all residences")
	}
	defer rows.Close()
	out, err := scanResidences(rows)
	return out, errors.Wrap(err, "scan residences")
}

/* ---------- update / delete ---------- */

func (r *residenceRepo) UpdateIfVersion(ctx context.Context, res *models.Residence, expected int64) (pgconn.CommandTag, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE residences SET
			numero_unidad=$1, bloque=$2, piso=$3, area_m2=$4, habitaciones=$5,
			banos=$6, estacionamientos=$7, tipo_propiedad=$8, precio=$9,
			dueno_id=$10, residente_actual_id=$11, administrador_id=$12,
			fecha_asignacion=$13, estado=$14, descripcion=$15, notas_adicionales=$16,
			updated_at=NOW(), row_version=row_version+1
		WHERE id=$17 AND row_version=$18
	`,
		res.UnitNumber, res.Block, res.Floor, res.AreaM2, res.Rooms,
		res.Bathrooms, res.ParkingSpots, res.PropertyType, res.Price,
		res.OwnerID, res.OccupantID, res.AdminID,
		res.AssignedAt, res.Status, res.Description, res.ExtraNotes,
		res.ID, expected,
	)
	return tag, errors.Wrap(err, "update residence")
}

func (r *residenceRepo) UpdateWithRetry(ctx context.Context, id int64, mutate func(*models.Residence) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id, mutate, r.UpdateIfVersion)
}

func (r *residenceRepo) AssignAtomic(
	ctx context.Context,
	id int64,
	apply AssignFunc,
) (res *models.Residence, entry *models.ReassignmentHistory, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "begin assignment")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	current, err := scanResidence(tx.QueryRow(ctx, baseSelectResidence()+" WHERE id=$1 FOR UPDATE", id))
	if err != nil {
		return nil, nil, errors.Wrap(err, "lock residence")
	}
	if current == nil {
		err = pgx.ErrNoRows
		return nil, nil, err
	}

	// Taken after the lock so transitions are stamped in lock order. NOW()
	// would be the transaction start.
	var at time.Time
	if err = tx.QueryRow(ctx, `SELECT clock_timestamp()`).Scan(&at); err != nil {
		return nil, nil, errors.Wrap(err, "read transition time")
	}

	entry, err = apply(current, at)
	if err != nil {
		return nil, nil, err
	}
	entry.ResidenceID = id
	entry.ChangedAt = at

	if err = insertHistory(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE residences
		SET residente_actual_id=$1, fecha_asignacion=$2, estado=$3,
		    updated_at=$4, row_version=row_version+1
		WHERE id=$5
	`, current.OccupantID, current.AssignedAt, current.Status, at, id)
	if err != nil {
		return nil, nil, errors.Wrap(err, "apply assignment")
	}

	res, err = scanResidence(tx.QueryRow(ctx, baseSelectResidence()+" WHERE id=$1", id))
	if err != nil {
		return nil, nil, errors.Wrap(err, "reload residence")
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "commit assignment")
	}
	return res, entry, nil
}

func (r *residenceRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM residences WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete residence")
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

/* ---------- internals ---------- */

func baseSelectResidence() string {
	return `
		SELECT id, numero_unidad, bloque, piso, area_m2, habitaciones, banos,
		estacionamientos, tipo_propiedad, precio,
		dueno_id, residente_actual_id, administrador_id,
		fecha_asignacion, estado, descripcion, notas_adicionales,
		created_at, updated_at, row_version
		FROM residences`
}

func scanResidence(row pgx.Row) (*models.Residence, error) {
	var r models.Residence
	if err := row.Scan(
		&r.ID, &r.UnitNumber, &r.Block, &r.Floor, &r.AreaM2, &r.Rooms, &r.Bathrooms,
		&r.ParkingSpots, &r.PropertyType, &r.Price,
		&r.OwnerID, &r.OccupantID, &r.AdminID,
		&r.AssignedAt, &r.Status, &r.Description, &r.ExtraNotes,
		&r.CreatedAt, &r.UpdatedAt, &r.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func scanResidences(rows pgx.Rows) ([]*models.Residence, error) {
	var out []*models.Residence
	for rows.Next() {
		r, err := scanResidence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
