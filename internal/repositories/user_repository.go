package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"

	"github.com/comunidad/residence-service/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

type userRepo struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, baseSelectUser()+" WHERE id=$1", id))
	return u, errors.Wrap(err, "get user")
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, baseSelectUser()+" WHERE email=$1", email))
	return u, errors.Wrap(err, "get user by email")
}

// GetByIDs resolves a batch of references in one round trip. Unknown ids
// are simply absent from the result.
func (r *userRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	out := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, baseSelectUser()+" WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "get users")
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out[u.ID] = u
	}
	return out, errors.Wrap(rows.Err(), "iterate users")
}

// Create is only used by seeding; user management lives in another service.
func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (nombre, apellido, email, telefono, rol, estado, fecha_registro, updated_at)
		VALUES ($1,$2,$3,$4,$5,'Activo', NOW(), NOW())
		RETURNING id
	`, u.Name, u.Surname, u.Email, u.Phone, u.Role).Scan(&u.ID)
	return errors.Wrap(err, "insert user")
}

func baseSelectUser() string {
	return `
		SELECT id, nombre, apellido, email, telefono, rol, estado = 'Activo'
		FROM users`
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.Phone, &u.Role, &u.IsActive); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
