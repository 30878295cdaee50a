package models

type UserRole string

const (
	UserRoleResident   UserRole = "Residente"
	UserRoleAdmin      UserRole = "Administrador"
	UserRoleSuperAdmin UserRole = "SuperAdmin"
)

// User is the read model of a community member. Users are managed elsewhere;
// this service only resolves them for display.
type User struct {
	ID       int64    `json:"id"`
	Name     string   `json:"nombre"`
	Surname  string   `json:"apellido"`
	Email    string   `json:"email"`
	Phone    *string  `json:"telefono,omitempty"`
	Role     UserRole `json:"rol"`
	IsActive bool     `json:"-"`
}

// UserProjection selects which user attributes are exposed in an expansion.
type UserProjection int

const (
	// ProjectionBasic exposes id, name and surname.
	ProjectionBasic UserProjection = iota
	// ProjectionContact adds the email.
	ProjectionContact
	// ProjectionFull adds the phone.
	ProjectionFull
)

// UserSummary is the expanded form of a user reference.
type UserSummary struct {
	ID      int64   `json:"id"`
	Name    string  `json:"nombre"`
	Surname string  `json:"apellido"`
	Email   string  `json:"email,omitempty"`
	Phone   *string `json:"telefono,omitempty"`
}

func (u *User) Summary(p UserProjection) *UserSummary {
	if u == nil {
		return nil
	}
	s := &UserSummary{ID: u.ID, Name: u.Name, Surname: u.Surname}
	if p >= ProjectionContact {
		s.Email = u.Email
	}
	if p >= ProjectionFull {
		s.Phone = u.Phone
	}
	return s
}
