package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/comunidad/residence-service/internal/models"
	"github.com/comunidad/residence-service/internal/repositories"
	"github.com/comunidad/residence-service/internal/utils"
)

/* ------------------------------------------------------------------
   Demo data (development only). Safe to run on every start.
------------------------------------------------------------------ */

type demoUser struct {
	email   string
	name    string
	surname string
	phone   string
	role    models.UserRole
}

var demoUsers = []demoUser{
	{"admin@comunidad.local", "Ana", "Administradora", "+573000000001", models.UserRoleAdmin},
	{"carlos.ruiz@comunidad.local", "Carlos", "Ruiz", "+573000000002", models.UserRoleResident},
	{"lucia.mora@comunidad.local", "Lucía", "Mora", "+573000000003", models.UserRoleResident},
}

// SeedDemoData inserts a few users and residences, skipping rows that
// already exist.
func SeedDemoData(
	ctx context.Context,
	userRepo repositories.UserRepository,
	residenceRepo repositories.ResidenceRepository,
) error {
	ids := make(map[string]int64, len(demoUsers))
	for _, du := range demoUsers {
		existing, err := userRepo.GetByEmail(ctx, du.email)
		if err != nil {
			return fmt.Errorf("lookup demo user %s: %w", du.email, err)
		}
		if existing != nil {
			utils.Logger.Infof("Demo user %s already present (id=%d); skipping.", du.email, existing.ID)
			ids[du.email] = existing.ID
			continue
		}
		phone := du.phone
		u := &models.User{Name: du.name, Surname: du.surname, Email: du.email, Phone: &phone, Role: du.role}
		if err := userRepo.Create(ctx, u); err != nil {
			return fmt.Errorf("insert demo user %s: %w", du.email, err)
		}
		utils.Logger.Infof("Created demo user %s id=%d", du.email, u.ID)
		ids[du.email] = u.ID
	}

	admin := ids["admin@comunidad.local"]
	owner := ids["carlos.ruiz@comunidad.local"]
	block := "A"
	floor := 1
	rooms := 3
	rent := models.PropertyTypeRent

	demoResidences := []*models.Residence{
		{
			UnitNumber:   "A-101",
			Block:        &block,
			Floor:        &floor,
			AreaM2:       decimal.NewNullDecimal(decimal.RequireFromString("72.50")),
			Rooms:        &rooms,
			Bathrooms:    decimal.NewNullDecimal(decimal.RequireFromString("2.0")),
			ParkingSpots: 1,
			PropertyType: &rent,
			OwnerID:      &owner,
			AdminID:      &admin,
			Status:       models.ResidenceStatusAvailable,
		},
		{
			UnitNumber:   "A-102",
			Block:        &block,
			Floor:        &floor,
			ParkingSpots: 0,
			AdminID:      &admin,
			Status:       models.ResidenceStatusMaintenance,
		},
	}

	for _, r := range demoResidences {
		if err := residenceRepo.Create(ctx, r); err != nil {
			if repositories.IsUniqueViolation(err) {
				utils.Logger.Infof("Demo residence %s already present; skipping.", r.UnitNumber)
				continue
			}
			return fmt.Errorf("insert demo residence %s: %w", r.UnitNumber, err)
		}
		utils.Logger.Infof("Created demo residence %s id=%d", r.UnitNumber, r.ID)
	}
	return nil
}
