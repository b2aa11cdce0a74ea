package database

import (
	"context"

	"github.com/sirupsen/logrus"

	"agentdesk/internal/models"
	"agentdesk/internal/security"
	"agentdesk/internal/store"
)

type defaultUser struct {
	firstName, lastName string
	email, workID       string
	password            string
	role                models.Role
}

// One user per tier below Agent, each managed by the previous entry.
var defaultUsers = []defaultUser{
	{"Admin", "User", "admin@example.com", "ADM001", "admin123", models.RoleAdmin},
	{"Michael", "Johnson", "manager@example.com", "MGR001", "manager123", models.RoleManager},
	{"Emily", "Brown", "sales@example.com", "SLF001", "sales123", models.RoleSalesStaff},
	{"John", "Doe", "agent@example.com", "AGT001", "agent123", models.RoleAgent},
}

// SeedDefaultUsers creates the default chain of users on an empty database.
// Idempotent: skips when any user exists.
func SeedDefaultUsers(ctx context.Context, s *store.Store, log logrus.FieldLogger) error {
	n, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Debug("Users already present, skipping default users")
		return nil
	}

	err = s.Transaction(ctx, func(tx *store.Store) error {
		var managerID *uint
		for _, d := range defaultUsers {
			hashed, err := security.HashPassword(d.password)
			if err != nil {
				return err
			}
			u := &models.User{
				FirstName: d.firstName,
				LastName:  d.lastName,
				Email:     d.email,
				WorkID:    d.workID,
				Password:  hashed,
				Role:      d.role,
				ManagerID: managerID,
				IsActive:  true,
			}
			if err := tx.CreateUser(ctx, u); err != nil {
				return err
			}
			id := u.ID
			managerID = &id
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.WithField("count", len(defaultUsers)).Info("Seeded default users")
	return nil
}
