package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"agentdesk/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies every pending SQL migration against Postgres.
func RunMigrations(db *gorm.DB, log logrus.FieldLogger) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source driver: %w", err)
	}
	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Database migrations: already up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database migrations: applied all pending migrations")
	return nil
}

// Prepare brings the schema up to date, either through the SQL migrations
// or, when autoMigrate is set, through gorm's AutoMigrate.
func Prepare(db *gorm.DB, autoMigrate bool, log logrus.FieldLogger) error {
	if autoMigrate {
		log.Info("Database schema: running AutoMigrate")
		return store.AutoMigrate(db)
	}
	return RunMigrations(db, log)
}
