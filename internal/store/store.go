// Package store is the persistence layer. Every method takes a context and
// returns errors from the apperr taxonomy where the caller can act on them.
package store

import (
	"context"

	"gorm.io/gorm"

	"agentdesk/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and migrations.
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn against a store bound to a single transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates or updates tables for every model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// OwnerFilter narrows a listing to rows owned by a set of users.
// The zero value matches nothing.
type OwnerFilter struct {
	all bool
	ids []uint
}

// AnyOwner matches every row.
func AnyOwner() OwnerFilter { return OwnerFilter{all: true} }

// OwnedBy matches rows whose owning user is one of ids.
func OwnedBy(ids ...uint) OwnerFilter { return OwnerFilter{ids: ids} }

func (f OwnerFilter) All() bool   { return f.all }
func (f OwnerFilter) IDs() []uint { return f.ids }

// Contains reports whether a row owned by id passes the filter.
func (f OwnerFilter) Contains(id uint) bool {
	if f.all {
		return true
	}
	for _, candidate := range f.ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (f OwnerFilter) apply(db *gorm.DB, column string) *gorm.DB {
	if f.all {
		return db
	}
	if len(f.ids) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where(column+" IN ?", f.ids)
}
