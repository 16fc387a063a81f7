package database

import (
	"fmt"

	"github.com/trackfolio/ledger-api/internal/database/migrations"
	"github.com/trackfolio/ledger-api/internal/ledger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase opens the sqlite database at path and migrates the schema.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddPricePoints(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Auto-migrate other schemas
	err = db.AutoMigrate(
		&ledger.Account{},
		&ledger.Instrument{},
		&ledger.Transaction{},
		&ledger.IdempotencyRecord{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
