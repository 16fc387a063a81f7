package pricing

import (
	"errors"
	"fmt"

	"github.com/trackfolio/ledger-api/internal/ledger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Database is the gorm-backed History implementation.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// SetPrice upserts atomically on the (ticker, day) unique index so
// concurrent writers resolve to last-write-wins instead of a constraint
// error.
func (d *Database) SetPrice(ticker string, day ledger.Day, price int64) error {
	if err := validatePrice(price); err != nil {
		return err
	}

	point := PricePoint{Ticker: ticker, Day: string(day), Price: price}
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(&point).Error
	if err != nil {
		return fmt.Errorf("failed to upsert price point: %w", err)
	}
	return nil
}

func (d *Database) Price(ticker string, day ledger.Day) (int64, error) {
	var point PricePoint
	if err := d.db.Where("ticker = ? AND day = ?", ticker, string(day)).First(&point).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, &ledger.PriceNotFoundError{Ticker: ticker, Day: day}
		}
		return 0, fmt.Errorf("failed to fetch price point: %w", err)
	}
	return point.Price, nil
}
