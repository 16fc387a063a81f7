package migrations

import (
	"github.com/trackfolio/ledger-api/internal/pricing"
	"gorm.io/gorm"
)

// AddPricePoints creates the day-indexed price point table with its
// composite (ticker, day) unique index.
func AddPricePoints(db *gorm.DB) error {
	return db.AutoMigrate(&pricing.PricePoint{})
}
