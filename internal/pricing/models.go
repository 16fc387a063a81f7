package pricing

import "gorm.io/gorm"

// PricePoint is one stored price for a (ticker, day) key, in cents.
// The key is unique; a correction overwrites the same key, last write wins.
type PricePoint struct {
	gorm.Model `json:"-"`
	Ticker     string `gorm:"uniqueIndex:idx_price_points_ticker_day" json:"ticker"`
	Day        string `gorm:"uniqueIndex:idx_price_points_ticker_day" json:"day"`
	Price      int64  `json:"price"`
}
