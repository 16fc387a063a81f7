package ledger

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Transaction kinds. Buy vs sell is not a kind: the sign of the order
// quantity is the single source of truth.
const (
	KindStockOrder   = "stock"
	KindFundTransfer = "transfer"
)

// Day is a calendar day in YYYY-MM-DD form. Price points are indexed by
// (ticker, day) and order settlement resolves against the exact day only.
type Day string

const dayFormat = "2006-01-02"

// Today returns the current UTC calendar day.
func Today() Day {
	return Day(time.Now().UTC().Format(dayFormat))
}

// ParseDay validates a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(dayFormat, s); err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day(s), nil
}

// Account holds cash in integer cents and owns its transaction log.
// Cash must never go negative; OpeningBalance is the cash the account was
// created with, kept so replay reconciliation has a fixed starting point.
type Account struct {
	gorm.Model     `json:"-"`
	Username       string `gorm:"uniqueIndex" json:"username"`
	Cash           int64  `json:"cash"`
	OpeningBalance int64  `json:"opening_balance"`
}

// Instrument is a tradable security identified by a unique ticker.
type Instrument struct {
	gorm.Model `json:"-"`
	Ticker     string `gorm:"uniqueIndex" json:"ticker"`
}

// Transaction is one immutable entry in an account's append-only log.
// Ticker and Quantity are set for stock orders only. Amount is the signed
// cash effect recorded at commit; replay ignores it for stock orders and
// re-derives their cost from the price history for Day.
type Transaction struct {
	gorm.Model    `json:"-"`
	TransactionID string  `gorm:"uniqueIndex" json:"transaction_id"`
	AccountID     uint    `gorm:"index" json:"account_id"`
	Day           Day     `json:"day"`
	Kind          string  `json:"kind"`
	Ticker        string  `json:"ticker,omitempty"`
	Quantity      float64 `json:"quantity,omitempty"`
	Amount        int64   `json:"amount,omitempty"`
}

// IdempotencyRecord maps a caller-supplied request key to the transaction
// it produced, so a retried request replays the original result.
type IdempotencyRecord struct {
	gorm.Model
	IdempotencyKey string    `gorm:"uniqueIndex" json:"idempotency_key"`
	TransactionID  string    `json:"transaction_id"`
	ExpiresAt      time.Time `json:"expires_at"`
}
