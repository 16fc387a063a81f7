// Package pricing holds the per-instrument day-indexed price history and
// the optional external price feed used as a lookup fallback.
package pricing

import (
	"sync"

	"github.com/trackfolio/ledger-api/internal/ledger"
)

// History is the price store contract: upsert by (ticker, day) key and
// exact-day lookup. No interpolation and no most-recent-prior-day fallback;
// a missing key is PriceNotFoundError.
type History interface {
	SetPrice(ticker string, day ledger.Day, price int64) error
	Price(ticker string, day ledger.Day) (int64, error)
}

// Feed fetches a price from an external source. It is consulted only when
// the history has no entry for the requested key.
type Feed interface {
	FetchPrice(ticker string, day ledger.Day) (int64, error)
}

func validatePrice(price int64) error {
	if price < 0 {
		return &ledger.InvalidPriceError{Price: price}
	}
	return nil
}

type priceKey struct {
	ticker string
	day    ledger.Day
}

// Memory is the in-memory History implementation. Reads may run
// concurrently with order processing; writes are last-write-wins per key.
type Memory struct {
	mu     sync.RWMutex
	points map[priceKey]int64
}

func NewMemory() *Memory {
	return &Memory{points: make(map[priceKey]int64)}
}

func (m *Memory) SetPrice(ticker string, day ledger.Day, price int64) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[priceKey{ticker, day}] = price
	return nil
}

func (m *Memory) Price(ticker string, day ledger.Day) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	price, ok := m.points[priceKey{ticker, day}]
	if !ok {
		return 0, &ledger.PriceNotFoundError{Ticker: ticker, Day: day}
	}
	return price, nil
}
