package ledger

import "fmt"

// InsufficientFundsError rejects an order or transfer that would drive the
// account's cash negative. Shortfall is the amount missing, in cents.
type InsufficientFundsError struct {
	Shortfall int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: short %d", e.Shortfall)
}

// InsufficientQuantityError rejects a sell that would drive holdings
// negative. Requested is the quantity asked for, Available what is held.
type InsufficientQuantityError struct {
	Ticker    string
	Requested float64
	Available float64
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity: %g of %s to be sold, but only %g available",
		e.Requested, e.Ticker, e.Available)
}

// PriceNotFoundError means no price point exists for the exact
// (ticker, day) key and no feed fallback resolved it.
type PriceNotFoundError struct {
	Ticker string
	Day    Day
}

func (e *PriceNotFoundError) Error() string {
	return fmt.Sprintf("no price for %s on %s", e.Ticker, e.Day)
}

// InvalidPriceError rejects a negative price.
type InvalidPriceError struct {
	Price int64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price %d: price must be non-negative", e.Price)
}

// UnknownAccountError means an account lookup by id or username failed.
type UnknownAccountError struct {
	ID       uint
	Username string
}

func (e *UnknownAccountError) Error() string {
	if e.Username != "" {
		return fmt.Sprintf("unknown account %q", e.Username)
	}
	return fmt.Sprintf("unknown account %d", e.ID)
}

// UnknownInstrumentError means an instrument lookup by ticker failed.
type UnknownInstrumentError struct {
	Ticker string
}

func (e *UnknownInstrumentError) Error() string {
	return fmt.Sprintf("unknown instrument %q", e.Ticker)
}
