// Package types holds the request and response shapes shared between the
// engine's HTTP handlers and API clients.
package types

type CreateAccountRequest struct {
	Username       string `json:"username" binding:"required"`
	OpeningBalance int64  `json:"opening_balance"`
}

type CreateInstrumentRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

type SetPriceRequest struct {
	Ticker string `json:"ticker" binding:"required"`
	Day    string `json:"day" binding:"required"`
	Price  int64  `json:"price"`
}

// OrderRequest places a stock order. Quantity is signed: positive buys,
// negative sells, zero is a recorded no-op. Day defaults to today; Price
// overrides the price-history lookup when supplied.
type OrderRequest struct {
	Ticker   string  `json:"ticker" binding:"required"`
	Quantity float64 `json:"quantity"`
	Day      string  `json:"day"`
	Price    *int64  `json:"price"`
}

// TransferRequest moves funds: positive deposits, negative withdraws.
type TransferRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Day    string `json:"day"`
}

// AccountResponse is the created-account payload; it carries the numeric
// id callers use in account-scoped paths.
type AccountResponse struct {
	AccountID      uint   `json:"account_id"`
	Username       string `json:"username"`
	Cash           int64  `json:"cash"`
	OpeningBalance int64  `json:"opening_balance"`
}

type BalanceResponse struct {
	AccountID uint  `json:"account_id"`
	Cash      int64 `json:"cash"`
}

type HoldingsResponse struct {
	AccountID uint    `json:"account_id"`
	Ticker    string  `json:"ticker"`
	Quantity  float64 `json:"quantity"`
}

// AuditResponse is the replay reconciliation for one account: the log
// folded from the opening balance against the recorded cash.
type AuditResponse struct {
	AccountID      uint               `json:"account_id"`
	OpeningBalance int64              `json:"opening_balance"`
	CashDelta      int64              `json:"cash_delta"`
	ExpectedCash   int64              `json:"expected_cash"`
	Cash           int64              `json:"cash"`
	Consistent     bool               `json:"consistent"`
	Holdings       map[string]float64 `json:"holdings"`
}
