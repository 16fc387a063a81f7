// Package engine orchestrates price resolution, ledger validation, and the
// transaction-log append as one unit of work per order request.
package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/trackfolio/ledger-api/internal/ledger"
	"github.com/trackfolio/ledger-api/internal/pricing"
	"github.com/trackfolio/ledger-api/internal/types"
)

// Service is the accounting engine. Every order runs to a terminal state:
// committed (cash update, log append, and returned transaction visible
// together) or rejected (no observable change). At most one order per
// account is in the validate-to-commit window at a time; different
// accounts proceed in parallel.
type Service struct {
	repo   ledger.Repository
	ledger *ledger.Ledger
	prices pricing.History
	feed   pricing.Feed // optional; nil disables the fallback

	obsMu     sync.RWMutex
	observers []Observer

	lockMu       sync.Mutex
	accountLocks map[uint]*sync.Mutex
}

// NewService creates the engine over an injected repository and price
// history. feed may be nil.
func NewService(repo ledger.Repository, prices pricing.History, feed pricing.Feed) *Service {
	return &Service{
		repo:         repo,
		ledger:       ledger.New(repo),
		prices:       prices,
		feed:         feed,
		accountLocks: make(map[uint]*sync.Mutex),
	}
}

// lockAccount returns the mutex serializing order processing for one
// account, creating it on first use.
func (s *Service) lockAccount(id uint) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	l, ok := s.accountLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.accountLocks[id] = l
	}
	return l
}

func (s *Service) CreateAccount(username string, openingBalance int64) (*ledger.Account, error) {
	acct := &ledger.Account{
		Username:       username,
		Cash:           openingBalance,
		OpeningBalance: openingBalance,
	}
	if err := s.repo.CreateAccount(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *Service) CreateInstrument(ticker string) (*ledger.Instrument, error) {
	inst := &ledger.Instrument{Ticker: ticker}
	if err := s.repo.CreateInstrument(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// SetPrice upserts the price point for (ticker, day). The instrument must
// exist; price-feed updates for unknown tickers are rejected rather than
// silently creating instruments.
func (s *Service) SetPrice(ticker string, day ledger.Day, price int64) error {
	if _, err := s.repo.InstrumentByTicker(ticker); err != nil {
		return err
	}
	return s.prices.SetPrice(ticker, day, price)
}

// PlaceOrderByTicker resolves the ticker once at the boundary and places
// the order.
func (s *Service) PlaceOrderByTicker(accountID uint, ticker string, quantity float64, day ledger.Day, price *int64, idempotencyKey string) (*ledger.Transaction, error) {
	inst, err := s.repo.InstrumentByTicker(ticker)
	if err != nil {
		return nil, err
	}
	return s.PlaceOrderByInstrument(accountID, inst, quantity, day, price, idempotencyKey)
}

// PlaceOrderByInstrument validates and applies a signed-quantity stock
// order. The per-account lock is held from price resolution through
// commit, so validation and apply see the same snapshot.
func (s *Service) PlaceOrderByInstrument(accountID uint, inst *ledger.Instrument, quantity float64, day ledger.Day, price *int64, idempotencyKey string) (*ledger.Transaction, error) {
	if day == "" {
		day = ledger.Today()
	}

	if txn, ok := s.replayIdempotent(idempotencyKey); ok {
		return txn, nil
	}

	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the lock: a concurrent request with the same key may
	// have committed between the fast-path check and lock acquisition.
	if txn, ok := s.replayIdempotent(idempotencyKey); ok {
		return txn, nil
	}

	acct, err := s.repo.AccountByID(accountID)
	if err != nil {
		return nil, err
	}

	event := Event{
		AccountID: accountID,
		Username:  acct.Username,
		Kind:      ledger.KindStockOrder,
		Ticker:    inst.Ticker,
		Quantity:  quantity,
		Day:       day,
	}

	unitPrice, err := s.resolvePrice(inst.Ticker, day, price)
	if err != nil {
		s.notify(event.rejected(err))
		return nil, err
	}

	if err := s.ledger.ValidateStockOrder(acct, inst, quantity, unitPrice); err != nil {
		s.notify(event.rejected(err))
		return nil, err
	}

	txn, err := s.ledger.ApplyStockOrder(acct, inst, day, quantity, unitPrice, idempotencyKey)
	if err != nil {
		s.notify(event.rejected(err))
		return nil, err
	}

	s.notify(event.committed(txn))
	return txn, nil
}

// TransferFunds deposits (positive amount) or withdraws (negative amount)
// cash, appending a transfer transaction atomically with the balance
// update.
func (s *Service) TransferFunds(accountID uint, amount int64, day ledger.Day, idempotencyKey string) (*ledger.Transaction, error) {
	if day == "" {
		day = ledger.Today()
	}

	if txn, ok := s.replayIdempotent(idempotencyKey); ok {
		return txn, nil
	}

	lock := s.lockAccount(accountID)
	lock.Lock()
	defer lock.Unlock()

	if txn, ok := s.replayIdempotent(idempotencyKey); ok {
		return txn, nil
	}

	acct, err := s.repo.AccountByID(accountID)
	if err != nil {
		return nil, err
	}

	event := Event{
		AccountID: accountID,
		Username:  acct.Username,
		Kind:      ledger.KindFundTransfer,
		Amount:    amount,
		Day:       day,
	}

	txn, err := s.ledger.ApplyFundTransfer(acct, amount, day, idempotencyKey)
	if err != nil {
		s.notify(event.rejected(err))
		return nil, err
	}

	s.notify(event.committed(txn))
	return txn, nil
}

func (s *Service) GetBalance(accountID uint) (int64, error) {
	acct, err := s.repo.AccountByID(accountID)
	if err != nil {
		return 0, err
	}
	return acct.Cash, nil
}

func (s *Service) GetHoldings(accountID uint, ticker string) (float64, error) {
	acct, err := s.repo.AccountByID(accountID)
	if err != nil {
		return 0, err
	}
	inst, err := s.repo.InstrumentByTicker(ticker)
	if err != nil {
		return 0, err
	}
	return s.ledger.CurrentHoldings(acct, inst)
}

func (s *Service) Transactions(accountID uint) ([]ledger.Transaction, error) {
	if _, err := s.repo.AccountByID(accountID); err != nil {
		return nil, err
	}
	return s.repo.TransactionsByAccount(accountID)
}

// Audit replays the account's full log and reconciles it against the
// recorded cash balance.
func (s *Service) Audit(accountID uint) (*types.AuditResponse, error) {
	acct, err := s.repo.AccountByID(accountID)
	if err != nil {
		return nil, err
	}
	txns, err := s.repo.TransactionsByAccount(accountID)
	if err != nil {
		return nil, err
	}
	result, err := ledger.Replay(txns, s.prices)
	if err != nil {
		return nil, err
	}

	expected := acct.OpeningBalance + result.CashDelta
	return &types.AuditResponse{
		AccountID:      accountID,
		OpeningBalance: acct.OpeningBalance,
		CashDelta:      result.CashDelta,
		ExpectedCash:   expected,
		Cash:           acct.Cash,
		Consistent:     expected == acct.Cash,
		Holdings:       result.Holdings,
	}, nil
}

// resolvePrice picks the unit price for an order: the explicit price when
// given, otherwise the history, otherwise the feed. Explicit prices and
// successful feed fetches are written back into the history so the day's
// price is pinned and replaying the log reproduces the committed state.
func (s *Service) resolvePrice(ticker string, day ledger.Day, explicit *int64) (int64, error) {
	if explicit != nil {
		if *explicit < 0 {
			return 0, &ledger.InvalidPriceError{Price: *explicit}
		}
		if err := s.prices.SetPrice(ticker, day, *explicit); err != nil {
			return 0, err
		}
		return *explicit, nil
	}

	price, err := s.prices.Price(ticker, day)
	if err == nil {
		return price, nil
	}
	var notFound *ledger.PriceNotFoundError
	if !errors.As(err, &notFound) || s.feed == nil {
		return 0, err
	}

	price, feedErr := s.feed.FetchPrice(ticker, day)
	if feedErr != nil {
		return 0, err // PriceNotFound propagates, not the feed failure
	}
	if err := s.prices.SetPrice(ticker, day, price); err != nil {
		return 0, err
	}
	return price, nil
}

// replayIdempotent returns the transaction a previous request with the
// same key produced, if the record is still live.
func (s *Service) replayIdempotent(key string) (*ledger.Transaction, bool) {
	if key == "" {
		return nil, false
	}
	record, err := s.repo.IdempotencyRecord(key)
	if err != nil || record == nil || record.ExpiresAt.Before(time.Now()) {
		return nil, false
	}
	txn, err := s.repo.TransactionByID(record.TransactionID)
	if err != nil {
		return nil, false
	}
	return txn, true
}
