package engine

import (
	"github.com/rs/zerolog/log"
	"github.com/trackfolio/ledger-api/internal/ledger"
)

// Outcome is the terminal state of one order or transfer request.
type Outcome string

const (
	OutcomeCommitted Outcome = "COMMITTED"
	OutcomeRejected  Outcome = "REJECTED"
)

// Event describes one request reaching a terminal state. Observers are
// invoked after the state transition is durable (or after nothing changed,
// for rejections); they must not mutate ledger state.
type Event struct {
	AccountID   uint
	Username    string
	Kind        string
	Ticker      string
	Quantity    float64
	Amount      int64
	Day         ledger.Day
	Outcome     Outcome
	Err         error
	Transaction *ledger.Transaction
}

// Observer receives terminal-state events. Logging and audit sinks hook in
// here instead of being baked into entity construction.
type Observer func(Event)

func (e Event) committed(txn *ledger.Transaction) Event {
	e.Outcome = OutcomeCommitted
	e.Transaction = txn
	return e
}

func (e Event) rejected(err error) Event {
	e.Outcome = OutcomeRejected
	e.Err = err
	return e
}

// Subscribe registers an observer for all subsequent terminal states.
func (s *Service) Subscribe(obs Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, obs)
}

func (s *Service) notify(e Event) {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	for _, obs := range s.observers {
		obs(e)
	}
}

// LogObserver is the default observer: one structured log line per
// terminal state.
func LogObserver() Observer {
	return func(e Event) {
		logger := log.With().
			Str("component", "accounting_engine").
			Uint("account_id", e.AccountID).
			Str("username", e.Username).
			Str("kind", e.Kind).
			Str("day", string(e.Day)).
			Logger()

		switch e.Outcome {
		case OutcomeCommitted:
			evt := logger.Info().Str("transaction_id", e.Transaction.TransactionID)
			if e.Kind == ledger.KindStockOrder {
				evt = evt.Str("ticker", e.Ticker).Float64("quantity", e.Quantity)
			} else {
				evt = evt.Int64("amount", e.Amount)
			}
			evt.Msg("transaction committed")
		case OutcomeRejected:
			logger.Warn().
				Err(e.Err).
				Str("ticker", e.Ticker).
				Float64("quantity", e.Quantity).
				Int64("amount", e.Amount).
				Msg("request rejected")
		}
	}
}
