package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ledger decides whether a proposed order preserves the cash and holdings
// invariants and, when it does, applies the resulting state transition
// through the repository. It takes no locks itself: the caller must hold
// exclusive access to the account across validate and apply (the engine
// serializes per account).
type Ledger struct {
	repo Repository
}

func New(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// orderCost is the signed cash cost of an order in cents. A sell (negative
// quantity) yields a negative cost, i.e. proceeds. Fractional quantities
// truncate toward zero.
func orderCost(quantity float64, unitPrice int64) int64 {
	return int64(quantity * float64(unitPrice))
}

// CurrentHoldings returns the signed sum of all stock-order quantities
// recorded for the (account, instrument) pair. It recomputes from the full
// log every call; the log is the ground truth.
func (l *Ledger) CurrentHoldings(acct *Account, inst *Instrument) (float64, error) {
	txns, err := l.repo.TransactionsByAccount(acct.ID)
	if err != nil {
		return 0, err
	}
	var held float64
	for _, txn := range txns {
		if txn.Kind == KindStockOrder && txn.Ticker == inst.Ticker {
			held += txn.Quantity
		}
	}
	return held, nil
}

// ValidateStockOrder checks a proposed order against the holdings invariant
// first, then the funds invariant. It does not mutate state; a nil return
// means the order may be applied against the same account snapshot.
func (l *Ledger) ValidateStockOrder(acct *Account, inst *Instrument, quantity float64, unitPrice int64) error {
	held, err := l.CurrentHoldings(acct, inst)
	if err != nil {
		return err
	}
	if held+quantity < 0 {
		return &InsufficientQuantityError{
			Ticker:    inst.Ticker,
			Requested: -quantity,
			Available: held,
		}
	}
	if projected := acct.Cash - orderCost(quantity, unitPrice); projected < 0 {
		return &InsufficientFundsError{Shortfall: -projected}
	}
	return nil
}

// ApplyStockOrder commits a previously validated order: debits the cash
// cost, appends the stock-order transaction, and returns it. It performs no
// re-validation and must only be called after ValidateStockOrder succeeded
// against the same snapshot.
func (l *Ledger) ApplyStockOrder(acct *Account, inst *Instrument, day Day, quantity float64, unitPrice int64, idempotencyKey string) (*Transaction, error) {
	cost := orderCost(quantity, unitPrice)
	acct.Cash -= cost

	txn := &Transaction{
		TransactionID: "TXN_" + uuid.New().String(),
		AccountID:     acct.ID,
		Day:           day,
		Kind:          KindStockOrder,
		Ticker:        inst.Ticker,
		Quantity:      quantity,
		Amount:        cost,
	}
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt

	if err := l.repo.CommitTransaction(acct, txn, idempotencyKey); err != nil {
		return nil, fmt.Errorf("failed to commit stock order: %w", err)
	}
	return txn, nil
}

// ApplyFundTransfer validates and commits a deposit (positive amount) or
// withdrawal (negative amount) as one atomic step.
func (l *Ledger) ApplyFundTransfer(acct *Account, amount int64, day Day, idempotencyKey string) (*Transaction, error) {
	if projected := acct.Cash + amount; projected < 0 {
		return nil, &InsufficientFundsError{Shortfall: -projected}
	}
	acct.Cash += amount

	txn := &Transaction{
		TransactionID: "TXN_" + uuid.New().String(),
		AccountID:     acct.ID,
		Day:           day,
		Kind:          KindFundTransfer,
		Amount:        amount,
	}
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt

	if err := l.repo.CommitTransaction(acct, txn, idempotencyKey); err != nil {
		return nil, fmt.Errorf("failed to commit fund transfer: %w", err)
	}
	return txn, nil
}
