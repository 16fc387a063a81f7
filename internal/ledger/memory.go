package ledger

import (
	"fmt"
	"sync"
	"time"
)

// MemoryRepository is the in-memory Repository implementation. Reads return
// copies of stored records, so a caller that mutates an account during a
// rejected order leaks nothing back into the store; CommitTransaction is
// the only write path for account state and log entries.
type MemoryRepository struct {
	mu            sync.RWMutex
	nextAccountID uint
	nextInstID    uint
	nextTxnSeq    uint
	accounts      map[uint]*Account
	usernames     map[string]uint
	instruments   map[string]*Instrument
	transactions  map[uint][]Transaction
	txnsByID      map[string]*Transaction
	idempotency   map[string]*IdempotencyRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:     make(map[uint]*Account),
		usernames:    make(map[string]uint),
		instruments:  make(map[string]*Instrument),
		transactions: make(map[uint][]Transaction),
		txnsByID:     make(map[string]*Transaction),
		idempotency:  make(map[string]*IdempotencyRecord),
	}
}

func (r *MemoryRepository) CreateAccount(acct *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usernames[acct.Username]; exists {
		return fmt.Errorf("username %q already exists", acct.Username)
	}
	r.nextAccountID++
	acct.ID = r.nextAccountID
	acct.CreatedAt = time.Now()
	acct.UpdatedAt = acct.CreatedAt

	stored := *acct
	r.accounts[acct.ID] = &stored
	r.usernames[acct.Username] = acct.ID
	return nil
}

func (r *MemoryRepository) AccountByID(id uint) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.accounts[id]
	if !ok {
		return nil, &UnknownAccountError{ID: id}
	}
	cp := *acct
	return &cp, nil
}

func (r *MemoryRepository) AccountByUsername(username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usernames[username]
	if !ok {
		return nil, &UnknownAccountError{Username: username}
	}
	cp := *r.accounts[id]
	return &cp, nil
}

func (r *MemoryRepository) Accounts() ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]Account, 0, len(r.accounts))
	for id := uint(1); id <= r.nextAccountID; id++ {
		if acct, ok := r.accounts[id]; ok {
			accounts = append(accounts, *acct)
		}
	}
	return accounts, nil
}

func (r *MemoryRepository) CreateInstrument(inst *Instrument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instruments[inst.Ticker]; exists {
		return fmt.Errorf("instrument %q already exists", inst.Ticker)
	}
	r.nextInstID++
	inst.ID = r.nextInstID
	inst.CreatedAt = time.Now()
	inst.UpdatedAt = inst.CreatedAt

	stored := *inst
	r.instruments[inst.Ticker] = &stored
	return nil
}

func (r *MemoryRepository) InstrumentByTicker(ticker string) (*Instrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.instruments[ticker]
	if !ok {
		return nil, &UnknownInstrumentError{Ticker: ticker}
	}
	cp := *inst
	return &cp, nil
}

func (r *MemoryRepository) TransactionsByAccount(accountID uint) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txns := r.transactions[accountID]
	out := make([]Transaction, len(txns))
	copy(out, txns)
	return out, nil
}

func (r *MemoryRepository) TransactionByID(transactionID string) (*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txn, ok := r.txnsByID[transactionID]
	if !ok {
		return nil, fmt.Errorf("transaction %q not found", transactionID)
	}
	cp := *txn
	return &cp, nil
}

func (r *MemoryRepository) CommitTransaction(acct *Account, txn *Transaction, idempotencyKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[acct.ID]
	if !ok {
		return &UnknownAccountError{ID: acct.ID}
	}
	if idempotencyKey != "" {
		if _, exists := r.idempotency[idempotencyKey]; exists {
			return fmt.Errorf("idempotency key %q already used", idempotencyKey)
		}
	}

	r.nextTxnSeq++
	txn.ID = r.nextTxnSeq
	acct.UpdatedAt = time.Now()

	*stored = *acct
	entry := *txn
	r.transactions[acct.ID] = append(r.transactions[acct.ID], entry)
	r.txnsByID[txn.TransactionID] = &entry

	if idempotencyKey != "" {
		r.idempotency[idempotencyKey] = &IdempotencyRecord{
			IdempotencyKey: idempotencyKey,
			TransactionID:  txn.TransactionID,
			ExpiresAt:      time.Now().Add(24 * time.Hour),
		}
	}
	return nil
}

func (r *MemoryRepository) IdempotencyRecord(key string) (*IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.idempotency[key]
	if !ok {
		return nil, nil
	}
	cp := *record
	return &cp, nil
}
