package ledger

// Repository is the storage boundary the accounting core depends on. Two
// implementations satisfy it: MemoryRepository in this package and the
// gorm/sqlite repository in internal/database. Lookups return the typed
// Unknown* errors from this package when the record does not exist.
type Repository interface {
	CreateAccount(acct *Account) error
	AccountByID(id uint) (*Account, error)
	AccountByUsername(username string) (*Account, error)
	Accounts() ([]Account, error)

	CreateInstrument(inst *Instrument) error
	InstrumentByTicker(ticker string) (*Instrument, error)

	// TransactionsByAccount returns the account's full log in append order.
	TransactionsByAccount(accountID uint) ([]Transaction, error)
	TransactionByID(transactionID string) (*Transaction, error)

	// CommitTransaction persists the updated account state and appends the
	// transaction as one atomic unit, assigning the transaction its
	// monotonically increasing position. If idempotencyKey is non-empty an
	// idempotency record pointing at the transaction is written in the
	// same unit.
	CommitTransaction(acct *Account, txn *Transaction, idempotencyKey string) error
	IdempotencyRecord(key string) (*IdempotencyRecord, error)
}
