package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/trackfolio/ledger-api/internal/ledger"
	"gorm.io/gorm"
)

// Repository is the gorm-backed ledger.Repository implementation.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateAccount(acct *ledger.Account) error {
	return r.db.Create(acct).Error
}

func (r *Repository) AccountByID(id uint) (*ledger.Account, error) {
	var acct ledger.Account
	if err := r.db.First(&acct, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ledger.UnknownAccountError{ID: id}
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	return &acct, nil
}

func (r *Repository) AccountByUsername(username string) (*ledger.Account, error) {
	var acct ledger.Account
	if err := r.db.Where("username = ?", username).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ledger.UnknownAccountError{Username: username}
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	return &acct, nil
}

func (r *Repository) Accounts() ([]ledger.Account, error) {
	var accounts []ledger.Account
	if err := r.db.Order("id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	return accounts, nil
}

func (r *Repository) CreateInstrument(inst *ledger.Instrument) error {
	return r.db.Create(inst).Error
}

func (r *Repository) InstrumentByTicker(ticker string) (*ledger.Instrument, error) {
	var inst ledger.Instrument
	if err := r.db.Where("ticker = ?", ticker).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ledger.UnknownInstrumentError{Ticker: ticker}
		}
		return nil, fmt.Errorf("failed to fetch instrument: %w", err)
	}
	return &inst, nil
}

func (r *Repository) TransactionsByAccount(accountID uint) ([]ledger.Transaction, error) {
	var txns []ledger.Transaction
	if err := r.db.Where("account_id = ?", accountID).Order("id").Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return txns, nil
}

func (r *Repository) TransactionByID(transactionID string) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	if err := r.db.Where("transaction_id = ?", transactionID).First(&txn).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch transaction: %w", err)
	}
	return &txn, nil
}

// CommitTransaction saves the account, appends the transaction, and writes
// the idempotency record in a single database transaction.
func (r *Repository) CommitTransaction(acct *ledger.Account, txn *ledger.Transaction, idempotencyKey string) error {
	tx := r.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(acct).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save account: %w", err)
	}

	if err := tx.Create(txn).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	if idempotencyKey != "" {
		record := ledger.IdempotencyRecord{
			IdempotencyKey: idempotencyKey,
			TransactionID:  txn.TransactionID,
			ExpiresAt:      time.Now().Add(24 * time.Hour),
		}
		if err := tx.Create(&record).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create idempotency record: %w", err)
		}
	}

	return tx.Commit().Error
}

func (r *Repository) IdempotencyRecord(key string) (*ledger.IdempotencyRecord, error) {
	var record ledger.IdempotencyRecord
	if err := r.db.Where("idempotency_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch idempotency record: %w", err)
	}
	return &record, nil
}
