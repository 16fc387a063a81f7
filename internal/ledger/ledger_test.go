package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, repo *MemoryRepository, username string, cash int64) *Account {
	t.Helper()
	acct := &Account{Username: username, Cash: cash, OpeningBalance: cash}
	require.NoError(t, repo.CreateAccount(acct))
	return acct
}

func seedInstrument(t *testing.T, repo *MemoryRepository, ticker string) *Instrument {
	t.Helper()
	inst := &Instrument{Ticker: ticker}
	require.NoError(t, repo.CreateInstrument(inst))
	return inst
}

func TestValidateStockOrder_Buy(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	acct := seedAccount(t, repo, "buffett", 100)
	inst := seedInstrument(t, repo, "BRK.A")

	require.NoError(t, l.ValidateStockOrder(acct, inst, 2, 20))
}

func TestValidateStockOrder_InsufficientFunds(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	acct := seedAccount(t, repo, "buffett", 10)
	inst := seedInstrument(t, repo, "BRK.A")

	err := l.ValidateStockOrder(acct, inst, 1, 20)
	var insufficientFunds *InsufficientFundsError
	require.ErrorAs(t, err, &insufficientFunds)
	require.Equal(t, int64(10), insufficientFunds.Shortfall)
}

func TestValidateStockOrder_InsufficientQuantity(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	acct := seedAccount(t, repo, "buffett", 0)
	inst := seedInstrument(t, repo, "BRK.A")

	err := l.ValidateStockOrder(acct, inst, -1, 20)
	var insufficientQuantity *InsufficientQuantityError
	require.ErrorAs(t, err, &insufficientQuantity)
	require.Equal(t, float64(1), insufficientQuantity.Requested)
	require.Equal(t, float64(0), insufficientQuantity.Available)
}

// The holdings check runs strictly before the funds check. Holdings and
// cash cannot both be short through the public API, so pin the precedence
// against a raw account snapshot where both projections go negative.
func TestValidateStockOrder_QuantityCheckWins(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	inst := seedInstrument(t, repo, "BRK.A")
	acct := &Account{Username: "drifted", Cash: -50}

	err := l.ValidateStockOrder(acct, inst, -1, 20)
	require.IsType(t, &InsufficientQuantityError{}, err)
}

func TestApplyStockOrder(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	acct := seedAccount(t, repo, "buffett", 100)
	inst := seedInstrument(t, repo, "BRK.A")
	day := Day("2024-03-15")

	require.NoError(t, l.ValidateStockOrder(acct, inst, 2, 20))
	txn, err := l.ApplyStockOrder(acct, inst, day, 2, 20, "")
	require.NoError(t, err)

	require.Equal(t, KindStockOrder, txn.Kind)
	require.Equal(t, "BRK.A", txn.Ticker)
	require.Equal(t, float64(2), txn.Quantity)
	require.Equal(t, day, txn.Day)
	require.NotEmpty(t, txn.TransactionID)

	stored, err := repo.AccountByID(acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(60), stored.Cash)

	held, err := l.CurrentHoldings(stored, inst)
	require.NoError(t, err)
	require.Equal(t, float64(2), held)
}

func TestApplyFundTransfer(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	acct := seedAccount(t, repo, "buffett", 100)
	day := Day("2024-03-15")

	txn, err := l.ApplyFundTransfer(acct, 50, day, "")
	require.NoError(t, err)
	require.Equal(t, KindFundTransfer, txn.Kind)
	require.Equal(t, int64(50), txn.Amount)

	stored, err := repo.AccountByID(acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(150), stored.Cash)
}

func TestApplyFundTransfer_Overdraw(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	acct := seedAccount(t, repo, "buffett", 100)

	_, err := l.ApplyFundTransfer(acct, -150, Day("2024-03-15"), "")
	var insufficientFunds *InsufficientFundsError
	require.ErrorAs(t, err, &insufficientFunds)
	require.Equal(t, int64(50), insufficientFunds.Shortfall)

	stored, err := repo.AccountByID(acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), stored.Cash)

	txns, err := repo.TransactionsByAccount(acct.ID)
	require.NoError(t, err)
	require.Empty(t, txns)
}

func TestZeroQuantityOrder(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	acct := seedAccount(t, repo, "buffett", 100)
	inst := seedInstrument(t, repo, "BRK.A")
	day := Day("2024-03-15")

	require.NoError(t, l.ValidateStockOrder(acct, inst, 0, 20))
	txn, err := l.ApplyStockOrder(acct, inst, day, 0, 20, "")
	require.NoError(t, err)
	require.Equal(t, float64(0), txn.Quantity)

	stored, err := repo.AccountByID(acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), stored.Cash)

	txns, err := repo.TransactionsByAccount(acct.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestMultipleOrders(t *testing.T) {
	const unitPrice = 10
	day := Day("2024-03-15")

	tests := []struct {
		name         string
		openingCash  int64
		quantities   []float64
		wantErrKind  string // "", "quantity", "funds"
		wantHoldings float64
		wantCash     int64
	}{
		{"buy then partial sell", 1000, []float64{5, -3}, "", 2, 980},
		{"two buys", 500, []float64{7, 2}, "", 9, 410},
		{"round trip to flat", 600, []float64{4, 0, 6, -10}, "", 0, 600},
		{"sell with nothing held", 1000, []float64{-4}, "quantity", 0, 1000},
		{"oversell after buy", 1000, []float64{5, -7}, "quantity", 5, 950},
		{"buy beyond cash", 40, []float64{5}, "funds", 0, 40},
		{"oversell late in sequence", 600, []float64{4, 0, 6, -11}, "quantity", 10, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMemoryRepository()
			l := New(repo)
			acct := seedAccount(t, repo, "trader", tt.openingCash)
			inst := seedInstrument(t, repo, "XYZ")

			var gotErr error
			for _, quantity := range tt.quantities {
				if err := l.ValidateStockOrder(acct, inst, quantity, unitPrice); err != nil {
					gotErr = err
					break
				}
				_, err := l.ApplyStockOrder(acct, inst, day, quantity, unitPrice, "")
				require.NoError(t, err)
			}

			switch tt.wantErrKind {
			case "":
				require.NoError(t, gotErr)
			case "quantity":
				var insufficientQuantity *InsufficientQuantityError
				require.ErrorAs(t, gotErr, &insufficientQuantity)
			case "funds":
				var insufficientFunds *InsufficientFundsError
				require.ErrorAs(t, gotErr, &insufficientFunds)
			}

			stored, err := repo.AccountByID(acct.ID)
			require.NoError(t, err)
			require.Equal(t, tt.wantCash, stored.Cash)

			held, err := l.CurrentHoldings(stored, inst)
			require.NoError(t, err)
			require.Equal(t, tt.wantHoldings, held)
		})
	}
}

func TestMemoryRepository_ReadsReturnCopies(t *testing.T) {
	repo := NewMemoryRepository()
	acct := seedAccount(t, repo, "buffett", 100)

	loaded, err := repo.AccountByID(acct.ID)
	require.NoError(t, err)
	loaded.Cash = 0

	reloaded, err := repo.AccountByID(acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), reloaded.Cash)
}

func TestMemoryRepository_UnknownLookups(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.AccountByID(99)
	var unknownAccount *UnknownAccountError
	require.ErrorAs(t, err, &unknownAccount)

	_, err = repo.InstrumentByTicker("NOPE")
	var unknownInstrument *UnknownInstrumentError
	require.ErrorAs(t, err, &unknownInstrument)
}

func TestMemoryRepository_Idempotency(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	acct := seedAccount(t, repo, "buffett", 100)

	txn, err := l.ApplyFundTransfer(acct, 50, Day("2024-03-15"), "req-1")
	require.NoError(t, err)

	record, err := repo.IdempotencyRecord("req-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, txn.TransactionID, record.TransactionID)

	replayed, err := repo.TransactionByID(record.TransactionID)
	require.NoError(t, err)
	require.Equal(t, txn.TransactionID, replayed.TransactionID)
}

func TestMemoryRepository_DuplicateIdempotencyKey(t *testing.T) {
	repo := NewMemoryRepository()
	l := New(repo)
	acct := seedAccount(t, repo, "buffett", 100)

	_, err := l.ApplyFundTransfer(acct, 10, Day("2024-03-15"), "req-1")
	require.NoError(t, err)

	_, err = l.ApplyFundTransfer(acct, 10, Day("2024-03-15"), "req-1")
	require.Error(t, err)

	txns, err := repo.TransactionsByAccount(acct.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-03-15")
	require.NoError(t, err)
	require.Equal(t, Day("2024-03-15"), day)

	_, err = ParseDay("15/03/2024")
	require.Error(t, err)
}
