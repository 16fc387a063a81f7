package ledger

import "fmt"

// PriceSource resolves the price in cents for a (ticker, day) key. The
// pricing package's history implementations satisfy it.
type PriceSource interface {
	Price(ticker string, day Day) (int64, error)
}

// ReplayResult is the aggregate effect of folding a transaction log from
// zero: the net cash movement and the signed holdings per ticker.
type ReplayResult struct {
	CashDelta int64              `json:"cash_delta"`
	Holdings  map[string]float64 `json:"holdings"`
}

// Replay recomputes the aggregate effect of the full log. Stock orders
// resolve their cash effect from the price source for the transaction day;
// a missing price propagates as PriceNotFoundError.
func Replay(txns []Transaction, prices PriceSource) (*ReplayResult, error) {
	result := &ReplayResult{Holdings: make(map[string]float64)}
	for i := range txns {
		value, err := TotalValue(&txns[i], prices)
		if err != nil {
			return nil, err
		}
		switch txns[i].Kind {
		case KindStockOrder:
			result.CashDelta -= value
			result.Holdings[txns[i].Ticker] += txns[i].Quantity
		case KindFundTransfer:
			result.CashDelta += value
		default:
			return nil, fmt.Errorf("unknown transaction kind %q", txns[i].Kind)
		}
	}
	return result, nil
}

// TotalValue is the cash value of one transaction in cents: for a stock
// order, quantity times the price on the transaction day; for a transfer,
// the transfer amount itself.
func TotalValue(txn *Transaction, prices PriceSource) (int64, error) {
	switch txn.Kind {
	case KindStockOrder:
		price, err := prices.Price(txn.Ticker, txn.Day)
		if err != nil {
			return 0, err
		}
		return orderCost(txn.Quantity, price), nil
	case KindFundTransfer:
		return txn.Amount, nil
	default:
		return 0, fmt.Errorf("unknown transaction kind %q", txn.Kind)
	}
}

// VerifyHistory folds the log from the opening balance and fails on the
// first prefix at which cash or any holding goes negative. Accepted orders
// preserve both invariants by construction, so a failure here means the
// stored log was corrupted or loaded from an untrusted source.
func VerifyHistory(openingBalance int64, txns []Transaction, prices PriceSource) error {
	cash := openingBalance
	holdings := make(map[string]float64)
	for i := range txns {
		value, err := TotalValue(&txns[i], prices)
		if err != nil {
			return err
		}
		switch txns[i].Kind {
		case KindStockOrder:
			cash -= value
			holdings[txns[i].Ticker] += txns[i].Quantity
			if holdings[txns[i].Ticker] < 0 {
				return fmt.Errorf("holdings of %s negative (%g) after transaction %s",
					txns[i].Ticker, holdings[txns[i].Ticker], txns[i].TransactionID)
			}
		case KindFundTransfer:
			cash += value
		}
		if cash < 0 {
			return fmt.Errorf("cash negative (%d) after transaction %s", cash, txns[i].TransactionID)
		}
	}
	return nil
}
