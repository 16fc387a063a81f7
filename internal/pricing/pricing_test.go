package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trackfolio/ledger-api/internal/ledger"
)

func TestMemory_SetAndGet(t *testing.T) {
	history := NewMemory()
	day := ledger.Day("2024-03-15")

	require.NoError(t, history.SetPrice("AAPL", day, 18950))

	price, err := history.Price("AAPL", day)
	require.NoError(t, err)
	require.Equal(t, int64(18950), price)
}

func TestMemory_LastWriteWins(t *testing.T) {
	history := NewMemory()
	day := ledger.Day("2024-03-15")

	require.NoError(t, history.SetPrice("AAPL", day, 100))
	require.NoError(t, history.SetPrice("AAPL", day, 200))

	price, err := history.Price("AAPL", day)
	require.NoError(t, err)
	require.Equal(t, int64(200), price)
}

func TestMemory_ExactDayOnly(t *testing.T) {
	history := NewMemory()
	require.NoError(t, history.SetPrice("AAPL", ledger.Day("2024-03-14"), 100))

	_, err := history.Price("AAPL", ledger.Day("2024-03-15"))
	var notFound *ledger.PriceNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "AAPL", notFound.Ticker)
	require.Equal(t, ledger.Day("2024-03-15"), notFound.Day)
}

func TestMemory_RejectsNegativePrice(t *testing.T) {
	history := NewMemory()

	err := history.SetPrice("AAPL", ledger.Day("2024-03-15"), -1)
	var invalid *ledger.InvalidPriceError
	require.ErrorAs(t, err, &invalid)

	_, err = history.Price("AAPL", ledger.Day("2024-03-15"))
	require.Error(t, err)
}

func TestMemory_ZeroPriceAllowed(t *testing.T) {
	history := NewMemory()
	day := ledger.Day("2024-03-15")

	require.NoError(t, history.SetPrice("DLST", day, 0))

	price, err := history.Price("DLST", day)
	require.NoError(t, err)
	require.Equal(t, int64(0), price)
}

func TestSimulatedFeed_Deterministic(t *testing.T) {
	feed := NewSimulatedFeed()
	day := ledger.Day("2024-03-15")

	first, err := feed.FetchPrice("AAPL", day)
	require.NoError(t, err)
	second, err := feed.FetchPrice("AAPL", day)
	require.NoError(t, err)
	require.Equal(t, first, second)

	other, err := feed.FetchPrice("AAPL", ledger.Day("2024-03-16"))
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestSimulatedFeed_WithinSpread(t *testing.T) {
	feed := NewSimulatedFeed()
	low := feed.BasePrice - feed.Spread/2
	high := feed.BasePrice + feed.Spread/2

	for _, ticker := range []string{"AAPL", "GOOGL", "MSFT", "AMZN", "META"} {
		price, err := feed.FetchPrice(ticker, ledger.Day("2024-03-15"))
		require.NoError(t, err)
		require.GreaterOrEqual(t, price, low)
		require.Less(t, price, high)
	}
}
