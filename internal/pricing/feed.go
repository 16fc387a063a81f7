package pricing

import (
	"hash/fnv"

	"github.com/rs/zerolog/log"
	"github.com/trackfolio/ledger-api/internal/ledger"
)

// SimulatedFeed is a stand-in for a market data provider. Prices derive
// from a hash of the (ticker, day) key so the same key always resolves to
// the same quote, which keeps the feed consistent with the immutability
// rule for price points.
type SimulatedFeed struct {
	BasePrice int64 // midpoint of generated quotes, in cents
	Spread    int64 // quotes land in [BasePrice-Spread/2, BasePrice+Spread/2)
}

func NewSimulatedFeed() *SimulatedFeed {
	return &SimulatedFeed{
		BasePrice: 10000, // $100.00
		Spread:    8000,
	}
}

func (f *SimulatedFeed) FetchPrice(ticker string, day ledger.Day) (int64, error) {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	h.Write([]byte(day))

	price := f.BasePrice - f.Spread/2 + int64(h.Sum64()%uint64(f.Spread))

	log.Debug().
		Str("component", "simulated_feed").
		Str("ticker", ticker).
		Str("day", string(day)).
		Int64("price", price).
		Msg("fetched simulated price")

	return price, nil
}
