package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/trackfolio/ledger-api/internal/auth"
	"github.com/trackfolio/ledger-api/internal/ledger"
	"github.com/trackfolio/ledger-api/internal/types"
)

const (
	ordersPerWorker = 30
	numWorkers      = 5
	serverAddress   = "http://localhost:8080"
	openingDeposit  = 10_000_00 // $10,000.00 per simulated account
)

var tickers = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "META"}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
	rejections int
}

func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes min, max, mean, median, p95, and p99 durations.
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// apiEnvelope mirrors pkg/response.Response for decoding.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// simulationClient drives the ledger API over HTTP.
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client

	statsMu sync.Mutex
	stats   map[string]*routeStats
}

func newSimulationClient() (*simulationClient, error) {
	sc := &simulationClient{
		baseURL: serverAddress,
		client:  &http.Client{Timeout: 10 * time.Second},
		stats: map[string]*routeStats{
			"auth":     {name: "Authentication"},
			"account":  {name: "Create Account"},
			"transfer": {name: "Transfer Funds"},
			"order":    {name: "Place Order"},
			"balance":  {name: "Get Balance"},
			"audit":    {name: "Audit Account"},
		},
	}

	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token
	return sc, nil
}

func (sc *simulationClient) record(route string, start time.Time, failed bool) {
	sc.statsMu.Lock()
	defer sc.statsMu.Unlock()
	rs := sc.stats[route]
	rs.addDuration(time.Since(start))
	if failed {
		rs.failures++
	}
}

func (sc *simulationClient) rejectionRecorded(route string) {
	sc.statsMu.Lock()
	defer sc.statsMu.Unlock()
	sc.stats[route].rejections++
}

// do sends one JSON request and decodes the envelope. A non-2xx status is
// not an error here; the caller inspects the envelope.
func (sc *simulationClient) do(method, path string, body interface{}, idempotent bool) (*apiEnvelope, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, sc.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if sc.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+sc.authToken)
	}
	if idempotent {
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

func (sc *simulationClient) authenticate() (string, error) {
	start := time.Now()
	envelope, err := sc.do(http.MethodPost, "/api/v1/auth/token", auth.Credentials{
		APIKey:    auth.DefaultAPIKey,
		APISecret: auth.DefaultAPISecret,
	}, false)
	sc.record("auth", start, err != nil)
	if err != nil {
		return "", err
	}
	if !envelope.Success {
		return "", fmt.Errorf("authentication rejected: %+v", envelope.Error)
	}

	var token auth.TokenResponse
	if err := json.Unmarshal(envelope.Data, &token); err != nil {
		return "", err
	}
	return token.Token, nil
}

// seedMarket registers the simulated instruments and today's prices.
func (sc *simulationClient) seedMarket() error {
	day := string(ledger.Today())
	for _, ticker := range tickers {
		if _, err := sc.do(http.MethodPost, "/api/v1/internal/instruments",
			types.CreateInstrumentRequest{Ticker: ticker}, false); err != nil {
			return err
		}

		price := int64(rand.Intn(40_000) + 1_000) // $10.00 - $410.00
		envelope, err := sc.do(http.MethodPut, "/api/v1/internal/prices", types.SetPriceRequest{
			Ticker: ticker,
			Day:    day,
			Price:  price,
		}, false)
		if err != nil {
			return err
		}
		if !envelope.Success {
			return fmt.Errorf("failed to set price for %s: %+v", ticker, envelope.Error)
		}
		log.Info().Str("ticker", ticker).Int64("price", price).Msg("seeded price")
	}
	return nil
}

func (sc *simulationClient) createAccount(username string) (uint, error) {
	start := time.Now()
	envelope, err := sc.do(http.MethodPost, "/api/v1/accounts", types.CreateAccountRequest{
		Username: username,
	}, false)
	sc.record("account", start, err != nil || envelope == nil || !envelope.Success)
	if err != nil {
		return 0, err
	}
	if !envelope.Success {
		return 0, fmt.Errorf("account creation rejected: %+v", envelope.Error)
	}

	var acct types.AccountResponse
	if err := json.Unmarshal(envelope.Data, &acct); err != nil {
		return 0, err
	}
	return acct.AccountID, nil
}

// runWorker simulates one client account: an opening deposit followed by a
// stream of random buy/sell orders, then a final audit.
func (sc *simulationClient) runWorker(workerID int, accountID uint) {
	logger := log.With().Int("worker", workerID).Uint("account_id", accountID).Logger()

	start := time.Now()
	envelope, err := sc.do(http.MethodPost,
		fmt.Sprintf("/api/v1/accounts/%d/transfers", accountID),
		types.TransferRequest{Amount: openingDeposit}, true)
	sc.record("transfer", start, err != nil || envelope == nil || !envelope.Success)
	if err != nil || !envelope.Success {
		logger.Error().Msg("opening deposit failed, worker aborting")
		return
	}

	for i := 0; i < ordersPerWorker; i++ {
		ticker := tickers[rand.Intn(len(tickers))]
		quantity := float64(rand.Intn(10) + 1)
		if rand.Intn(2) == 0 {
			quantity = -quantity
		}

		start = time.Now()
		envelope, err = sc.do(http.MethodPost,
			fmt.Sprintf("/api/v1/accounts/%d/orders", accountID),
			types.OrderRequest{Ticker: ticker, Quantity: quantity}, true)
		sc.record("order", start, err != nil)
		if err != nil {
			logger.Error().Err(err).Msg("order request failed")
			continue
		}
		if !envelope.Success {
			// Rejections are expected: sells beyond holdings, buys beyond cash.
			sc.rejectionRecorded("order")
			logger.Debug().
				Str("ticker", ticker).
				Float64("quantity", quantity).
				Str("code", envelope.Error.Code).
				Msg("order rejected")
			continue
		}
	}

	start = time.Now()
	envelope, err = sc.do(http.MethodGet,
		fmt.Sprintf("/api/v1/accounts/%d/balance", accountID), nil, false)
	sc.record("balance", start, err != nil || envelope == nil || !envelope.Success)

	start = time.Now()
	envelope, err = sc.do(http.MethodGet,
		fmt.Sprintf("/api/v1/accounts/%d/audit", accountID), nil, false)
	sc.record("audit", start, err != nil || envelope == nil || !envelope.Success)
	if err == nil && envelope.Success {
		var audit types.AuditResponse
		if err := json.Unmarshal(envelope.Data, &audit); err == nil {
			logger.Info().
				Int64("cash", audit.Cash).
				Bool("consistent", audit.Consistent).
				Msg("worker finished")
		}
	}
}

// printSummary outputs per-route latency statistics.
func (sc *simulationClient) printSummary() {
	fmt.Println("\n=== Simulation Summary ===")
	for _, key := range []string{"auth", "account", "transfer", "order", "balance", "audit"} {
		rs := sc.stats[key]
		if rs.totalCalls == 0 {
			continue
		}
		min, max, mean, median, p95, p99 := rs.calculate()
		fmt.Printf("\n%s (%d calls, %d failures, %d rejections)\n",
			rs.name, rs.totalCalls, rs.failures, rs.rejections)
		fmt.Printf("  min: %v  max: %v  mean: %v\n", min, max, mean)
		fmt.Printf("  median: %v  p95: %v  p99: %v\n", median, p95, p99)
	}
}

func main() {
	sc, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize simulation client")
	}

	if err := sc.seedMarket(); err != nil {
		log.Fatal().Err(err).Msg("failed to seed market data")
	}

	accountIDs := make([]uint, 0, numWorkers)
	for i := 0; i < numWorkers; i++ {
		username := fmt.Sprintf("sim_user_%d_%d", time.Now().Unix(), i)
		accountID, err := sc.createAccount(username)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create account")
		}
		accountIDs = append(accountIDs, accountID)
	}

	var wg sync.WaitGroup
	for i, accountID := range accountIDs {
		wg.Add(1)
		go func(workerID int, id uint) {
			defer wg.Done()
			sc.runWorker(workerID, id)
		}(i, accountID)
	}
	wg.Wait()

	sc.printSummary()
}
