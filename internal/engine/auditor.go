package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/trackfolio/ledger-api/internal/ledger"
	"github.com/trackfolio/ledger-api/internal/pricing"
)

// Auditor periodically replays every account's transaction log and reports
// drift between the recorded cash balance and the replayed one, plus any
// prefix at which an invariant fails.
type Auditor struct {
	repo     ledger.Repository
	prices   pricing.History
	interval time.Duration
}

func NewAuditor(repo ledger.Repository, prices pricing.History) *Auditor {
	return &Auditor{
		repo:     repo,
		prices:   prices,
		interval: 5 * time.Minute,
	}
}

// Start runs the audit loop until the context is cancelled.
func (a *Auditor) Start(ctx context.Context) {
	logger := log.With().Str("component", "ledger_auditor").Logger()
	logger.Info().Dur("interval", a.interval).Msg("starting ledger auditor")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down ledger auditor")
			return
		case <-ticker.C:
			if err := a.auditAccounts(); err != nil {
				logger.Error().Err(err).Msg("failed to audit accounts")
			}
		}
	}
}

func (a *Auditor) auditAccounts() error {
	logger := log.With().Str("component", "ledger_auditor").Logger()

	accounts, err := a.repo.Accounts()
	if err != nil {
		return err
	}

	for i := range accounts {
		acct := &accounts[i]
		txns, err := a.repo.TransactionsByAccount(acct.ID)
		if err != nil {
			logger.Error().Err(err).Uint("account_id", acct.ID).Msg("failed to load transactions")
			continue
		}

		if err := ledger.VerifyHistory(acct.OpeningBalance, txns, a.prices); err != nil {
			logger.Error().
				Err(err).
				Uint("account_id", acct.ID).
				Str("username", acct.Username).
				Msg("transaction history violates invariants")
			continue
		}

		result, err := ledger.Replay(txns, a.prices)
		if err != nil {
			logger.Error().Err(err).Uint("account_id", acct.ID).Msg("failed to replay transactions")
			continue
		}

		if expected := acct.OpeningBalance + result.CashDelta; expected != acct.Cash {
			logger.Error().
				Uint("account_id", acct.ID).
				Str("username", acct.Username).
				Int64("recorded_cash", acct.Cash).
				Int64("replayed_cash", expected).
				Msg("cash balance drifted from transaction log")
		}
	}

	logger.Debug().Int("accounts_audited", len(accounts)).Msg("audit pass complete")
	return nil
}
