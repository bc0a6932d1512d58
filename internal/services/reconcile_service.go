package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/storage"
)

// Drift is the gap between a stored balance and the one implied by the
// opening balance plus every transaction leg.
type Drift struct {
	AccountID int64           `json:"account_id"`
	Name      string          `json:"name"`
	Stored    decimal.Decimal `json:"stored"`
	Expected  decimal.Decimal `json:"expected"`
	Delta     decimal.Decimal `json:"delta"`
}

type ReconcileReport struct {
	UserID   string  `json:"user_id"`
	Accounts int     `json:"accounts"`
	Drifts   []Drift `json:"drifts"`
	Fixed    bool    `json:"fixed"`
}

func (r ReconcileReport) Clean() bool { return len(r.Drifts) == 0 }

// ReconcileService checks stored balances against transaction history.
type ReconcileService struct {
	store  storage.Store
	cache  Invalidator
	logger *log.Logger
}

func NewReconcileService(store storage.Store, cache Invalidator, logger *log.Logger) *ReconcileService {
	return &ReconcileService{store: store, cache: orNoop(cache), logger: orDiscard(logger, log.ComponentReconcile)}
}

// Check reports every account whose balance drifted. It writes nothing.
func (s *ReconcileService) Check(ctx context.Context, userID string) (ReconcileReport, error) {
	var report ReconcileReport
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		var err error
		report, err = s.check(ctx, g, userID)
		return err
	})
	return report, err
}

// Fix rewrites drifted balances to their expected value in one store transaction.
func (s *ReconcileService) Fix(ctx context.Context, userID string) (ReconcileReport, error) {
	var report ReconcileReport
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		var err error
		if report, err = s.check(ctx, g, userID); err != nil {
			return err
		}
		for _, d := range report.Drifts {
			expected := d.Expected
			if _, err := g.UpdateAccount(ctx, userID, d.AccountID, storage.AccountPatch{Balance: &expected}); err != nil {
				return fmt.Errorf("fix balance of account %d: %w", d.AccountID, err)
			}
		}
		report.Fixed = len(report.Drifts) > 0
		return nil
	})
	if err != nil {
		return ReconcileReport{}, err
	}
	if report.Fixed {
		s.cache.Invalidate(userID)
		s.logger.WarnContext(ctx, "Balances rewritten", log.FieldUserID, userID, "accounts", len(report.Drifts))
	}
	return report, nil
}

func (s *ReconcileService) check(ctx context.Context, g storage.Gateway, userID string) (ReconcileReport, error) {
	accounts, err := g.ListAccounts(ctx, userID)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("list accounts: %w", err)
	}
	txs, err := g.ListTransactions(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("list transactions: %w", err)
	}
	var legs []core.Leg
	for _, t := range txs {
		legs = append(legs, core.Legs(t)...)
	}
	net := core.NetByAccount(legs)

	report := ReconcileReport{UserID: userID, Accounts: len(accounts), Drifts: []Drift{}}
	for _, a := range accounts {
		expected := a.OpeningBalance.Add(net[a.ID])
		if expected.Equal(a.Balance) {
			continue
		}
		report.Drifts = append(report.Drifts, Drift{
			AccountID: a.ID,
			Name:      a.Name,
			Stored:    a.Balance,
			Expected:  expected,
			Delta:     a.Balance.Sub(expected),
		})
	}
	if !report.Clean() {
		s.logger.WarnContext(ctx, "Balance drift detected", log.FieldUserID, userID, "accounts", len(report.Drifts))
	}
	return report, nil
}
