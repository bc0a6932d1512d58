package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"brankas/internal/cache"
	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/storage"
)

const recentTransactions = 5

// Dashboard is the page-load view of a user's money for one period.
type Dashboard struct {
	Summary    core.Summary         `json:"summary"`
	Balances   core.BalanceSummary  `json:"balances"`
	Accounts   []core.Account       `json:"accounts"`
	Recent     []core.Transaction   `json:"recent_transactions"`
	Breakdown  []core.CategoryTotal `json:"expense_breakdown"`
	Categories []core.Category      `json:"categories"`
	Profile    core.Profile         `json:"profile"`
	Settings   core.Settings        `json:"settings"`
	ComputedAt time.Time            `json:"computed_at"`
}

// DashboardService loads the independent page data concurrently and joins
// it in memory. Results are cached per user and period until a mutation
// invalidates them.
type DashboardService struct {
	store  storage.Store
	cache  *cache.UserPeriodCache[Dashboard]
	logger *log.Logger
	now    clock
}

// NewDashboardService takes an optional cache; nil disables caching.
func NewDashboardService(store storage.Store, c *cache.UserPeriodCache[Dashboard], logger *log.Logger) *DashboardService {
	return &DashboardService{store: store, cache: c, logger: orDiscard(logger, log.ComponentDashboard), now: systemClock}
}

// Invalidate drops the cached dashboards of userID.
func (s *DashboardService) Invalidate(userID string) {
	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
}

// CacheStats reports the dashboard cache counters; ok is false when caching
// is disabled.
func (s *DashboardService) CacheStats() (stats cache.Stats, ok bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

func (s *DashboardService) Get(ctx context.Context, userID string, p core.Period) (Dashboard, error) {
	if _, err := core.GetPeriodStarter(p); err != nil {
		return Dashboard{}, core.Invalid("period", core.ErrInvalidPeriod)
	}
	if s.cache != nil {
		if d, ok := s.cache.Get(userID, p); ok {
			return d, nil
		}
	}

	var (
		accounts []core.Account
		txs      []core.Transaction
		rows     []core.Category
		profile  core.Profile
		settings core.Settings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if accounts, err = s.store.ListAccounts(gctx, userID); err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if txs, err = s.store.ListTransactions(gctx, userID, storage.TransactionFilter{}); err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if rows, err = s.store.ListCategories(gctx, userID); err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		profile, err = loadProfile(gctx, s.store, userID)
		return err
	})
	g.Go(func() (err error) {
		settings, err = loadSettings(gctx, s.store, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Dashboard load failed", log.FieldUserID, userID, log.FieldPeriod, p, log.FieldError, err)
		return Dashboard{}, err
	}

	ref := s.now()
	summary, err := core.Summarize(txs, p, ref, settings.PeriodOptions())
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{
		Summary:    summary,
		Balances:   core.Balances(accounts),
		Accounts:   accounts,
		Recent:     txs[:min(recentTransactions, len(txs))],
		Breakdown:  core.ExpenseBreakdown(txs, summary.Start),
		Categories: core.BuildTree(rows),
		Profile:    profile,
		Settings:   settings,
		ComputedAt: ref,
	}
	if s.cache != nil {
		s.cache.Set(userID, p, d)
	}
	return d, nil
}
