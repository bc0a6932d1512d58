package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/storage"
)

// BudgetService manages monthly per-subcategory budgets. Spent is derived
// from the month's transactions on every read and never stored.
type BudgetService struct {
	store  storage.Store
	logger *log.Logger
	now    clock
}

func NewBudgetService(store storage.Store, logger *log.Logger) *BudgetService {
	return &BudgetService{store: store, logger: orDiscard(logger, log.ComponentBudget), now: systemClock}
}

type BudgetInput struct {
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Amount      decimal.Decimal `json:"amount"`
	Active      *bool           `json:"is_active"`
}

func (in BudgetInput) budget(userID string) core.Budget {
	b := core.Budget{
		UserID:      userID,
		Category:    strings.TrimSpace(in.Category),
		Subcategory: strings.TrimSpace(in.Subcategory),
		Amount:      in.Amount.Round(2),
		Period:      core.BudgetMonthly,
		Active:      true,
	}
	if in.Active != nil {
		b.Active = *in.Active
	}
	return b
}

// List returns every budget with its spending for the current month, graded
// by the user's warning threshold.
func (s *BudgetService) List(ctx context.Context, userID string) ([]core.BudgetStatus, error) {
	ref := s.now()
	first, last := core.MonthBounds(ref)

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{
		Category: core.LabelExpense,
		From:     first,
		To:       last,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	settings, err := loadSettings(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		b.StartDate, b.EndDate = first, last
		b.Spent = core.BudgetSpent(b, txs, ref)
		out = append(out, core.EvaluateBudget(b, settings.WarningThreshold))
	}
	return out, nil
}

func (s *BudgetService) Create(ctx context.Context, userID string, in BudgetInput) (core.Budget, error) {
	b := in.budget(userID)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.StartDate, b.EndDate = core.MonthBounds(s.now())
	created, err := s.store.InsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget created", log.FieldUserID, userID, log.FieldSubcategory, created.Subcategory, log.FieldAmount, created.Amount.String())
	return created, nil
}

// Update replaces every editable field of a budget.
func (s *BudgetService) Update(ctx context.Context, userID string, id int64, in BudgetInput) (core.Budget, error) {
	b := in.budget(userID)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	var updated core.Budget
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		cur, err := g.GetBudget(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("load budget %d: %w", id, err)
		}
		b.ID = cur.ID
		b.StartDate, b.EndDate = core.MonthBounds(s.now())
		if updated, err = g.UpdateBudget(ctx, b); err != nil {
			return fmt.Errorf("update budget %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	return updated, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Budget deleted", log.FieldUserID, userID, "budget_id", id)
	return nil
}
