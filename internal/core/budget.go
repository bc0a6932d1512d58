package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWarningThreshold is the budget usage percentage that triggers a warning.
const DefaultWarningThreshold = 80

const BudgetMonthly = "monthly"

type Budget struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Amount      decimal.Decimal `json:"amount"`
	Period      string          `json:"period"`
	StartDate   Date            `json:"start_date"`
	EndDate     Date            `json:"end_date"`
	Spent       decimal.Decimal `json:"spent"`
	Active      bool            `json:"is_active"`
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if strings.TrimSpace(b.Subcategory) == "" {
		return invalid("subcategory", ErrEmptySubcategory)
	}
	if !b.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if b.Period != "" && b.Period != BudgetMonthly {
		return invalid("period", ErrInvalidPeriod)
	}
	return nil
}

type BudgetState string

const (
	BudgetOK      BudgetState = "ok"
	BudgetWarning BudgetState = "warning"
	BudgetOver    BudgetState = "over"
)

// BudgetStatus is a budget with its usage for the current month.
type BudgetStatus struct {
	Budget
	Percentage decimal.Decimal `json:"percentage"`
	Remaining  decimal.Decimal `json:"remaining"`
	State      BudgetState     `json:"state"`
}

// BudgetSpent sums expense magnitudes in ref's calendar month whose
// subcategory matches the budget.
func BudgetSpent(b Budget, txs []Transaction, ref time.Time) decimal.Decimal {
	first, last := MonthBounds(ref)
	spent := decimal.Zero
	for _, t := range txs {
		if t.Category != LabelExpense || t.Subcategory != b.Subcategory {
			continue
		}
		if t.Date.Time.Before(first.Time) || t.Date.Time.After(last.Time) {
			continue
		}
		spent = spent.Add(t.Amount.Abs())
	}
	return spent
}

var hundred = decimal.NewFromInt(100)

// EvaluateBudget grades spending against the amount. Thresholds outside
// 1..100 fall back to the default.
func EvaluateBudget(b Budget, threshold int) BudgetStatus {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultWarningThreshold
	}
	st := BudgetStatus{Budget: b, State: BudgetOK}
	pct := decimal.Zero
	if b.Amount.IsPositive() {
		pct = b.Spent.Div(b.Amount).Mul(hundred)
	}
	switch {
	case pct.GreaterThanOrEqual(hundred):
		st.State = BudgetOver
	case pct.GreaterThanOrEqual(decimal.NewFromInt(int64(threshold))):
		st.State = BudgetWarning
	}
	st.Percentage = pct.Round(2)
	st.Remaining = decimal.Max(decimal.Zero, b.Amount.Sub(b.Spent))
	return st
}
