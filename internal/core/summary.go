package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds income and expense totals for one period.
type Summary struct {
	Period  Period          `json:"period"`
	Start   Date            `json:"start"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Summarize totals the transactions dated on or after the period start.
// Expense is reported as a magnitude; transfers move money between the
// user's own accounts and count as neither.
func Summarize(txs []Transaction, p Period, ref time.Time, opts PeriodOptions) (Summary, error) {
	start, err := PeriodStart(p, ref, opts)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Period: p, Start: start, Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range txs {
		if t.Date.Time.Before(start.Time) {
			continue
		}
		switch t.Type() {
		case TypeIncome:
			s.Income = s.Income.Add(t.Amount)
		case TypeExpense:
			s.Expense = s.Expense.Add(t.Amount.Abs())
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	return s, nil
}

// BalanceSummary splits the user's money into savings and spendable funds.
type BalanceSummary struct {
	Total   decimal.Decimal `json:"total"`
	Savings decimal.Decimal `json:"savings"`
	Daily   decimal.Decimal `json:"daily"`
}

func Balances(accounts []Account) BalanceSummary {
	b := BalanceSummary{Total: decimal.Zero, Savings: decimal.Zero}
	for _, a := range accounts {
		b.Total = b.Total.Add(a.Balance)
		if a.Savings {
			b.Savings = b.Savings.Add(a.Balance)
		}
	}
	b.Daily = b.Total.Sub(b.Savings)
	return b
}

// AccountStat is the flow of money through one account.
type AccountStat struct {
	AccountID        int64           `json:"account_id"`
	Income           decimal.Decimal `json:"income"`
	Expense          decimal.Decimal `json:"expense"`
	TransactionCount int             `json:"transaction_count"`
}

// AccountStats counts incoming transfers as income and outgoing transfers as
// expense for the account they touch.
func AccountStats(accountID int64, txs []Transaction) AccountStat {
	st := AccountStat{AccountID: accountID, Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range txs {
		source := t.AccountID == accountID
		dest := t.HasDestination() && t.DestinationID == accountID
		if !source && !dest {
			continue
		}
		st.TransactionCount++
		switch t.Type() {
		case TypeIncome:
			if source {
				st.Income = st.Income.Add(t.Amount)
			}
		case TypeExpense:
			if source {
				st.Expense = st.Expense.Add(t.Amount.Abs())
			}
		case TypeTransfer:
			if source {
				st.Expense = st.Expense.Add(t.Amount.Abs())
			}
			if dest {
				st.Income = st.Income.Add(t.Amount.Abs())
			}
		}
	}
	return st
}

// CategoryTotal is the expense magnitude booked under one category.
type CategoryTotal struct {
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Amount      decimal.Decimal `json:"amount"`
}

// ExpenseBreakdown groups expenses from start onwards by category and
// subcategory, largest first.
func ExpenseBreakdown(txs []Transaction, start Date) []CategoryTotal {
	idx := map[[2]string]int{}
	var out []CategoryTotal
	for _, t := range txs {
		if t.Type() != TypeExpense || t.Date.Time.Before(start.Time) {
			continue
		}
		k := [2]string{t.Category, t.Subcategory}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, CategoryTotal{Category: t.Category, Subcategory: t.Subcategory, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount.Abs())
	}
	sortTotals(out)
	return out
}

func sortTotals(totals []CategoryTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount.GreaterThan(totals[j].Amount)
	})
}
