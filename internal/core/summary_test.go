package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		{Date: NewDate(2024, 5, 31), Category: LabelIncome, Amount: dec("999")},
		{Date: NewDate(2024, 6, 1), Category: LabelIncome, Amount: dec("5000000")},
		{Date: NewDate(2024, 6, 3), Category: LabelExpense, Subcategory: "Food", Amount: dec("-25000")},
		{Date: NewDate(2024, 6, 10), Category: "Bills", Amount: dec("-75000")},
		{Date: NewDate(2024, 6, 12), Category: LabelTransfer, Amount: dec("-100000"), AccountID: 1, DestinationID: 2},
	}
	s, err := Summarize(txs, PeriodMonthly, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), PeriodOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", s.Start.String())
	assert.True(t, s.Income.Equal(dec("5000000")), "income %s", s.Income)
	assert.True(t, s.Expense.Equal(dec("100000")), "expense %s", s.Expense)
	assert.True(t, s.Net.Equal(dec("4900000")))

	_, err = Summarize(txs, "hourly", time.Now(), PeriodOptions{})
	assert.Error(t, err)
}

func TestBalances(t *testing.T) {
	b := Balances([]Account{
		{Balance: dec("100"), Savings: true},
		{Balance: dec("50")},
		{Balance: dec("-20")},
	})
	assert.True(t, b.Total.Equal(dec("130")))
	assert.True(t, b.Savings.Equal(dec("100")))
	assert.True(t, b.Daily.Equal(dec("30")))
}

func TestAccountStats(t *testing.T) {
	txs := []Transaction{
		{Category: LabelIncome, Amount: dec("1000"), AccountID: 1},
		{Category: LabelExpense, Amount: dec("-200"), AccountID: 1},
		{Category: LabelTransfer, Amount: dec("-300"), AccountID: 1, DestinationID: 2},
		{Category: LabelTransfer, Amount: dec("-50"), AccountID: 2, DestinationID: 1},
		{Category: LabelExpense, Amount: dec("-9"), AccountID: 2},
	}
	st := AccountStats(1, txs)
	assert.Equal(t, 4, st.TransactionCount)
	assert.True(t, st.Income.Equal(dec("1050")), "income %s", st.Income)
	assert.True(t, st.Expense.Equal(dec("500")), "expense %s", st.Expense)

	st = AccountStats(2, txs)
	assert.Equal(t, 3, st.TransactionCount)
	assert.True(t, st.Income.Equal(dec("300")))
	assert.True(t, st.Expense.Equal(dec("59")))
}

func TestExpenseBreakdown(t *testing.T) {
	txs := []Transaction{
		{Date: NewDate(2024, 6, 2), Category: LabelExpense, Subcategory: "Food", Amount: dec("-10")},
		{Date: NewDate(2024, 6, 3), Category: LabelExpense, Subcategory: "Rent", Amount: dec("-500")},
		{Date: NewDate(2024, 6, 4), Category: LabelExpense, Subcategory: "Food", Amount: dec("-15")},
		{Date: NewDate(2024, 5, 4), Category: LabelExpense, Subcategory: "Food", Amount: dec("-99")},
		{Date: NewDate(2024, 6, 4), Category: LabelIncome, Subcategory: "Salary", Amount: dec("1000")},
	}
	got := ExpenseBreakdown(txs, NewDate(2024, 6, 1))
	require.Len(t, got, 2)
	assert.Equal(t, "Rent", got[0].Subcategory)
	assert.True(t, got[1].Amount.Equal(dec("25")))
}
