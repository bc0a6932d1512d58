package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleAccounts() []Account {
	return []Account{
		{ID: 1, Name: "BCA", Type: AccountBank, Balance: dec("100000")},
		{ID: 2, Name: "GoPay", Type: AccountEWallet, Balance: dec("0")},
		{ID: 3, Name: "Wallet", Type: AccountCash, Balance: dec("20000")},
		{ID: 4, Name: "Jar", Type: AccountCash, Balance: dec("5000")},
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]TransactionType{
		"Income":   TypeIncome,
		"Transfer": TypeTransfer,
		"Expense":  TypeExpense,
		"Food":     TypeExpense,
		"income":   TypeExpense, // byte-exact
		"Transfer ": TypeExpense,
		"":          TypeExpense,
	}
	for label, want := range cases {
		assert.Equal(t, want, Classify(label), "label %q", label)
	}
}

func TestSignedAmount(t *testing.T) {
	assert.True(t, SignedAmount(TypeIncome, dec("10")).Equal(dec("10")))
	assert.True(t, SignedAmount(TypeExpense, dec("10")).Equal(dec("-10")))
	assert.True(t, SignedAmount(TypeTransfer, dec("10")).Equal(dec("-10")))
}

func TestResolveTransferWithdrawCashUsesFirstCashAccount(t *testing.T) {
	d := TransactionDraft{Subcategory: SubWithdrawCash, AccountID: 1, DestinationID: 2}
	dest, err := ResolveTransfer(d, sampleAccounts())
	require.NoError(t, err)
	assert.Equal(t, int64(3), dest.ID, "selection is overridden by the first cash account")
}

func TestResolveTransferErrors(t *testing.T) {
	noCash := sampleAccounts()[:2]
	cases := []struct {
		name     string
		draft    TransactionDraft
		accounts []Account
		want     error
	}{
		{"no cash account", TransactionDraft{Subcategory: SubWithdrawCash, AccountID: 1}, noCash, ErrNoCashAccount},
		{"missing destination", TransactionDraft{Subcategory: SubAllocateTo, AccountID: 1}, sampleAccounts(), ErrMissingDestination},
		{"unknown destination", TransactionDraft{Subcategory: SubAllocateTo, AccountID: 1, DestinationID: 99}, sampleAccounts(), ErrUnknownAccount},
		{"self transfer", TransactionDraft{Subcategory: SubAllocateTo, AccountID: 2, DestinationID: 2}, sampleAccounts(), ErrSelfTransfer},
		{"withdraw from the cash account itself", TransactionDraft{Subcategory: SubWithdrawCash, AccountID: 3}, sampleAccounts(), ErrSelfTransfer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveTransfer(tc.draft, tc.accounts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestBuildTransaction(t *testing.T) {
	base := TransactionDraft{
		Date:        NewDate(2024, 6, 15),
		Description: "  lunch ",
		Category:    LabelExpense,
		Subcategory: "Food",
		Amount:      dec("25000"),
		AccountID:   1,
	}

	tx, err := BuildTransaction("u1", base, sampleAccounts())
	require.NoError(t, err)
	assert.Equal(t, "lunch", tx.Description)
	assert.True(t, tx.Amount.Equal(dec("-25000")))
	assert.Equal(t, "BCA", tx.AccountName)
	assert.False(t, tx.HasDestination())

	income := base
	income.Category, income.Subcategory = LabelIncome, "Salary"
	tx, err = BuildTransaction("u1", income, sampleAccounts())
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(dec("25000")))

	transfer := base
	transfer.Category, transfer.Subcategory, transfer.DestinationID = LabelTransfer, SubAllocateTo, 2
	tx, err = BuildTransaction("u1", transfer, sampleAccounts())
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(dec("-25000")))
	assert.Equal(t, int64(2), tx.DestinationID)
	assert.Equal(t, "GoPay", tx.DestinationName)

	// A destination on a non-transfer is ignored.
	stray := base
	stray.DestinationID = 2
	tx, err = BuildTransaction("u1", stray, sampleAccounts())
	require.NoError(t, err)
	assert.False(t, tx.HasDestination())
}

func TestBuildTransactionWithdrawCashWithoutCashAccount(t *testing.T) {
	accounts := sampleAccounts()[:2]
	snapshot := append([]Account(nil), accounts...)
	d := TransactionDraft{
		Date:        NewDate(2024, 6, 15),
		Description: "atm",
		Category:    LabelTransfer,
		Subcategory: SubWithdrawCash,
		Amount:      dec("50000"),
		AccountID:   1,
	}

	tx, err := BuildTransaction("u1", d, accounts)
	require.ErrorIs(t, err, ErrNoCashAccount)
	assert.True(t, IsValidation(err))
	assert.Equal(t, Transaction{}, tx, "nothing to persist")
	assert.Equal(t, snapshot, accounts, "balances untouched")
}

func TestBuildTransactionValidation(t *testing.T) {
	good := TransactionDraft{
		Date:        NewDate(2024, 6, 15),
		Description: "x",
		Category:    LabelExpense,
		Subcategory: "Food",
		Amount:      dec("1"),
		AccountID:   1,
	}
	cases := []struct {
		name   string
		mutate func(*TransactionDraft)
		want   error
	}{
		{"zero date", func(d *TransactionDraft) { d.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(d *TransactionDraft) { d.Description = "  " }, ErrEmptyDescription},
		{"description too long", func(d *TransactionDraft) { d.Description = strings.Repeat("a", 201) }, ErrDescriptionTooLong},
		{"zero amount", func(d *TransactionDraft) { d.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(d *TransactionDraft) { d.Amount = dec("-5") }, ErrInvalidAmount},
		{"no category", func(d *TransactionDraft) { d.Category = "" }, ErrEmptyCategory},
		{"no subcategory", func(d *TransactionDraft) { d.Subcategory = "" }, ErrEmptySubcategory},
		{"no account", func(d *TransactionDraft) { d.AccountID = 0 }, ErrMissingAccount},
		{"unknown account", func(d *TransactionDraft) { d.AccountID = 42 }, ErrUnknownAccount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := good
			tc.mutate(&d)
			_, err := BuildTransaction("u1", d, sampleAccounts())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDescriptionLengthCountsCharacters(t *testing.T) {
	d := TransactionDraft{
		Date:        NewDate(2024, 6, 15),
		Description: strings.Repeat("é", 200),
		Category:    LabelExpense,
		Subcategory: "Food",
		Amount:      dec("1"),
		AccountID:   1,
	}
	require.NoError(t, d.Validate(), "200 two-byte runes fit")

	d.Description = strings.Repeat("日", 201)
	assert.ErrorIs(t, d.Validate(), ErrDescriptionTooLong)
}
