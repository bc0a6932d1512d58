package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brankas/internal/core"
	"brankas/internal/storage"
)

func TestWithTxRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.InsertAccount(ctx, core.Account{UserID: "u1", Name: "BCA", Type: core.AccountBank, Balance: decimal.NewFromInt(100)})
	require.NoError(t, err)

	boom := errors.New("boom")
	s.FailOn("UpdateAccount", 2, boom)
	err = s.WithTx(ctx, func(g storage.Gateway) error {
		zero := decimal.Zero
		if _, err := g.UpdateAccount(ctx, "u1", a.ID, storage.AccountPatch{Balance: &zero}); err != nil {
			return err
		}
		_, err := g.UpdateAccount(ctx, "u1", a.ID, storage.AccountPatch{Balance: &zero})
		return err
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetAccount(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))
}

func TestTransactionAccountNamesFollowRename(t *testing.T) {
	ctx := context.Background()
	s := New()

	src, err := s.InsertAccount(ctx, core.Account{UserID: "u1", Name: "BCA", Type: core.AccountBank})
	require.NoError(t, err)
	dst, err := s.InsertAccount(ctx, core.Account{UserID: "u1", Name: "Wallet", Type: core.AccountCash})
	require.NoError(t, err)
	saved, err := s.InsertTransaction(ctx, core.Transaction{
		UserID: "u1", Date: core.NewDate(2024, 6, 15), Description: "ATM",
		Category: core.LabelTransfer, Subcategory: core.SubWithdrawCash, Amount: decimal.NewFromInt(-10),
		AccountID: src.ID, AccountName: src.Name, DestinationID: dst.ID, DestinationName: dst.Name,
	})
	require.NoError(t, err)

	name := "BCA Payroll"
	_, err = s.UpdateAccount(ctx, "u1", src.ID, storage.AccountPatch{Name: &name})
	require.NoError(t, err)
	require.NoError(t, s.DeleteAccount(ctx, "u1", dst.ID))

	got, err := s.GetTransaction(ctx, "u1", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "BCA Payroll", got.AccountName)
	assert.Equal(t, "Wallet", got.DestinationName, "deleted account keeps the stored name")
}

func TestCallCounting(t *testing.T) {
	ctx := context.Background()
	s := New()
	assert.Zero(t, s.TotalCalls())

	_, _ = s.ListAccounts(ctx, "u1")
	_, _ = s.ListAccounts(ctx, "u1")
	_, _ = s.GetSettings(ctx, "u1")
	assert.Equal(t, 2, s.Calls()["ListAccounts"])
	assert.Equal(t, 3, s.TotalCalls())

	s.ResetCalls()
	assert.Zero(t, s.TotalCalls())
}

func TestSeededCategoriesAreBuiltIn(t *testing.T) {
	ctx := context.Background()
	s := New()

	cats, err := s.ListCategories(ctx, "anyone")
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	for _, c := range cats {
		assert.True(t, c.Default)
		assert.Empty(t, c.UserID)
	}

	off := false
	_, err = s.UpdateCategory(ctx, "anyone", cats[0].ID, storage.CategoryPatch{Active: &off})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScopingAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	tx, err := s.InsertTransaction(ctx, core.Transaction{UserID: "u1", Date: core.NewDate(2024, 6, 1), Category: core.LabelIncome, Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)

	_, err = s.GetTransaction(ctx, "u2", tx.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "u2", tx.ID), storage.ErrNotFound)
	assert.NoError(t, s.DeleteTransaction(ctx, "u1", tx.ID))
}
