package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/storage/memory"
)

const testUser = "user-1"

type countingInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (c *countingInvalidator) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.users)
}

type fixture struct {
	store    *memory.Store
	inval    *countingInvalidator
	txs      *TransactionService
	accounts *AccountService
	bank     core.Account
	wallet   core.Account
	cash     core.Account
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

// newFixture seeds a bank account, an e-wallet and, when withCash is set, a
// cash account.
func newFixture(t *testing.T, withCash bool) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), inval: &countingInvalidator{}}
	f.txs = NewTransactionService(f.store, nil, f.inval, log.Discard())
	f.accounts = NewAccountService(f.store, f.inval, log.Discard())

	f.bank = f.mustAccount(t, "BCA", core.AccountBank, "1000000")
	f.wallet = f.mustAccount(t, "GoPay", core.AccountEWallet, "200000")
	if withCash {
		f.cash = f.mustAccount(t, "Cash", core.AccountCash, "50000")
	}
	f.store.ResetCalls()
	f.inval.users = nil
	return f
}

func (f *fixture) mustAccount(t *testing.T, name string, typ core.AccountType, balance string) core.Account {
	t.Helper()
	a, err := f.accounts.Create(context.Background(), testUser, AccountInput{
		Name:    ptr(name),
		Type:    ptr(typ),
		Balance: ptr(dec(balance)),
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) balance(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	a, err := f.store.GetAccount(context.Background(), testUser, id)
	require.NoError(t, err)
	return a.Balance
}

func (f *fixture) requireBalance(t *testing.T, id int64, want string) {
	t.Helper()
	got := f.balance(t, id)
	require.Truef(t, dec(want).Equal(got), "account %d balance: want %s, got %s", id, want, got)
}

func draft(category, sub, amount string, account int64) core.TransactionDraft {
	return core.TransactionDraft{
		Date:        core.NewDate(2024, 6, 15),
		Description: category + " " + sub,
		Category:    category,
		Subcategory: sub,
		Amount:      dec(amount),
		AccountID:   account,
	}
}

func transferDraft(sub, amount string, from, to int64) core.TransactionDraft {
	d := draft(core.LabelTransfer, sub, amount, from)
	d.DestinationID = to
	return d
}
