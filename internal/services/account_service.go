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

// AccountService manages the user's money containers.
type AccountService struct {
	store  storage.Store
	cache  Invalidator
	logger *log.Logger
}

func NewAccountService(store storage.Store, cache Invalidator, logger *log.Logger) *AccountService {
	return &AccountService{store: store, cache: orNoop(cache), logger: orDiscard(logger, log.ComponentAccount)}
}

// AccountInput carries the editable account fields. On update only non-nil
// fields change.
type AccountInput struct {
	Name    *string           `json:"name"`
	Type    *core.AccountType `json:"type"`
	Balance *decimal.Decimal  `json:"balance"`
	Savings *bool             `json:"savings"`
	Color   *string           `json:"color"`
}

func (s *AccountService) List(ctx context.Context, userID string) ([]core.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) Get(ctx context.Context, userID string, id int64) (core.Account, error) {
	a, err := s.store.GetAccount(ctx, userID, id)
	if err != nil {
		return core.Account{}, fmt.Errorf("load account %d: %w", id, err)
	}
	return a, nil
}

// Create stores a new account. The initial balance is also kept as the
// opening balance used by reconciliation.
func (s *AccountService) Create(ctx context.Context, userID string, in AccountInput) (core.Account, error) {
	a := core.Account{UserID: userID, Balance: decimal.Zero}
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		a.Type = *in.Type
	}
	if in.Balance != nil {
		a.Balance = in.Balance.Round(2)
	}
	if in.Savings != nil {
		a.Savings = *in.Savings
	}
	if in.Color != nil {
		a.Color = *in.Color
	}
	a.OpeningBalance = a.Balance
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	var created core.Account
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		if err := s.ensureUniqueName(ctx, g, userID, 0, a.Name); err != nil {
			return err
		}
		var err error
		created, err = g.InsertAccount(ctx, a)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Account created", log.FieldUserID, userID, log.FieldAccountID, created.ID, "type", created.Type)
	return created, nil
}

// Update edits an account. Renaming needs no transaction changes: rows link
// to accounts by id. A manual balance edit is stored as given and shows up
// as drift in reconciliation.
func (s *AccountService) Update(ctx context.Context, userID string, id int64, in AccountInput) (core.Account, error) {
	var updated core.Account
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		cur, err := g.GetAccount(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("load account %d: %w", id, err)
		}
		next := cur
		p := storage.AccountPatch{Type: in.Type, Savings: in.Savings, Color: in.Color}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			next.Name = name
			p.Name = &name
		}
		if in.Type != nil {
			next.Type = *in.Type
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if p.Name != nil && *p.Name != cur.Name {
			if err := s.ensureUniqueName(ctx, g, userID, id, *p.Name); err != nil {
				return err
			}
		}
		if in.Balance != nil {
			bal := in.Balance.Round(2)
			p.Balance = &bal
		}
		updated, err = g.UpdateAccount(ctx, userID, id, p)
		if err != nil {
			return fmt.Errorf("update account %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Account updated", log.FieldUserID, userID, log.FieldAccountID, id)
	return updated, nil
}

// Delete removes the account only. Its transactions stay and keep showing
// the stored account name.
func (s *AccountService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.store.DeleteAccount(ctx, userID, id); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Account deleted", log.FieldUserID, userID, log.FieldAccountID, id)
	return nil
}

// Stats reports the money that flowed through one account.
func (s *AccountService) Stats(ctx context.Context, userID string, id int64) (core.AccountStat, error) {
	if _, err := s.store.GetAccount(ctx, userID, id); err != nil {
		return core.AccountStat{}, fmt.Errorf("load account %d: %w", id, err)
	}
	txs, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{AccountID: id})
	if err != nil {
		return core.AccountStat{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.AccountStats(id, txs), nil
}

func (s *AccountService) ensureUniqueName(ctx context.Context, g storage.Gateway, userID string, selfID int64, name string) error {
	accounts, err := g.ListAccounts(ctx, userID)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.ID != selfID && strings.EqualFold(a.Name, name) {
			return core.Invalid("name", core.ErrDuplicateName)
		}
	}
	return nil
}
