package services

import (
	"context"
	"fmt"
	"io"

	"brankas/internal/amqp"
	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/objectstore"
	"brankas/internal/storage"
)

// TransactionService records money movements and keeps account balances in
// step with them. A transaction row, its balance legs and its outbox event
// are always written in one store transaction.
type TransactionService struct {
	store   storage.Store
	objects objectstore.Store
	cache   Invalidator
	logger  *log.Logger
}

func NewTransactionService(store storage.Store, objects objectstore.Store, cache Invalidator, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:   store,
		objects: objects,
		cache:   orNoop(cache),
		logger:  orDiscard(logger, log.ComponentTransaction),
	}
}

// Create validates and classifies the draft, then inserts it and applies its
// legs. A rejected draft causes no write.
func (s *TransactionService) Create(ctx context.Context, userID string, d core.TransactionDraft) (core.Transaction, error) {
	var created core.Transaction
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		accounts, err := g.ListAccounts(ctx, userID)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		tx, err := core.BuildTransaction(userID, d, accounts)
		if err != nil {
			return err
		}
		if created, err = g.InsertTransaction(ctx, tx); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if err := applyLegs(ctx, g, s.logger, userID, core.Legs(created), false); err != nil {
			return err
		}
		return enqueueEvent(ctx, g, amqp.EventCreated, userID, created, nil)
	})
	if err != nil {
		s.logFailure(ctx, log.OpCreate, userID, 0, err)
		return core.Transaction{}, err
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Transaction created", log.NewFields().
		WithUser(userID).
		WithTransaction(created.ID, string(created.Type()), created.Amount.String(), created.Category, created.Subcategory, created.AccountID, created.DestinationID).
		ToSlice()...)
	return created, nil
}

// Update replaces a transaction with a new draft. The old legs are reversed
// before the new legs are applied, so balances end up as if the edited
// transaction had been created that way. The struck flag and receipt are
// kept unless the draft sets a new receipt.
func (s *TransactionService) Update(ctx context.Context, userID string, id int64, d core.TransactionDraft) (core.Transaction, error) {
	var updated core.Transaction
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		old, err := g.GetTransaction(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", id, err)
		}
		accounts, err := g.ListAccounts(ctx, userID)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		next, err := core.BuildTransaction(userID, d, accounts)
		if err != nil {
			return err
		}
		next.ID = old.ID
		next.CreatedAt = old.CreatedAt
		next.Struck = old.Struck
		if next.ReceiptURL == "" {
			next.ReceiptURL = old.ReceiptURL
		}

		if err := applyLegs(ctx, g, s.logger, userID, core.Reverse(core.Legs(old)), true); err != nil {
			return err
		}
		if err := applyLegs(ctx, g, s.logger, userID, core.Legs(next), false); err != nil {
			return err
		}
		if updated, err = g.UpdateTransaction(ctx, userID, id, storage.ReplaceTransaction(next)); err != nil {
			return fmt.Errorf("update transaction %d: %w", id, err)
		}
		return enqueueEvent(ctx, g, amqp.EventUpdated, userID, updated, &old)
	})
	if err != nil {
		s.logFailure(ctx, log.OpUpdate, userID, id, err)
		return core.Transaction{}, err
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Transaction updated", log.NewFields().
		WithUser(userID).
		WithTransaction(updated.ID, string(updated.Type()), updated.Amount.String(), updated.Category, updated.Subcategory, updated.AccountID, updated.DestinationID).
		ToSlice()...)
	return updated, nil
}

// Delete removes a transaction and reverses exactly the legs it applied.
func (s *TransactionService) Delete(ctx context.Context, userID string, id int64) error {
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		old, err := g.GetTransaction(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", id, err)
		}
		if err := applyLegs(ctx, g, s.logger, userID, core.Reverse(core.Legs(old)), true); err != nil {
			return err
		}
		if err := g.DeleteTransaction(ctx, userID, id); err != nil {
			return fmt.Errorf("delete transaction %d: %w", id, err)
		}
		return enqueueEvent(ctx, g, amqp.EventDeleted, userID, old, nil)
	})
	if err != nil {
		s.logFailure(ctx, log.OpDelete, userID, id, err)
		return err
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldUserID, userID, log.FieldTxID, id)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID string, id int64) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction %d: %w", id, err)
	}
	return tx, nil
}

// ToggleStruck flips the struck marker. Balances are not touched.
func (s *TransactionService) ToggleStruck(ctx context.Context, userID string, id int64) (core.Transaction, error) {
	var updated core.Transaction
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		old, err := g.GetTransaction(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", id, err)
		}
		struck := !old.Struck
		if updated, err = g.UpdateTransaction(ctx, userID, id, storage.TransactionPatch{Struck: &struck}); err != nil {
			return fmt.Errorf("update transaction %d: %w", id, err)
		}
		return enqueueEvent(ctx, g, amqp.EventUpdated, userID, updated, &old)
	})
	if err != nil {
		s.logFailure(ctx, log.OpToggle, userID, id, err)
		return core.Transaction{}, err
	}
	s.cache.Invalidate(userID)
	s.logger.DebugContext(ctx, "Transaction struck toggled", log.FieldUserID, userID, log.FieldTxID, id, "struck", updated.Struck)
	return updated, nil
}

// UploadReceipt stores a receipt file and returns its public URL, to be set
// on a draft's ReceiptURL.
func (s *TransactionService) UploadReceipt(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error) {
	if s.objects == nil {
		return "", fmt.Errorf("receipt upload: no object store configured")
	}
	key := objectstore.ReceiptKey(userID, filename)
	if err := s.objects.Upload(ctx, key, r, contentType); err != nil {
		s.logger.ErrorContext(ctx, "Receipt upload failed", log.FieldUserID, userID, log.FieldObjectKey, key, log.FieldError, err)
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	s.logger.InfoContext(ctx, "Receipt uploaded", log.FieldUserID, userID, log.FieldObjectKey, key)
	return s.objects.PublicURL(key), nil
}

func (s *TransactionService) logFailure(ctx context.Context, op, userID string, id int64, err error) {
	fields := log.NewFields().WithUser(userID).WithOperation(op).WithError(err)
	if id > 0 {
		fields[log.FieldTxID] = id
	}
	if core.IsValidation(err) {
		s.logger.WarnContext(ctx, "Transaction rejected", fields.ToSlice()...)
		return
	}
	s.logger.ErrorContext(ctx, "Transaction operation failed", fields.ToSlice()...)
}
