// Package services runs the user-facing operations on top of the store.
// Every multi-row change goes through Store.WithTx.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brankas/internal/amqp"
	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/storage"
)

// Invalidator drops derived views for a user after a mutation.
type Invalidator interface {
	Invalidate(userID string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string) {}

func orNoop(inv Invalidator) Invalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

func orDiscard(l *log.Logger, component string) *log.Logger {
	if l == nil {
		l = log.Discard()
	}
	return l.WithComponent(component)
}

// clock is swapped in tests.
type clock func() time.Time

func systemClock() time.Time { return time.Now() }

// enqueueEvent writes a transaction event to the outbox through g, so it
// commits or rolls back with the change it describes.
func enqueueEvent(ctx context.Context, g storage.Gateway, kind amqp.EventKind, userID string, tx core.Transaction, prev *core.Transaction) error {
	ev := amqp.NewTransactionEvent(kind, userID, tx, prev)
	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("encode %s event: %w", kind, err)
	}
	return g.EnqueueEvent(ctx, storage.OutboxEvent{
		EventID: ev.ID,
		Kind:    string(kind),
		UserID:  userID,
		Payload: body,
	})
}

// applyLegs moves account balances by each leg, in order. Legs pointing at
// an account that no longer exists are skipped when tolerateMissing is set;
// deleted accounts leave dangling references behind.
func applyLegs(ctx context.Context, g storage.Gateway, logger *log.Logger, userID string, legs []core.Leg, tolerateMissing bool) error {
	for _, leg := range legs {
		acct, err := g.GetAccount(ctx, userID, leg.AccountID)
		if err != nil {
			if tolerateMissing && errors.Is(err, storage.ErrNotFound) {
				logger.WarnContext(ctx, "Skipping balance leg for missing account",
					log.FieldUserID, userID, log.FieldAccountID, leg.AccountID, log.FieldAmount, leg.Delta.String())
				continue
			}
			return fmt.Errorf("load account %d: %w", leg.AccountID, err)
		}
		balance := acct.Balance.Add(leg.Delta)
		if _, err := g.UpdateAccount(ctx, userID, acct.ID, storage.AccountPatch{Balance: &balance}); err != nil {
			return fmt.Errorf("update balance of account %d: %w", acct.ID, err)
		}
	}
	return nil
}
