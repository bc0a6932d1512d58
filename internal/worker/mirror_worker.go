package worker

import (
	"context"
	"fmt"

	"brankas/internal/amqp"
	"brankas/internal/log"
	"brankas/internal/sheets"
	"brankas/internal/storage"
)

// MirrorWorker keeps the spreadsheet ledger in step with transaction events.
// Ledger writes are idempotent per transaction, so redelivered events are
// harmless.
type MirrorWorker struct {
	ledger sheets.LedgerWriter
	logger *log.Logger
}

func NewMirrorWorker(ledger sheets.LedgerWriter, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{ledger: ledger, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleEvent applies one event to the ledger. A returned error makes the
// consumer requeue the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	tx := ev.Transaction
	w.logger.DebugContext(ctx, "Processing transaction event",
		log.FieldEventID, ev.ID,
		"kind", ev.Kind,
		log.FieldUserID, ev.UserID,
		log.FieldTxID, tx.ID)

	switch ev.Kind {
	case amqp.EventCreated:
		if err := w.ledger.AppendTransaction(ctx, tx); err != nil {
			return fmt.Errorf("append transaction %d: %w", tx.ID, err)
		}
	case amqp.EventUpdated:
		// the row is rewritten so the sheet shows the edited values
		if err := w.ledger.RemoveTransaction(ctx, ev.UserID, tx.ID); err != nil {
			return fmt.Errorf("remove old row of transaction %d: %w", tx.ID, err)
		}
		if err := w.ledger.AppendTransaction(ctx, tx); err != nil {
			return fmt.Errorf("append transaction %d: %w", tx.ID, err)
		}
	case amqp.EventDeleted:
		if err := w.ledger.RemoveTransaction(ctx, ev.UserID, tx.ID); err != nil {
			return fmt.Errorf("remove transaction %d: %w", tx.ID, err)
		}
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event kind", log.FieldEventID, ev.ID, "kind", ev.Kind)
		return nil
	}

	w.logger.InfoContext(ctx, "Ledger mirrored",
		log.FieldEventID, ev.ID,
		"kind", ev.Kind,
		log.FieldUserID, ev.UserID,
		log.FieldTxID, tx.ID)
	return nil
}

// BackfillResult counts the rows written by Backfill.
type BackfillResult struct {
	Total  int
	Synced int
	Errors int
}

// Backfill appends every stored transaction of userID to the ledger, oldest
// first. Rows already present are left alone, so it can recover from missed
// events or a fresh sheet at any time.
func (w *MirrorWorker) Backfill(ctx context.Context, store storage.TransactionGateway, userID string) (BackfillResult, error) {
	txs, err := store.ListTransactions(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		return BackfillResult{}, fmt.Errorf("list transactions: %w", err)
	}
	res := BackfillResult{Total: len(txs)}
	for i := len(txs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := w.ledger.AppendTransaction(ctx, txs[i]); err != nil {
			w.logger.ErrorContext(ctx, "Failed to backfill transaction",
				log.FieldUserID, userID, log.FieldTxID, txs[i].ID, log.FieldError, err)
			res.Errors++
			continue
		}
		res.Synced++
	}
	w.logger.InfoContext(ctx, "Backfill completed",
		log.FieldUserID, userID,
		"total", res.Total,
		"synced", res.Synced,
		"errors", res.Errors)
	return res, nil
}
