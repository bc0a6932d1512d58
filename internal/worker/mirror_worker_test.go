package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brankas/internal/amqp"
	"brankas/internal/core"
	"brankas/internal/log"
	sheetsmem "brankas/internal/sheets/memory"
	"brankas/internal/storage/memory"
)

func sampleTx(id int64, desc, amount string) core.Transaction {
	return core.Transaction{
		ID:          id,
		UserID:      "u1",
		Date:        core.NewDate(2024, 6, 15),
		Description: desc,
		Category:    core.LabelExpense,
		Subcategory: "Food",
		Amount:      decimal.RequireFromString(amount),
		AccountID:   1,
		AccountName: "BCA",
	}
}

func event(kind amqp.EventKind, tx core.Transaction, prev *core.Transaction) *amqp.TransactionEvent {
	return amqp.NewTransactionEvent(kind, tx.UserID, tx, prev)
}

func TestHandleEvent_Lifecycle(t *testing.T) {
	ledger := sheetsmem.New()
	w := NewMirrorWorker(ledger, log.Discard())
	ctx := context.Background()

	lunch := sampleTx(7, "Lunch", "-25000")
	require.NoError(t, w.HandleEvent(ctx, event(amqp.EventCreated, lunch, nil)))
	require.NoError(t, w.HandleEvent(ctx, event(amqp.EventCreated, sampleTx(8, "Dinner", "-40000"), nil)))
	assert.Equal(t, []string{"u1:7", "u1:8"}, ledger.Keys())

	// redelivery does not duplicate the row
	require.NoError(t, w.HandleEvent(ctx, event(amqp.EventCreated, lunch, nil)))
	assert.Len(t, ledger.Rows(), 2)

	edited := lunch
	edited.Amount = decimal.RequireFromString("-30000")
	edited.Struck = true
	require.NoError(t, w.HandleEvent(ctx, event(amqp.EventUpdated, edited, &lunch)))
	rows := ledger.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"u1:8", "u1:7"}, ledger.Keys())
	assert.Equal(t, "-30000.00", rows[1][5])
	assert.Equal(t, "x", rows[1][8])

	require.NoError(t, w.HandleEvent(ctx, event(amqp.EventDeleted, edited, nil)))
	assert.Equal(t, []string{"u1:8"}, ledger.Keys())

	// deleting twice is fine
	require.NoError(t, w.HandleEvent(ctx, event(amqp.EventDeleted, edited, nil)))
}

func TestHandleEvent_LedgerErrorRequeues(t *testing.T) {
	ledger := sheetsmem.New()
	w := NewMirrorWorker(ledger, nil)
	boom := errors.New("quota exceeded")
	ledger.FailWith(boom)

	err := w.HandleEvent(context.Background(), event(amqp.EventCreated, sampleTx(1, "Coffee", "-5000"), nil))
	assert.ErrorIs(t, err, boom)

	ledger.FailWith(nil)
	require.NoError(t, w.HandleEvent(context.Background(), event(amqp.EventCreated, sampleTx(1, "Coffee", "-5000"), nil)))
	assert.Len(t, ledger.Rows(), 1)
}

func TestHandleEvent_UnknownKindIsDropped(t *testing.T) {
	ledger := sheetsmem.New()
	w := NewMirrorWorker(ledger, nil)

	ev := event(amqp.EventCreated, sampleTx(1, "Coffee", "-5000"), nil)
	ev.Kind = "archived"
	assert.NoError(t, w.HandleEvent(context.Background(), ev))
	assert.Empty(t, ledger.Rows())
}

func TestBackfill(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	for _, tx := range []core.Transaction{
		sampleTx(0, "First", "-1"),
		sampleTx(0, "Second", "-2"),
		sampleTx(0, "Third", "-3"),
	} {
		_, err := store.InsertTransaction(ctx, tx)
		require.NoError(t, err)
	}
	ledger := sheetsmem.New()
	w := NewMirrorWorker(ledger, nil)

	res, err := w.Backfill(ctx, store, "u1")
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Total: 3, Synced: 3}, res)

	rows := ledger.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "First", rows[0][2], "oldest first")

	res, err = w.Backfill(ctx, store, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Synced)
	assert.Len(t, ledger.Rows(), 3, "already mirrored rows are skipped")

	ledger.FailWith(errors.New("offline"))
	res, err = w.Backfill(ctx, store, "u1")
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Total: 3, Errors: 3}, res)
}
