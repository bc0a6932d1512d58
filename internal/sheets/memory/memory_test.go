package memory

import (
	"context"
	"errors"
	"testing"

	"brankas/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id int64, desc string) core.Transaction {
	return core.Transaction{
		ID:          id,
		UserID:      "u1",
		Date:        core.NewDate(2025, 3, 14),
		Description: desc,
		Category:    core.LabelExpense,
		Subcategory: "Food",
		Amount:      decimal.NewFromInt(-25000),
		AccountName: "BCA",
	}
}

func TestLedger_AppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := New()

	require.NoError(t, l.AppendTransaction(ctx, tx(1, "lunch")))
	require.NoError(t, l.AppendTransaction(ctx, tx(1, "lunch")))
	require.NoError(t, l.AppendTransaction(ctx, tx(2, "dinner")))

	assert.Equal(t, []string{"u1:1", "u1:2"}, l.Keys())
	rows := l.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-03-14", rows[0][1])
	assert.Equal(t, "lunch", rows[0][2])
	assert.Equal(t, "-25000.00", rows[0][5])
	assert.Equal(t, "BCA", rows[0][6])
}

func TestLedger_Remove(t *testing.T) {
	ctx := context.Background()
	l := New()
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, l.AppendTransaction(ctx, tx(i, "row")))
	}

	require.NoError(t, l.RemoveTransaction(ctx, "u1", 2))
	assert.Equal(t, []string{"u1:1", "u1:3"}, l.Keys())

	// missing rows and other users are ignored
	require.NoError(t, l.RemoveTransaction(ctx, "u1", 2))
	require.NoError(t, l.RemoveTransaction(ctx, "u2", 1))
	assert.Len(t, l.Rows(), 2)
}

func TestLedger_FailWith(t *testing.T) {
	ctx := context.Background()
	l := New()
	boom := errors.New("quota exceeded")

	l.FailWith(boom)
	assert.ErrorIs(t, l.AppendTransaction(ctx, tx(1, "x")), boom)
	assert.ErrorIs(t, l.RemoveTransaction(ctx, "u1", 1), boom)

	l.FailWith(nil)
	assert.NoError(t, l.AppendTransaction(ctx, tx(1, "x")))
}
