package memory

import (
	"context"
	"sync"

	"brankas/internal/core"
	"brankas/internal/sheets"
)

// Ledger is an in-memory LedgerWriter keeping rows in append order.
type Ledger struct {
	mu   sync.Mutex
	rows [][]any
	keys []string
	err  error
}

var _ sheets.LedgerWriter = (*Ledger)(nil)

func New() *Ledger { return &Ledger{} }

// FailWith makes every following call return err until reset with nil.
func (l *Ledger) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *Ledger) AppendTransaction(_ context.Context, t core.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	key := sheets.RowKey(t.UserID, t.ID)
	if l.index(key) >= 0 {
		return nil
	}
	l.keys = append(l.keys, key)
	l.rows = append(l.rows, sheets.Row(t))
	return nil
}

func (l *Ledger) RemoveTransaction(_ context.Context, userID string, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	i := l.index(sheets.RowKey(userID, id))
	if i < 0 {
		return nil
	}
	l.keys = append(l.keys[:i], l.keys[i+1:]...)
	l.rows = append(l.rows[:i], l.rows[i+1:]...)
	return nil
}

// Rows returns a copy of the ledger rows.
func (l *Ledger) Rows() [][]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]any, len(l.rows))
	for i, r := range l.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Keys returns the row keys in ledger order.
func (l *Ledger) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.keys...)
}

func (l *Ledger) index(key string) int {
	for i, k := range l.keys {
		if k == key {
			return i
		}
	}
	return -1
}
