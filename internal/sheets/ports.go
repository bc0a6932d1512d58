package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"brankas/internal/core"
)

// Header is the first row of a ledger sheet.
var Header = []string{"Key", "Date", "Description", "Category", "Subcategory", "Amount", "Account", "Destination", "Struck"}

// Ports for outbound adapters.
type (
	// LedgerWriter mirrors committed transactions into an external ledger.
	// Both operations must be idempotent: events can be redelivered.
	LedgerWriter interface {
		AppendTransaction(ctx context.Context, t core.Transaction) error
		RemoveTransaction(ctx context.Context, userID string, id int64) error
	}
)

// RowKey identifies a transaction row across users sharing one sheet.
func RowKey(userID string, id int64) string {
	return userID + ":" + strconv.FormatInt(id, 10)
}

// ParseRowKey is the inverse of RowKey.
func ParseRowKey(key string) (userID string, id int64, err error) {
	i := strings.LastIndex(key, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("malformed row key %q", key)
	}
	id, err = strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed row key %q: %w", key, err)
	}
	return key[:i], id, nil
}

// Row renders a transaction in Header column order.
func Row(t core.Transaction) []any {
	struck := ""
	if t.Struck {
		struck = "x"
	}
	return []any{
		RowKey(t.UserID, t.ID),
		t.Date.String(),
		t.Description,
		t.Category,
		t.Subcategory,
		t.Amount.StringFixed(2),
		t.AccountName,
		t.DestinationName,
		struck,
	}
}
