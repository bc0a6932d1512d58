package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"brankas/internal/core"
)

// Account names come from the live accounts; the stored names only show
// once an account has been deleted.
const (
	transactionColumns = `t.id, t.user_id, t.date, t.description, t.category, t.subcategory, t.amount,
	t.account_id, COALESCE(src.name, t.account_name), t.destination_account_id,
	COALESCE(dst.name, t.destination_account_name), t.receipt_url, t.struck, t.created_at`

	transactionSource = `transactions t
	LEFT JOIN accounts src ON src.user_id = t.user_id AND src.id = t.account_id
	LEFT JOIN accounts dst ON dst.user_id = t.user_id AND dst.id = t.destination_account_id`
)

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		date    string
		dest    sql.NullInt64
		created string
	)
	err := s.Scan(&t.ID, &t.UserID, &date, &t.Description, &t.Category, &t.Subcategory, &t.Amount,
		&t.AccountID, &t.AccountName, &dest, &t.DestinationName,
		&t.ReceiptURL, &t.Struck, &created)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, err
	}
	if dest.Valid {
		t.DestinationID = dest.Int64
	}
	t.CreatedAt = parseTime(created)
	return t, nil
}

func (q *Queries) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	where := []string{"t.user_id = ?"}
	args := []any{userID}
	if f.AccountID > 0 {
		where = append(where, "(t.account_id = ? OR t.destination_account_id = ?)")
		args = append(args, f.AccountID, f.AccountID)
	}
	if f.Category != "" {
		where = append(where, "t.category = ?")
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		where = append(where, "t.date >= ?")
		args = append(args, formatDate(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "t.date <= ?")
		args = append(args, formatDate(f.To))
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM `+transactionSource+` WHERE `+strings.Join(where, " AND ")+
			` ORDER BY t.date DESC, t.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (q *Queries) GetTransaction(ctx context.Context, userID string, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM `+transactionSource+` WHERE t.user_id = ? AND t.id = ?`, userID, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, notFound(err))
	}
	return t, nil
}

func (q *Queries) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = q.now()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, date, description, category, subcategory, amount,
			account_id, account_name, destination_account_id, destination_account_name,
			receipt_url, struck, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, formatDate(t.Date), t.Description, t.Category, t.Subcategory, t.Amount,
		t.AccountID, t.AccountName, nullInt(t.DestinationID), t.DestinationName,
		t.ReceiptURL, t.Struck, formatTime(t.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (q *Queries) UpdateTransaction(ctx context.Context, userID string, id int64, p TransactionPatch) (core.Transaction, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Date != nil {
		add("date", formatDate(*p.Date))
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Subcategory != nil {
		add("subcategory", *p.Subcategory)
	}
	if p.Amount != nil {
		add("amount", *p.Amount)
	}
	if p.AccountID != nil {
		add("account_id", *p.AccountID)
	}
	if p.AccountName != nil {
		add("account_name", *p.AccountName)
	}
	if p.DestinationID != nil {
		add("destination_account_id", nullInt(*p.DestinationID))
	}
	if p.DestinationName != nil {
		add("destination_account_name", *p.DestinationName)
	}
	if p.ReceiptURL != nil {
		add("receipt_url", *p.ReceiptURL)
	}
	if p.Struck != nil {
		add("struck", *p.Struck)
	}
	if len(sets) > 0 {
		args = append(args, userID, id)
		res, err := q.db.ExecContext(ctx,
			`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND id = ?`, args...)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
		}
		if err := checkAffected(res); err != nil {
			return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
		}
	}
	return q.GetTransaction(ctx, userID, id)
}

func (q *Queries) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}
