package storage

import (
	"context"
	"fmt"
	"strings"

	"brankas/internal/core"
)

const accountColumns = `id, user_id, name, type, balance, opening_balance, savings, color, created_at`

func scanAccount(s rowScanner) (core.Account, error) {
	var (
		a       core.Account
		typ     string
		created string
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.Name, &typ, &a.Balance, &a.OpeningBalance, &a.Savings, &a.Color, &created); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.CreatedAt = parseTime(created)
	return a, nil
}

func (q *Queries) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY name COLLATE NOCASE, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func (q *Queries) GetAccount(ctx context.Context, userID string, id int64) (core.Account, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? AND id = ?`, userID, id)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, notFound(err))
	}
	return a, nil
}

func (q *Queries) InsertAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = q.now()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, type, balance, opening_balance, savings, color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, string(a.Type), a.Balance, a.OpeningBalance, a.Savings, a.Color, formatTime(a.CreatedAt))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

func (q *Queries) UpdateAccount(ctx context.Context, userID string, id int64, p AccountPatch) (core.Account, error) {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Type != nil {
		sets, args = append(sets, "type = ?"), append(args, string(*p.Type))
	}
	if p.Balance != nil {
		sets, args = append(sets, "balance = ?"), append(args, *p.Balance)
	}
	if p.Savings != nil {
		sets, args = append(sets, "savings = ?"), append(args, *p.Savings)
	}
	if p.Color != nil {
		sets, args = append(sets, "color = ?"), append(args, *p.Color)
	}
	if len(sets) > 0 {
		args = append(args, userID, id)
		res, err := q.db.ExecContext(ctx,
			`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND id = ?`, args...)
		if err != nil {
			return core.Account{}, fmt.Errorf("update account %d: %w", id, err)
		}
		if err := checkAffected(res); err != nil {
			return core.Account{}, fmt.Errorf("update account %d: %w", id, err)
		}
	}
	return q.GetAccount(ctx, userID, id)
}

func (q *Queries) DeleteAccount(ctx context.Context, userID string, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}
