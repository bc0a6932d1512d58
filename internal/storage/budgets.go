package storage

import (
	"context"
	"fmt"

	"brankas/internal/core"
)

const budgetColumns = `id, user_id, category, subcategory, amount, period, start_date, end_date, is_active`

func scanBudget(s rowScanner) (core.Budget, error) {
	var (
		b          core.Budget
		start, end string
	)
	err := s.Scan(&b.ID, &b.UserID, &b.Category, &b.Subcategory, &b.Amount, &b.Period, &start, &end, &b.Active)
	if err != nil {
		return core.Budget{}, err
	}
	if b.StartDate, err = parseDate(start); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = parseDate(end); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (q *Queries) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY category, subcategory, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

func (q *Queries) GetBudget(ctx context.Context, userID string, id int64) (core.Budget, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND id = ?`, userID, id)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, notFound(err))
	}
	return b, nil
}

func (q *Queries) InsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category, subcategory, amount, period, start_date, end_date, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Category, b.Subcategory, b.Amount, b.Period, formatDate(b.StartDate), formatDate(b.EndDate), b.Active)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return b, nil
}

func (q *Queries) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE budgets SET category = ?, subcategory = ?, amount = ?, period = ?, start_date = ?, end_date = ?, is_active = ?
		 WHERE user_id = ? AND id = ?`,
		b.Category, b.Subcategory, b.Amount, b.Period, formatDate(b.StartDate), formatDate(b.EndDate), b.Active,
		b.UserID, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	if err := checkAffected(res); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	return b, nil
}

func (q *Queries) DeleteBudget(ctx context.Context, userID string, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}
