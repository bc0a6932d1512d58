package storage

import (
	"context"
	"fmt"

	"brankas/internal/core"
)

func (q *Queries) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, name, target, progress, deadline, description
		 FROM goals WHERE user_id = ? ORDER BY deadline, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g        core.Goal
			deadline string
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Target, &g.Progress, &deadline, &g.Description); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.Deadline, err = parseDate(deadline); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

func (q *Queries) InsertGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, name, target, progress, deadline, description) VALUES (?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.Target, g.Progress, formatDate(g.Deadline), g.Description)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (q *Queries) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target = ?, progress = ?, deadline = ?, description = ?
		 WHERE user_id = ? AND id = ?`,
		g.Name, g.Target, g.Progress, formatDate(g.Deadline), g.Description, g.UserID, g.ID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", g.ID, err)
	}
	if err := checkAffected(res); err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", g.ID, err)
	}
	return g, nil
}

func (q *Queries) DeleteGoal(ctx context.Context, userID string, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return nil
}

func (q *Queries) ListDebts(ctx context.Context, userID string) ([]core.Debt, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, name, total, remaining, interest_rate, minimum_payment, due_date, description
		 FROM debts WHERE user_id = ? ORDER BY due_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		var (
			d   core.Debt
			due string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Total, &d.Remaining, &d.InterestRate,
			&d.MinimumPayment, &due, &d.Description); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		if d.DueDate, err = parseDate(due); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return out, nil
}

func (q *Queries) InsertDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO debts (user_id, name, total, remaining, interest_rate, minimum_payment, due_date, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UserID, d.Name, d.Total, d.Remaining, d.InterestRate, d.MinimumPayment, formatDate(d.DueDate), d.Description)
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}
	return d, nil
}

func (q *Queries) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE debts SET name = ?, total = ?, remaining = ?, interest_rate = ?, minimum_payment = ?,
		 due_date = ?, description = ? WHERE user_id = ? AND id = ?`,
		d.Name, d.Total, d.Remaining, d.InterestRate, d.MinimumPayment, formatDate(d.DueDate), d.Description,
		d.UserID, d.ID)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt %d: %w", d.ID, err)
	}
	if err := checkAffected(res); err != nil {
		return core.Debt{}, fmt.Errorf("update debt %d: %w", d.ID, err)
	}
	return d, nil
}

func (q *Queries) DeleteDebt(ctx context.Context, userID string, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM debts WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete debt %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete debt %d: %w", id, err)
	}
	return nil
}
