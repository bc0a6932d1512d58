package storage

import (
	"context"
	"fmt"
	"time"
)

func (q *Queries) EnqueueEvent(ctx context.Context, e OutboxEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = q.now()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO event_outbox (event_id, kind, user_id, payload, status, attempts, last_error, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, '', ?)`,
		e.EventID, e.Kind, e.UserID, e.Payload, EventPending, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("enqueue event %s: %w", e.EventID, err)
	}
	return nil
}

// PendingEvents returns the oldest pending events first.
func (q *Queries) PendingEvents(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, event_id, kind, user_id, payload, status, attempts, last_error, created_at
		 FROM event_outbox WHERE status = ? ORDER BY id LIMIT ?`, EventPending, limit)
	if err != nil {
		return nil, fmt.Errorf("pending events: %w", err)
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		var (
			e       OutboxEvent
			created string
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.Kind, &e.UserID, &e.Payload, &e.Status, &e.Attempts,
			&e.LastError, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending events: %w", err)
	}
	return out, nil
}

func (q *Queries) MarkEventPublished(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE event_outbox SET status = ?, published_at = ? WHERE id = ?`,
		EventPublished, formatTime(q.now()), id)
	if err != nil {
		return fmt.Errorf("mark event %d published: %w", id, err)
	}
	return checkAffected(res)
}

func (q *Queries) MarkEventRetry(ctx context.Context, id int64, reason string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE event_outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`, reason, id)
	if err != nil {
		return fmt.Errorf("mark event %d retry: %w", id, err)
	}
	return checkAffected(res)
}

func (q *Queries) MarkEventFailed(ctx context.Context, id int64, reason string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE event_outbox SET status = ?, attempts = attempts + 1, last_error = ? WHERE id = ?`,
		EventFailed, reason, id)
	if err != nil {
		return fmt.Errorf("mark event %d failed: %w", id, err)
	}
	return checkAffected(res)
}

func (q *Queries) CleanupPublished(ctx context.Context, before time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM event_outbox WHERE status = ? AND published_at < ?`, EventPublished, formatTime(before))
	if err != nil {
		return fmt.Errorf("cleanup published events: %w", err)
	}
	return nil
}

func (q *Queries) RetryFailedEvents(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE event_outbox SET status = ?, attempts = 0 WHERE status = ?`, EventPending, EventFailed)
	if err != nil {
		return fmt.Errorf("retry failed events: %w", err)
	}
	return nil
}

func (q *Queries) OutboxStats(ctx context.Context) (OutboxStats, error) {
	var s OutboxStats
	err := q.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'published' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		 FROM event_outbox`).Scan(&s.Pending, &s.Published, &s.Failed)
	if err != nil {
		return OutboxStats{}, fmt.Errorf("outbox stats: %w", err)
	}
	return s, nil
}
