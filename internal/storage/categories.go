package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"brankas/internal/core"
)

const categoryColumns = `id, user_id, name, type, parent_id, is_default, is_active`

func scanCategory(s rowScanner) (core.Category, error) {
	var (
		c      core.Category
		user   sql.NullString
		typ    string
		parent sql.NullInt64
	)
	if err := s.Scan(&c.ID, &user, &c.Name, &typ, &parent, &c.Default, &c.Active); err != nil {
		return core.Category{}, err
	}
	c.UserID = user.String
	c.Type = core.CategoryType(typ)
	c.ParentID = parent.Int64
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE user_id IS NULL OR user_id = ?
		 ORDER BY name COLLATE NOCASE, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (q *Queries) GetCategory(ctx context.Context, userID string, id int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND (user_id IS NULL OR user_id = ?)`, id, userID)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, notFound(err))
	}
	return c, nil
}

func (q *Queries) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type, parent_id, is_default, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullString(c.UserID), c.Name, string(c.Type), nullInt(c.ParentID), c.Default, c.Active, formatTime(q.now()))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// UpdateCategory only touches rows owned by the user; built-in rows are read-only.
func (q *Queries) UpdateCategory(ctx context.Context, userID string, id int64, p CategoryPatch) (core.Category, error) {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Active != nil {
		sets, args = append(sets, "is_active = ?"), append(args, *p.Active)
	}
	if len(sets) > 0 {
		args = append(args, userID, id)
		res, err := q.db.ExecContext(ctx,
			`UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND id = ?`, args...)
		if err != nil {
			return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
		}
		if err := checkAffected(res); err != nil {
			return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
		}
	}
	return q.GetCategory(ctx, userID, id)
}
