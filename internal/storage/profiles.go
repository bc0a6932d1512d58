package storage

import (
	"context"
	"fmt"

	"brankas/internal/core"
)

func (q *Queries) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	var (
		p                core.Profile
		birth, updatedAt string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT user_id, full_name, phone, location, birth_date, avatar_url, updated_at
		 FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.FullName, &p.Phone, &p.Location, &birth, &p.AvatarURL, &updatedAt)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", notFound(err))
	}
	if p.BirthDate, err = parseDate(birth); err != nil {
		return core.Profile{}, err
	}
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// SaveProfile inserts or replaces the user's profile.
func (q *Queries) SaveProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	p.UpdatedAt = q.now()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, phone, location, birth_date, avatar_url, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			full_name = excluded.full_name,
			phone = excluded.phone,
			location = excluded.location,
			birth_date = excluded.birth_date,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		p.UserID, p.FullName, p.Phone, p.Location, formatDate(p.BirthDate), p.AvatarURL, formatTime(p.UpdatedAt))
	if err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (q *Queries) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	var (
		s     core.Settings
		theme string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT user_id, language, theme, payroll_date, warning_threshold FROM settings WHERE user_id = ?`, userID).
		Scan(&s.UserID, &s.Language, &theme, &s.PayrollDate, &s.WarningThreshold)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", notFound(err))
	}
	s.Theme = core.Theme(theme)
	return s, nil
}

func (q *Queries) SaveSettings(ctx context.Context, s core.Settings) (core.Settings, error) {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO settings (user_id, language, theme, payroll_date, warning_threshold, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			language = excluded.language,
			theme = excluded.theme,
			payroll_date = excluded.payroll_date,
			warning_threshold = excluded.warning_threshold,
			updated_at = excluded.updated_at`,
		s.UserID, s.Language, string(s.Theme), s.PayrollDate, s.WarningThreshold, formatTime(q.now()))
	if err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return s, nil
}
