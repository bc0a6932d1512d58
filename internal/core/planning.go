package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Goal struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Target      decimal.Decimal `json:"target"`
	Progress    decimal.Decimal `json:"progress"`
	Deadline    Date            `json:"deadline"`
	Description string          `json:"description,omitempty"`
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if !g.Target.IsPositive() {
		return invalid("target", ErrInvalidAmount)
	}
	if g.Progress.IsNegative() {
		return invalid("progress", ErrInvalidAmount)
	}
	return nil
}

type Debt struct {
	ID             int64           `json:"id"`
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	Total          decimal.Decimal `json:"total"`
	Remaining      decimal.Decimal `json:"remaining"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MinimumPayment decimal.Decimal `json:"minimum_payment"`
	DueDate        Date            `json:"due_date"`
	Description    string          `json:"description,omitempty"`
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if !d.Total.IsPositive() {
		return invalid("total", ErrInvalidAmount)
	}
	if d.Remaining.IsNegative() || d.Remaining.GreaterThan(d.Total) {
		return invalid("remaining", ErrInvalidAmount)
	}
	if d.InterestRate.IsNegative() || d.MinimumPayment.IsNegative() {
		return invalid("interest_rate", ErrInvalidAmount)
	}
	return nil
}

type Profile struct {
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	BirthDate Date      `json:"birth_date"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type Settings struct {
	UserID           string `json:"user_id"`
	Language         string `json:"language"`
	Theme            Theme  `json:"theme"`
	PayrollDate      int    `json:"payroll_date"`
	WarningThreshold int    `json:"budget_warning_threshold"`
}

// DefaultSettings is what a user gets before saving any preference.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:           userID,
		Language:         "en",
		Theme:            ThemeSystem,
		PayrollDate:      1,
		WarningThreshold: DefaultWarningThreshold,
	}
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.Language) == "" {
		return invalid("language", ErrInvalidSetting)
	}
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return invalid("theme", ErrInvalidSetting)
	}
	if s.PayrollDate < 1 || s.PayrollDate > 31 {
		return invalid("payroll_date", ErrInvalidSetting)
	}
	if s.WarningThreshold < 50 || s.WarningThreshold > 100 {
		return invalid("budget_warning_threshold", ErrInvalidSetting)
	}
	return nil
}

// PeriodOptions derives period boundaries from the settings.
func (s Settings) PeriodOptions() PeriodOptions {
	return PeriodOptions{PayrollDay: s.PayrollDate}
}
