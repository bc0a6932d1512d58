// This file implements the Strategy Pattern for reporting periods.
// Each period (daily, weekly, monthly, yearly) has its own strategy that
// knows where the period containing a reference time begins.

package core

import (
	"fmt"
	"time"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ParsePeriod accepts the four period names; empty input means monthly.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return PeriodMonthly, nil
	}
	p := Period(s)
	if _, ok := periodStrategies[p]; !ok {
		return "", invalid("period", ErrInvalidPeriod)
	}
	return p, nil
}

// PeriodOptions carries the user settings that shape period boundaries.
type PeriodOptions struct {
	// PayrollDay moves the monthly start to the most recent payroll day.
	// Values <= 1 keep the calendar month.
	PayrollDay int
}

// PeriodStarter is the strategy interface for period boundaries.
type PeriodStarter interface {
	// Start returns the first day of the period containing ref.
	Start(ref Date, opts PeriodOptions) Date
}

// DailyStart starts at midnight of the reference day.
type DailyStart struct{}

func (DailyStart) Start(ref Date, _ PeriodOptions) Date { return ref }

// WeeklyStart starts on the most recent Sunday on or before the reference day.
type WeeklyStart struct{}

func (WeeklyStart) Start(ref Date, _ PeriodOptions) Date {
	return Date{Time: ref.AddDate(0, 0, -int(ref.Weekday()))}
}

// MonthlyStart starts on the 1st, or on the latest payroll day reached.
type MonthlyStart struct{}

func (MonthlyStart) Start(ref Date, opts PeriodOptions) Date {
	y, m, d := ref.Date()
	if opts.PayrollDay <= 1 {
		return NewDate(y, int(m), 1)
	}
	payday := clampDay(y, m, opts.PayrollDay)
	if d >= payday {
		return NewDate(y, int(m), payday)
	}
	prev := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return NewDate(prev.Year(), int(prev.Month()), clampDay(prev.Year(), prev.Month(), opts.PayrollDay))
}

// YearlyStart starts on January 1.
type YearlyStart struct{}

func (YearlyStart) Start(ref Date, _ PeriodOptions) Date {
	return NewDate(ref.Year(), 1, 1)
}

func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

var periodStrategies = map[Period]PeriodStarter{
	PeriodDaily:   DailyStart{},
	PeriodWeekly:  WeeklyStart{},
	PeriodMonthly: MonthlyStart{},
	PeriodYearly:  YearlyStart{},
}

// GetPeriodStarter returns the strategy for p.
func GetPeriodStarter(p Period) (PeriodStarter, error) {
	s, ok := periodStrategies[p]
	if !ok {
		return nil, fmt.Errorf("unknown period: %s", p)
	}
	return s, nil
}

// PeriodStart returns the first day of the period containing ref.
// The reference time is read in its own location before truncation.
func PeriodStart(p Period, ref time.Time, opts PeriodOptions) (Date, error) {
	s, err := GetPeriodStarter(p)
	if err != nil {
		return Date{}, err
	}
	return s.Start(DateOf(ref), opts), nil
}

// MonthBounds returns the first and last day of ref's calendar month.
func MonthBounds(ref time.Time) (Date, Date) {
	y, m, _ := ref.Date()
	first := NewDate(y, int(m), 1)
	return first, Date{Time: first.AddDate(0, 1, -1)}
}
