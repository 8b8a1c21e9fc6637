package services

// This file holds one dueness strategy per fixed-expense frequency. A
// strategy knows the billing period containing a date and when the expense
// falls due inside that period.

import (
	"fmt"
	"time"

	"famfin/internal/core"
)

// DuenessChecker is the strategy interface for fixed-expense periods.
type DuenessChecker interface {
	// PeriodStart returns the first day of the period containing day.
	PeriodStart(day time.Time) time.Time
	// NextPeriod returns the first day of the period after the one starting at start.
	NextPeriod(start time.Time) time.Time
	// DueDate returns when fe falls due in the period starting at start.
	DueDate(fe core.FixedExpense, start time.Time) time.Time
}

// MonthlyChecker implements DuenessChecker for monthly fixed expenses.
type MonthlyChecker struct{}

func (MonthlyChecker) PeriodStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (MonthlyChecker) NextPeriod(start time.Time) time.Time {
	return start.AddDate(0, 1, 0)
}

// DueDate clamps the due day to the end of short months.
func (MonthlyChecker) DueDate(fe core.FixedExpense, start time.Time) time.Time {
	return clampedDate(start.Year(), start.Month(), fe.DueDay)
}

// YearlyChecker implements DuenessChecker for yearly fixed expenses.
type YearlyChecker struct{}

func (YearlyChecker) PeriodStart(day time.Time) time.Time {
	return time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

func (YearlyChecker) NextPeriod(start time.Time) time.Time {
	return start.AddDate(1, 0, 0)
}

// DueDate falls on DueMonth, with the day clamped like MonthlyChecker.
func (YearlyChecker) DueDate(fe core.FixedExpense, start time.Time) time.Time {
	return clampedDate(start.Year(), time.Month(fe.DueMonth), fe.DueDay)
}

// clampedDate handles target days that do not exist in month (e.g. Feb 31).
func clampedDate(year int, month time.Month, day int) time.Time {
	lastDayOfMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDayOfMonth {
		day = lastDayOfMonth
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the strategy for a frequency.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: unknown frequency %q", core.ErrInvalidFrequency, frequency)
	}
	return checker, nil
}

// Dueness is where a fixed expense stands on a given day.
type Dueness struct {
	// DueDate is the due date of the current period, or of the next one
	// once the current period is paid.
	DueDate core.Date `json:"dueDate"`
	Paid    bool      `json:"paid"`
	// Due is set from the due date until the period is paid.
	Due          bool `json:"due"`
	Overdue      bool `json:"overdue"`
	DaysUntilDue int  `json:"daysUntilDue"`
}

// FixedExpenseDueness evaluates fe on the calendar day of now. An expense
// is paid when its last payment falls inside the period containing that day.
func FixedExpenseDueness(fe core.FixedExpense, now time.Time) (Dueness, error) {
	checker, err := GetDuenessChecker(fe.Frequency)
	if err != nil {
		return Dueness{}, err
	}

	today := core.DateOf(now.UTC()).Time
	start := checker.PeriodStart(today)
	paid := !fe.LastPaid.IsEmpty() && !fe.LastPaid.Before(start)

	due := checker.DueDate(fe, start)
	if paid {
		due = checker.DueDate(fe, checker.NextPeriod(start))
	}

	return Dueness{
		DueDate:      core.Date{Time: due},
		Paid:         paid,
		Due:          !paid && !today.Before(due),
		Overdue:      !paid && today.After(due),
		DaysUntilDue: int(due.Sub(today).Hours() / 24),
	}, nil
}
