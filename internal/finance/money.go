package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoundCents rounds a monetary value to two decimals, half away from zero.
// Only presentation code should call it; calculations keep full precision.
func RoundCents(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}

// MonthBounds returns the first instant of t's month and the first instant
// of the following month, in t's location.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ParseMonthKey parses a YYYY-MM key into the first day of that month (UTC).
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return time.Time{}, invalidf("month %q must be formatted as YYYY-MM", key)
	}
	return t, nil
}

const ledgerMonth = 30 * 24 * time.Hour

// WholeMonthsBetween counts elapsed 30-day months from start to now.
// It never returns a negative count.
func WholeMonthsBetween(start, now time.Time) int {
	if !now.After(start) {
		return 0
	}
	return int(now.Sub(start) / ledgerMonth)
}
