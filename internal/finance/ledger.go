package finance

import (
	"math"
	"time"
)

// Payment is an amount paid towards a debt on a given date.
type Payment struct {
	Amount float64
	Date   time.Time
}

// LedgerSnapshot is the state of a third-party loan at a point in time.
type LedgerSnapshot struct {
	MonthsElapsed   int     `json:"monthsElapsed"`
	AccruedInterest float64 `json:"accruedInterest"`
	TotalOwed       float64 `json:"totalOwed"`
	TotalPaid       float64 `json:"totalPaid"`
	CurrentBalance  float64 `json:"currentBalance"`
	IsPaid          bool    `json:"isPaid"`
}

// ThirdPartyBalance computes what is still owed on an informal loan.
//
// Interest is simple: principal * rate * whole months elapsed since start,
// months being 30 days long. It is never re-applied to a growing balance.
// The balance is always derived from the full payment history.
func ThirdPartyBalance(principal, monthlyRatePercent float64, start time.Time, payments []Payment, now time.Time) (LedgerSnapshot, error) {
	if err := requirePositive("principal", principal); err != nil {
		return LedgerSnapshot{}, err
	}
	if err := requireNonNegative("monthly rate", monthlyRatePercent); err != nil {
		return LedgerSnapshot{}, err
	}

	var paid float64
	for idx, p := range payments {
		if !finite(p.Amount) || p.Amount <= 0 {
			return LedgerSnapshot{}, invalidf("payment %d must have a positive amount", idx+1)
		}
		paid += p.Amount
	}

	months := WholeMonthsBetween(start, now)
	accrued := principal * monthlyRatePercent * float64(months) / 100
	owed := principal + accrued
	balance := math.Max(0, owed-paid)

	return LedgerSnapshot{
		MonthsElapsed:   months,
		AccruedInterest: accrued,
		TotalOwed:       owed,
		TotalPaid:       paid,
		CurrentBalance:  balance,
		IsPaid:          balance <= 0,
	}, nil
}

// Rounded returns a copy with monetary fields rounded to cents.
func (s LedgerSnapshot) Rounded() LedgerSnapshot {
	s.AccruedInterest = RoundCents(s.AccruedInterest)
	s.TotalOwed = RoundCents(s.TotalOwed)
	s.TotalPaid = RoundCents(s.TotalPaid)
	s.CurrentBalance = RoundCents(s.CurrentBalance)
	return s
}
