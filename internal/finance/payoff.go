package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// MaxPayoffMonths caps every simulation at thirty years.
	MaxPayoffMonths = 360
	// PayoffDisplayMonths is how many simulated months are returned.
	PayoffDisplayMonths = 24
)

// PayoffMultipliers are the alternative payment levels compared against the
// proposed payment.
var PayoffMultipliers = []float64{1.1, 1.25, 1.5, 2}

// PayoffMonth is one simulated month.
type PayoffMonth struct {
	Month            int     `json:"month"`
	Payment          float64 `json:"payment"`
	Interest         float64 `json:"interest"`
	Principal        float64 `json:"principal"`
	RemainingBalance float64 `json:"remainingBalance"`
}

// PayoffScenario summarizes a run at a scaled payment.
type PayoffScenario struct {
	Multiplier     float64 `json:"multiplier"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	Months         int     `json:"months"`
	TotalPaid      float64 `json:"totalPaid"`
	TotalInterest  float64 `json:"totalInterest"`
	PaidOff        bool    `json:"paidOff"`
	MonthsSaved    int     `json:"monthsSaved"`
	InterestSaved  float64 `json:"interestSaved"`
}

// PayoffResult is the outcome of SimulatePayoff. Totals always cover the
// whole run even though Schedule holds at most PayoffDisplayMonths entries.
type PayoffResult struct {
	Balance        float64          `json:"balance"`
	MonthlyRate    float64          `json:"monthlyRate"`
	MonthlyPayment float64          `json:"monthlyPayment"`
	TotalMonths    int              `json:"totalMonths"`
	TotalPaid      float64          `json:"totalPaid"`
	TotalInterest  float64          `json:"totalInterest"`
	PaidOff        bool             `json:"paidOff"`
	Schedule       []PayoffMonth    `json:"schedule"`
	Alternatives   []PayoffScenario `json:"alternatives"`
}

type payoffRun struct {
	months        int
	totalPaid     float64
	totalInterest float64
	paidOff       bool
	schedule      []PayoffMonth
}

// SimulatePayoff pays monthlyPayment against balance each month, accruing
// monthlyRatePercent interest first.
//
// Only the first month is checked for a payment that does not cover interest;
// in that case an *InsufficientPaymentError carrying a suggested minimum is
// returned. Later months are not re-checked.
func SimulatePayoff(balance, monthlyRatePercent, monthlyPayment float64) (PayoffResult, error) {
	if err := requirePositive("balance", balance); err != nil {
		return PayoffResult{}, err
	}
	if err := requireNonNegative("monthly rate", monthlyRatePercent); err != nil {
		return PayoffResult{}, err
	}
	if err := requirePositive("monthly payment", monthlyPayment); err != nil {
		return PayoffResult{}, err
	}

	firstInterest := balance * (monthlyRatePercent / 100)
	if firstInterest >= monthlyPayment {
		return PayoffResult{}, &InsufficientPaymentError{
			Payment:        monthlyPayment,
			Interest:       firstInterest,
			MinimumPayment: suggestedMinimum(firstInterest),
		}
	}

	base := runPayoff(balance, monthlyRatePercent, monthlyPayment, PayoffDisplayMonths)

	alternatives := make([]PayoffScenario, 0, len(PayoffMultipliers))
	for _, m := range PayoffMultipliers {
		payment := monthlyPayment * m
		alt := runPayoff(balance, monthlyRatePercent, payment, 0)
		alternatives = append(alternatives, PayoffScenario{
			Multiplier:     m,
			MonthlyPayment: payment,
			Months:         alt.months,
			TotalPaid:      alt.totalPaid,
			TotalInterest:  alt.totalInterest,
			PaidOff:        alt.paidOff,
			MonthsSaved:    base.months - alt.months,
			InterestSaved:  base.totalInterest - alt.totalInterest,
		})
	}

	return PayoffResult{
		Balance:        balance,
		MonthlyRate:    monthlyRatePercent,
		MonthlyPayment: monthlyPayment,
		TotalMonths:    base.months,
		TotalPaid:      base.totalPaid,
		TotalInterest:  base.totalInterest,
		PaidOff:        base.paidOff,
		Schedule:       base.schedule,
		Alternatives:   alternatives,
	}, nil
}

func runPayoff(balance, ratePercent, monthlyPayment float64, keep int) payoffRun {
	var run payoffRun
	if keep > 0 {
		run.schedule = make([]PayoffMonth, 0, keep)
	}
	for month := 1; month <= MaxPayoffMonths; month++ {
		interest := balance * (ratePercent / 100)
		balance += interest
		payment := math.Min(monthlyPayment, balance)
		balance -= payment

		run.months = month
		run.totalPaid += payment
		run.totalInterest += interest
		if len(run.schedule) < keep {
			run.schedule = append(run.schedule, PayoffMonth{
				Month:            month,
				Payment:          payment,
				Interest:         interest,
				Principal:        payment - interest,
				RemainingBalance: math.Max(0, balance),
			})
		}
		if balance <= 0 {
			run.paidOff = true
			break
		}
	}
	return run
}

// suggestedMinimum is ceil(interest * 1.1), computed in decimal so that
// values like 100 * 1.1 do not round up to 111.
func suggestedMinimum(interest float64) float64 {
	v, _ := decimal.NewFromFloat(interest).Mul(decimal.RequireFromString("1.1")).Ceil().Float64()
	return v
}

// Rounded returns a copy with monetary fields rounded to cents.
func (r PayoffResult) Rounded() PayoffResult {
	out := r
	out.TotalPaid = RoundCents(r.TotalPaid)
	out.TotalInterest = RoundCents(r.TotalInterest)
	out.Schedule = make([]PayoffMonth, len(r.Schedule))
	for idx, m := range r.Schedule {
		out.Schedule[idx] = PayoffMonth{
			Month:            m.Month,
			Payment:          RoundCents(m.Payment),
			Interest:         RoundCents(m.Interest),
			Principal:        RoundCents(m.Principal),
			RemainingBalance: RoundCents(m.RemainingBalance),
		}
	}
	out.Alternatives = make([]PayoffScenario, len(r.Alternatives))
	for idx, a := range r.Alternatives {
		a.MonthlyPayment = RoundCents(a.MonthlyPayment)
		a.TotalPaid = RoundCents(a.TotalPaid)
		a.TotalInterest = RoundCents(a.TotalInterest)
		a.InterestSaved = RoundCents(a.InterestSaved)
		out.Alternatives[idx] = a
	}
	return out
}
