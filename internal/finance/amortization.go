package finance

import "math"

// MaxTermMonths bounds loan terms to a century of monthly installments.
const MaxTermMonths = 1200

// AmortizationPeriod is one month of a fixed-installment schedule.
type AmortizationPeriod struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Balance   float64 `json:"balance"`
}

// Amortization is a full Price (French) schedule for a fixed-rate loan.
type Amortization struct {
	Principal      float64              `json:"principal"`
	AnnualRate     float64              `json:"annualRate"`
	TermMonths     int                  `json:"termMonths"`
	MonthlyRate    float64              `json:"monthlyRate"`
	MonthlyPayment float64              `json:"monthlyPayment"`
	TotalPayment   float64              `json:"totalPayment"`
	TotalInterest  float64              `json:"totalInterest"`
	Schedule       []AmortizationPeriod `json:"schedule"`
}

// MonthlyPayment returns the fixed installment for principal at
// annualRatePercent over termMonths. A zero rate splits the principal evenly.
func MonthlyPayment(principal, annualRatePercent float64, termMonths int) (float64, error) {
	if err := validateLoanTerms(principal, annualRatePercent, termMonths); err != nil {
		return 0, err
	}
	return monthlyPayment(principal, annualRatePercent/100/12, termMonths), nil
}

func monthlyPayment(principal, i float64, n int) float64 {
	if i == 0 {
		return principal / float64(n)
	}
	return principal * i / -math.Expm1(-float64(n)*math.Log1p(i))
}

// discount returns (1+i)^-k. It underflows to zero instead of overflowing
// for long terms at high rates.
func discount(i float64, k int) float64 {
	return math.Exp(-float64(k) * math.Log1p(i))
}

// Amortize builds the complete month-by-month schedule. Values are kept at
// full precision; use Rounded for presentation.
func Amortize(principal, annualRatePercent float64, termMonths int) (Amortization, error) {
	if err := validateLoanTerms(principal, annualRatePercent, termMonths); err != nil {
		return Amortization{}, err
	}

	i := annualRatePercent / 100 / 12
	payment := monthlyPayment(principal, i, termMonths)

	schedule := make([]AmortizationPeriod, 0, termMonths)
	balance := principal
	for month := 1; month <= termMonths; month++ {
		var interest, principalPaid float64
		due := payment
		switch {
		case month == termMonths:
			// The last installment settles whatever rounding left over.
			interest = balance * i
			principalPaid = balance
			due = interest + principalPaid
		case i == 0:
			principalPaid = payment
		default:
			// Taken from the closed form rather than payment - balance*i,
			// which cancels to zero once (1+i)^n outgrows float64 precision.
			principalPaid = payment * discount(i, termMonths-month+1)
			interest = payment - principalPaid
		}
		balance = max(balance-principalPaid, 0)
		schedule = append(schedule, AmortizationPeriod{
			Month:     month,
			Payment:   due,
			Interest:  interest,
			Principal: principalPaid,
			Balance:   balance,
		})
	}

	total := payment * float64(termMonths)
	return Amortization{
		Principal:      principal,
		AnnualRate:     annualRatePercent,
		TermMonths:     termMonths,
		MonthlyRate:    i * 100,
		MonthlyPayment: payment,
		TotalPayment:   total,
		TotalInterest:  total - principal,
		Schedule:       schedule,
	}, nil
}

// Head returns at most the first k periods of the schedule.
func (a Amortization) Head(k int) []AmortizationPeriod {
	if k < 0 || k >= len(a.Schedule) {
		return a.Schedule
	}
	return a.Schedule[:k]
}

// Rounded returns a copy with every monetary field rounded to cents.
func (a Amortization) Rounded() Amortization {
	out := a
	out.MonthlyPayment = RoundCents(a.MonthlyPayment)
	out.TotalPayment = RoundCents(a.TotalPayment)
	out.TotalInterest = RoundCents(a.TotalInterest)
	out.Schedule = make([]AmortizationPeriod, len(a.Schedule))
	for idx, p := range a.Schedule {
		out.Schedule[idx] = AmortizationPeriod{
			Month:     p.Month,
			Payment:   RoundCents(p.Payment),
			Interest:  RoundCents(p.Interest),
			Principal: RoundCents(p.Principal),
			Balance:   RoundCents(p.Balance),
		}
	}
	return out
}

func validateLoanTerms(principal, annualRatePercent float64, termMonths int) error {
	if err := requirePositive("principal", principal); err != nil {
		return err
	}
	if err := requireNonNegative("annual rate", annualRatePercent); err != nil {
		return err
	}
	if termMonths <= 0 {
		return invalidf("term must be at least one month")
	}
	if termMonths > MaxTermMonths {
		return invalidf("term cannot exceed %d months", MaxTermMonths)
	}
	return nil
}
