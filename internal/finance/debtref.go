package finance

import "time"

// DebtKind identifies which kind of debt a DebtRef points to.
type DebtKind string

const (
	DebtLoan       DebtKind = "loan"
	DebtThirdParty DebtKind = "third_party"
	DebtCard       DebtKind = "card"
)

// DebtTarget is what the payoff simulator needs from any debt.
type DebtTarget struct {
	Kind               DebtKind `json:"kind"`
	Name               string   `json:"name"`
	Balance            float64  `json:"balance"`
	MonthlyRatePercent float64  `json:"monthlyRate"`
}

// DebtRef is a closed set of debt shapes: LoanDebt, ThirdPartyDebt and
// CardDebt. Resolve collapses each into a DebtTarget.
type DebtRef interface {
	Resolve(now time.Time) (DebtTarget, error)
	debtRef()
}

// LoanDebt is an amortizing bank loan.
type LoanDebt struct {
	Name              string
	RemainingBalance  float64
	AnnualRatePercent float64
}

// ThirdPartyDebt is an informal loan accruing simple monthly interest.
type ThirdPartyDebt struct {
	Name               string
	Principal          float64
	MonthlyRatePercent float64
	StartDate          time.Time
	Payments           []Payment
}

// CardDebt is the outstanding installments of a credit card.
type CardDebt struct {
	Name               string
	Purchases          []Installments
	MonthlyRatePercent float64
}

func (LoanDebt) debtRef()       {}
func (ThirdPartyDebt) debtRef() {}
func (CardDebt) debtRef()       {}

func (d LoanDebt) Resolve(time.Time) (DebtTarget, error) {
	if err := requireNonNegative("remaining balance", d.RemainingBalance); err != nil {
		return DebtTarget{}, err
	}
	if err := requireNonNegative("annual rate", d.AnnualRatePercent); err != nil {
		return DebtTarget{}, err
	}
	return DebtTarget{
		Kind:               DebtLoan,
		Name:               d.Name,
		Balance:            d.RemainingBalance,
		MonthlyRatePercent: d.AnnualRatePercent / 12,
	}, nil
}

func (d ThirdPartyDebt) Resolve(now time.Time) (DebtTarget, error) {
	snap, err := ThirdPartyBalance(d.Principal, d.MonthlyRatePercent, d.StartDate, d.Payments, now)
	if err != nil {
		return DebtTarget{}, err
	}
	return DebtTarget{
		Kind:               DebtThirdParty,
		Name:               d.Name,
		Balance:            snap.CurrentBalance,
		MonthlyRatePercent: d.MonthlyRatePercent,
	}, nil
}

func (d CardDebt) Resolve(time.Time) (DebtTarget, error) {
	if err := requireNonNegative("monthly rate", d.MonthlyRatePercent); err != nil {
		return DebtTarget{}, err
	}
	total, err := CardTotalDebt(d.Purchases)
	if err != nil {
		return DebtTarget{}, err
	}
	return DebtTarget{
		Kind:               DebtCard,
		Name:               d.Name,
		Balance:            total,
		MonthlyRatePercent: d.MonthlyRatePercent,
	}, nil
}

// SimulateDebt resolves ref at now and runs SimulatePayoff against it.
func SimulateDebt(ref DebtRef, monthlyPayment float64, now time.Time) (DebtTarget, PayoffResult, error) {
	target, err := ref.Resolve(now)
	if err != nil {
		return DebtTarget{}, PayoffResult{}, err
	}
	if target.Balance <= 0 {
		return target, PayoffResult{}, invalidf("%s has nothing left to pay", target.Name)
	}
	res, err := SimulatePayoff(target.Balance, target.MonthlyRatePercent, monthlyPayment)
	return target, res, err
}
