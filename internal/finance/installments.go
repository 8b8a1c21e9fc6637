package finance

import "github.com/shopspring/decimal"

// Installments describes a purchase split into equal monthly parts.
type Installments struct {
	Total float64
	Count int
	Paid  int
}

// InstallmentStatus is the derived state of an installment purchase.
type InstallmentStatus struct {
	InstallmentAmount     float64 `json:"installmentAmount"`
	RemainingInstallments int     `json:"remainingInstallments"`
	RemainingAmount       float64 `json:"remainingAmount"`
	Settled               bool    `json:"settled"`
}

// InstallmentCents is installment k (1-based) of total cents split into n
// parts. Parts differ by at most one cent and always add up to total.
func InstallmentCents(total int64, n, k int) int64 {
	return total*int64(k)/int64(n) - total*int64(k-1)/int64(n)
}

// Status splits Total into Count whole-cent parts and reports what is left
// after Paid of them. InstallmentAmount is the next part due, or the last
// one once the purchase is settled.
func (p Installments) Status() (InstallmentStatus, error) {
	if err := requirePositive("purchase total", p.Total); err != nil {
		return InstallmentStatus{}, err
	}
	if p.Count <= 0 {
		return InstallmentStatus{}, invalidf("installment count must be at least one")
	}
	if p.Paid < 0 || p.Paid > p.Count {
		return InstallmentStatus{}, invalidf("paid installments must be between 0 and %d", p.Count)
	}
	total := decimal.NewFromFloat(p.Total).Round(2).Shift(2).IntPart()
	if total < 1 {
		return InstallmentStatus{}, invalidf("purchase total must be at least one cent")
	}

	left := p.Count - p.Paid
	paid := total * int64(p.Paid) / int64(p.Count)
	return InstallmentStatus{
		InstallmentAmount:     centsToFloat(InstallmentCents(total, p.Count, min(p.Paid+1, p.Count))),
		RemainingInstallments: left,
		RemainingAmount:       centsToFloat(total - paid),
		Settled:               left == 0,
	}, nil
}

func centsToFloat(c int64) float64 {
	v, _ := decimal.New(c, -2).Float64()
	return v
}

// CardTotalDebt sums the remaining amount of every purchase, in whole cents.
func CardTotalDebt(purchases []Installments) (float64, error) {
	var total decimal.Decimal
	for _, p := range purchases {
		st, err := p.Status()
		if err != nil {
			return 0, err
		}
		total = total.Add(decimal.NewFromFloat(st.RemainingAmount))
	}
	v, _ := total.Float64()
	return v, nil
}
