package finance

// HealthBand classifies the debt and savings position of a household.
type HealthBand string

const (
	BandCritical   HealthBand = "critical"
	BandConcerning HealthBand = "concerning"
	BandAttention  HealthBand = "attention"
	BandControlled HealthBand = "controlled"
	BandHealthy    HealthBand = "healthy"
	BandSaving     HealthBand = "saving"
	BandExcellent  HealthBand = "excellent"
)

// HealthScore is the classification plus the ratios it was derived from.
type HealthScore struct {
	Band         HealthBand `json:"band"`
	Score        int        `json:"score"`
	Color        string     `json:"color"`
	Message      string     `json:"message"`
	DebtRatio    float64    `json:"debtRatio"`
	SavingsRatio float64    `json:"savingsRatio"`
}

type bandInfo struct {
	score   int
	color   string
	message string
}

var bands = map[HealthBand]bandInfo{
	BandCritical:   {1, "#dc2626", "Debt exceeds 70% of income. Stop new credit and renegotiate."},
	BandConcerning: {2, "#ea580c", "Debt is between 50% and 70% of income. Prioritize paying it down."},
	BandAttention:  {3, "#ca8a04", "Debt is between 30% and 50% of income. Keep an eye on new spending."},
	BandControlled: {4, "#2563eb", "Debt is under control."},
	BandHealthy:    {5, "#16a34a", "Finances are healthy."},
	BandSaving:     {6, "#059669", "No debt and saving 10-20% of income."},
	BandExcellent:  {7, "#047857", "No debt and saving more than 20% of income."},
}

// DebtRatio is totalDebt as a percentage of income. With no income any debt
// counts as 100%.
func DebtRatio(totalDebt, totalIncome float64) float64 {
	if totalIncome <= 0 {
		if totalDebt > 0 {
			return 100
		}
		return 0
	}
	return totalDebt * 100 / totalIncome
}

// ScoreHealth maps income, expenses and outstanding debt to a HealthBand.
//
// Bands by debt ratio: >70 critical, >50 concerning, >30 attention,
// >=10 controlled, <10 healthy. With no debt at all the savings ratio
// upgrades healthy to saving (10-20%) or excellent (>20%).
func ScoreHealth(totalIncome, totalExpenses, totalDebt float64) (HealthScore, error) {
	if err := requireNonNegative("income", totalIncome); err != nil {
		return HealthScore{}, err
	}
	if err := requireNonNegative("expenses", totalExpenses); err != nil {
		return HealthScore{}, err
	}
	if err := requireNonNegative("debt", totalDebt); err != nil {
		return HealthScore{}, err
	}

	ratio := DebtRatio(totalDebt, totalIncome)
	var savings float64
	if totalIncome > 0 {
		savings = (totalIncome - totalExpenses) * 100 / totalIncome
	}

	band := debtBand(ratio)
	if totalDebt == 0 {
		switch {
		case savings > 20:
			band = BandExcellent
		case savings >= 10:
			band = BandSaving
		}
	}

	info := bands[band]
	return HealthScore{
		Band:         band,
		Score:        info.score,
		Color:        info.color,
		Message:      info.message,
		DebtRatio:    ratio,
		SavingsRatio: savings,
	}, nil
}

func debtBand(ratio float64) HealthBand {
	switch {
	case ratio > 70:
		return BandCritical
	case ratio > 50:
		return BandConcerning
	case ratio > 30:
		return BandAttention
	case ratio >= 10:
		return BandControlled
	default:
		return BandHealthy
	}
}
