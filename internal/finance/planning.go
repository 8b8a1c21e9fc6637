package finance

import (
	"math"
	"time"
)

// BudgetStatus is a budget limit compared against what was spent.
type BudgetStatus struct {
	Limit       float64 `json:"limit"`
	Spent       float64 `json:"spent"`
	Remaining   float64 `json:"remaining"`
	PercentUsed float64 `json:"percentUsed"`
	Exceeded    bool    `json:"exceeded"`
}

// BudgetUsage projects spent against limit. Remaining goes negative once
// the limit is exceeded.
func BudgetUsage(limit, spent float64) (BudgetStatus, error) {
	if err := requirePositive("budget limit", limit); err != nil {
		return BudgetStatus{}, err
	}
	if err := requireNonNegative("spent", spent); err != nil {
		return BudgetStatus{}, err
	}
	return BudgetStatus{
		Limit:       limit,
		Spent:       spent,
		Remaining:   limit - spent,
		PercentUsed: spent * 100 / limit,
		Exceeded:    spent > limit,
	}, nil
}

// GoalStatus is the progress of a savings goal.
type GoalStatus struct {
	Progress  float64 `json:"progress"`
	Remaining float64 `json:"remaining"`
	DaysLeft  int     `json:"daysLeft"`
	Completed bool    `json:"completed"`
	// MonthlyNeeded is what has to be saved per remaining month to hit the
	// deadline. Zero once completed or past due.
	MonthlyNeeded float64 `json:"monthlyNeeded"`
}

// GoalProgress reports how far current is from target. Progress is capped
// at 100. A zero deadline means the goal has none.
func GoalProgress(target, current float64, deadline, now time.Time) (GoalStatus, error) {
	if err := requirePositive("goal target", target); err != nil {
		return GoalStatus{}, err
	}
	if err := requireNonNegative("goal amount", current); err != nil {
		return GoalStatus{}, err
	}

	st := GoalStatus{
		Progress:  math.Min(100, current*100/target),
		Remaining: math.Max(0, target-current),
		Completed: current >= target,
	}
	if deadline.IsZero() {
		return st, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	due := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
	st.DaysLeft = int(due.Sub(today).Hours() / 24)

	if !st.Completed && st.DaysLeft > 0 {
		months := math.Ceil(float64(st.DaysLeft) / 30)
		st.MonthlyNeeded = st.Remaining / months
	}
	return st, nil
}
