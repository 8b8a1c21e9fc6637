package services

import (
	"context"
	"strings"

	"famfin/internal/core"
	"famfin/internal/finance"
)

// BudgetView is a monthly budget compared against the month's expenses in
// its category.
type BudgetView struct {
	core.Budget
	Spent       core.Money `json:"spent"`
	Remaining   core.Money `json:"remaining"`
	PercentUsed float64    `json:"percentUsed"`
	Exceeded    bool       `json:"exceeded"`
}

// GoalView is a savings goal with its progress.
type GoalView struct {
	core.Goal
	finance.GoalStatus
}

func (s *Service) month(month string) string {
	if strings.TrimSpace(month) == "" {
		return finance.MonthKey(s.now().UTC())
	}
	return strings.TrimSpace(month)
}

func (s *Service) CreateBudget(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	b.ID = 0
	b.UserID = userID
	b.Month = s.month(b.Month)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	s.invalidate(ctx, userID)
	return b, nil
}

func (s *Service) UpdateBudget(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	b.UserID = userID
	b.Month = s.month(b.Month)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b, err := s.store.UpdateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	s.invalidate(ctx, userID)
	return b, nil
}

func (s *Service) DeleteBudget(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// ListBudgets returns the budgets of month (YYYY-MM, default current month)
// with what was spent against each.
func (s *Service) ListBudgets(ctx context.Context, userID int64, month string) ([]BudgetView, error) {
	rows, err := s.store.ListBudgets(ctx, userID, s.month(month))
	if err != nil {
		return nil, err
	}
	out := make([]BudgetView, 0, len(rows))
	for _, r := range rows {
		st, err := finance.BudgetUsage(r.Budget.Limit.Value(), r.Spent.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, BudgetView{
			Budget:      r.Budget,
			Spent:       r.Spent,
			Remaining:   r.Budget.Limit.Sub(r.Spent),
			PercentUsed: finance.RoundCents(st.PercentUsed),
			Exceeded:    st.Exceeded,
		})
	}
	return out, nil
}

func (s *Service) goalView(g core.Goal) (GoalView, error) {
	st, err := finance.GoalProgress(g.Target.Value(), g.Current.Value(), g.Deadline.Time, s.now())
	if err != nil {
		return GoalView{}, err
	}
	st.Progress = finance.RoundCents(st.Progress)
	st.Remaining = finance.RoundCents(st.Remaining)
	st.MonthlyNeeded = finance.RoundCents(st.MonthlyNeeded)
	return GoalView{Goal: g, GoalStatus: st}, nil
}

func (s *Service) CreateGoal(ctx context.Context, userID int64, g core.Goal) (GoalView, error) {
	g.ID = 0
	g.UserID = userID
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}
	g, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return GoalView{}, err
	}
	s.invalidate(ctx, userID)
	return s.goalView(g)
}

func (s *Service) ListGoals(ctx context.Context, userID int64) ([]GoalView, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		v, err := s.goalView(g)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ContributeGoal adds amount to a goal, completing it once the target is met.
func (s *Service) ContributeGoal(ctx context.Context, userID, id int64, amount core.Money) (GoalView, error) {
	if err := amount.Validate(); err != nil {
		return GoalView{}, err
	}
	g, err := s.store.ContributeGoal(ctx, userID, id, amount)
	if err != nil {
		return GoalView{}, err
	}
	s.invalidate(ctx, userID)
	return s.goalView(g)
}

func (s *Service) DeleteGoal(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}
