package services

import (
	"context"
	"fmt"

	"famfin/internal/core"
	"famfin/internal/storage"
)

// FixedExpenseView is a fixed expense with its dueness today.
type FixedExpenseView struct {
	core.FixedExpense
	Dueness
}

func (s *Service) fixedExpenseView(fe core.FixedExpense) (FixedExpenseView, error) {
	d, err := FixedExpenseDueness(fe, s.now())
	if err != nil {
		return FixedExpenseView{}, err
	}
	return FixedExpenseView{FixedExpense: fe, Dueness: d}, nil
}

func (s *Service) CreateFixedExpense(ctx context.Context, userID int64, fe core.FixedExpense) (FixedExpenseView, error) {
	fe.ID = 0
	fe.UserID = userID
	if fe.Frequency == core.Monthly {
		fe.DueMonth = 0
	}
	if err := fe.Validate(); err != nil {
		return FixedExpenseView{}, err
	}
	fe, err := s.store.CreateFixedExpense(ctx, fe)
	if err != nil {
		return FixedExpenseView{}, err
	}
	s.invalidate(ctx, userID)
	return s.fixedExpenseView(fe)
}

func (s *Service) ListFixedExpenses(ctx context.Context, userID int64) ([]FixedExpenseView, error) {
	items, err := s.store.ListFixedExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]FixedExpenseView, 0, len(items))
	for _, fe := range items {
		v, err := s.fixedExpenseView(fe)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) DeleteFixedExpense(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteFixedExpense(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// PayFixedExpense posts the expense for the period containing on (default
// today) and stamps it paid. Paying twice in one period is a conflict.
func (s *Service) PayFixedExpense(ctx context.Context, userID, id int64, on core.Date) (core.Transaction, error) {
	fe, err := s.store.GetFixedExpense(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if on.IsEmpty() {
		on = s.today()
	}
	return s.payFixedExpense(ctx, fe, on)
}

func (s *Service) payFixedExpense(ctx context.Context, fe core.FixedExpense, on core.Date) (core.Transaction, error) {
	d, err := FixedExpenseDueness(fe, on.Time)
	if err != nil {
		return core.Transaction{}, err
	}
	if d.Paid {
		return core.Transaction{}, fmt.Errorf("%w: fixed expense %d is already paid for this period", storage.ErrConflict, fe.ID)
	}

	t := core.Transaction{
		UserID:      fe.UserID,
		Type:        core.Expense,
		Category:    fe.Category,
		Description: fe.Name,
		Amount:      fe.Amount,
		Date:        on,
		Method:      fe.Method,
		AccountID:   fe.AccountID,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t, err = s.store.PayFixedExpense(ctx, fe.UserID, fe.ID, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.posted(ctx, t)
	return t, nil
}
