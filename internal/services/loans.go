package services

import (
	"context"
	"fmt"

	"famfin/internal/core"
	"famfin/internal/finance"
	"famfin/internal/storage"
)

// ScheduleDisplayMonths is how many amortization periods a loan detail shows
// unless asked otherwise.
const ScheduleDisplayMonths = 24

// LoanDetail is a loan with the head of its amortization schedule.
type LoanDetail struct {
	core.Loan
	Amortization finance.Amortization `json:"amortization"`
}

// LoanPaymentRequest records a payment towards a loan. When AccountID is set
// the payment is also posted as an expense on that account.
type LoanPaymentRequest struct {
	Amount    core.Money `json:"amount"`
	Date      core.Date  `json:"date"`
	AccountID *int64     `json:"accountId,omitempty"`
}

// CreateLoan computes the fixed installment and end date of l and stores it.
func (s *Service) CreateLoan(ctx context.Context, userID int64, l core.Loan) (core.Loan, error) {
	l.ID = 0
	l.UserID = userID
	if l.StartDate.IsEmpty() {
		l.StartDate = s.today()
	}
	if err := l.Validate(); err != nil {
		return core.Loan{}, err
	}
	payment, err := finance.MonthlyPayment(l.Principal.Value(), l.AnnualRate, l.TermMonths)
	if err != nil {
		return core.Loan{}, err
	}

	if l.MonthlyPayment, err = core.MoneyFromFloat(payment); err != nil {
		return core.Loan{}, err
	}
	l.RemainingBalance = l.Principal
	l.EndDate = core.Date{Time: l.StartDate.AddDate(0, l.TermMonths, 0)}
	l.Status = core.StatusActive

	l, err = s.store.CreateLoan(ctx, l)
	if err != nil {
		return core.Loan{}, err
	}
	s.invalidate(ctx, userID)
	return l, nil
}

func (s *Service) ListLoans(ctx context.Context, userID int64) ([]core.Loan, error) {
	return s.store.ListLoans(ctx, userID)
}

// GetLoan returns the loan with the first months of its schedule, rounded to
// cents. months <= 0 selects ScheduleDisplayMonths.
func (s *Service) GetLoan(ctx context.Context, userID, id int64, months int) (LoanDetail, error) {
	l, err := s.store.GetLoan(ctx, userID, id)
	if err != nil {
		return LoanDetail{}, err
	}
	am, err := finance.Amortize(l.Principal.Value(), l.AnnualRate, l.TermMonths)
	if err != nil {
		return LoanDetail{}, err
	}
	if months <= 0 {
		months = ScheduleDisplayMonths
	}
	am.Schedule = am.Head(months)
	return LoanDetail{Loan: l, Amortization: am.Rounded()}, nil
}

func (s *Service) DeleteLoan(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteLoan(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// PayLoan lowers the remaining balance of a loan. Payments above the
// remaining balance are capped; the posted transaction carries the applied
// amount.
func (s *Service) PayLoan(ctx context.Context, userID, id int64, req LoanPaymentRequest) (storage.LoanPayment, error) {
	if err := req.Amount.Validate(); err != nil {
		return storage.LoanPayment{}, err
	}
	if req.Date.IsEmpty() {
		req.Date = s.today()
	}

	var post *core.Transaction
	if req.AccountID != nil {
		l, err := s.store.GetLoan(ctx, userID, id)
		if err != nil {
			return storage.LoanPayment{}, err
		}
		post = &core.Transaction{
			UserID:      userID,
			Type:        core.Expense,
			Category:    "loan",
			Description: fmt.Sprintf("Loan payment: %s", l.Name),
			Amount:      req.Amount,
			Date:        req.Date,
			Method:      core.MethodTransfer,
			AccountID:   req.AccountID,
		}
	}

	res, err := s.store.ApplyLoanPayment(ctx, userID, id, req.Amount, post)
	if err != nil {
		return storage.LoanPayment{}, err
	}
	if res.Posted != nil {
		s.posted(ctx, *res.Posted)
	} else {
		s.invalidate(ctx, userID)
	}
	return res, nil
}
