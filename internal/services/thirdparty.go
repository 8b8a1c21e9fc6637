package services

import (
	"context"

	"famfin/internal/core"
	"famfin/internal/finance"
)

// ThirdPartyDetail is an informal loan with its ledger recomputed at read
// time.
type ThirdPartyDetail struct {
	core.ThirdPartyLoan
	Ledger   finance.LedgerSnapshot   `json:"ledger"`
	Payments []core.ThirdPartyPayment `json:"payments"`
}

func (s *Service) snapshot(l core.ThirdPartyLoan, payments []core.ThirdPartyPayment) (finance.LedgerSnapshot, error) {
	return finance.ThirdPartyBalance(l.Principal.Value(), l.MonthlyRate, l.StartDate.Time, core.Payments(payments), s.now())
}

// ledger refreshes the stored balance snapshot from the full payment
// history. It runs inside the store's write transaction.
func (s *Service) ledger(l core.ThirdPartyLoan, payments []core.ThirdPartyPayment) (core.Money, bool, error) {
	snap, err := s.snapshot(l, payments)
	if err != nil {
		return core.Money{}, false, err
	}
	balance, err := core.MoneyFromFloat(snap.CurrentBalance)
	if err != nil {
		return core.Money{}, false, err
	}
	return balance, snap.IsPaid, nil
}

func (s *Service) thirdPartyDetail(ctx context.Context, l core.ThirdPartyLoan) (ThirdPartyDetail, error) {
	payments, err := s.store.ListThirdPartyPayments(ctx, l.UserID, l.ID)
	if err != nil {
		return ThirdPartyDetail{}, err
	}
	snap, err := s.snapshot(l, payments)
	if err != nil {
		return ThirdPartyDetail{}, err
	}
	snap = snap.Rounded()
	if l.CurrentBalance, err = core.MoneyFromFloat(snap.CurrentBalance); err != nil {
		return ThirdPartyDetail{}, err
	}
	l.IsPaid = snap.IsPaid
	return ThirdPartyDetail{ThirdPartyLoan: l, Ledger: snap, Payments: payments}, nil
}

func (s *Service) CreateThirdPartyLoan(ctx context.Context, userID int64, l core.ThirdPartyLoan) (ThirdPartyDetail, error) {
	l.ID = 0
	l.UserID = userID
	if l.StartDate.IsEmpty() {
		l.StartDate = s.today()
	}
	if err := l.Validate(); err != nil {
		return ThirdPartyDetail{}, err
	}
	balance, paid, err := s.ledger(l, nil)
	if err != nil {
		return ThirdPartyDetail{}, err
	}
	l.CurrentBalance, l.IsPaid = balance, paid

	l, err = s.store.CreateThirdPartyLoan(ctx, l)
	if err != nil {
		return ThirdPartyDetail{}, err
	}
	s.invalidate(ctx, userID)
	return s.thirdPartyDetail(ctx, l)
}

// ListThirdPartyLoans returns every informal loan with interest accrued up
// to now.
func (s *Service) ListThirdPartyLoans(ctx context.Context, userID int64) ([]ThirdPartyDetail, error) {
	loans, err := s.store.ListThirdPartyLoans(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ThirdPartyDetail, 0, len(loans))
	for _, l := range loans {
		d, err := s.thirdPartyDetail(ctx, l)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Service) GetThirdPartyLoan(ctx context.Context, userID, id int64) (ThirdPartyDetail, error) {
	l, err := s.store.GetThirdPartyLoan(ctx, userID, id)
	if err != nil {
		return ThirdPartyDetail{}, err
	}
	return s.thirdPartyDetail(ctx, l)
}

func (s *Service) DeleteThirdPartyLoan(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteThirdPartyLoan(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// AddThirdPartyPayment records a payment and recomputes the loan balance
// from its whole history.
func (s *Service) AddThirdPartyPayment(ctx context.Context, userID, loanID int64, p core.ThirdPartyPayment) (ThirdPartyDetail, error) {
	p.ID = 0
	if p.Date.IsEmpty() {
		p.Date = s.today()
	}
	if err := p.Validate(); err != nil {
		return ThirdPartyDetail{}, err
	}
	l, _, err := s.store.AddThirdPartyPayment(ctx, userID, loanID, p, s.ledger)
	if err != nil {
		return ThirdPartyDetail{}, err
	}
	s.invalidate(ctx, userID)
	return s.thirdPartyDetail(ctx, l)
}

// DeleteThirdPartyPayment removes a payment; the balance it had paid off is
// owed again.
func (s *Service) DeleteThirdPartyPayment(ctx context.Context, userID, loanID, paymentID int64) (ThirdPartyDetail, error) {
	l, err := s.store.DeleteThirdPartyPayment(ctx, userID, loanID, paymentID, s.ledger)
	if err != nil {
		return ThirdPartyDetail{}, err
	}
	s.invalidate(ctx, userID)
	return s.thirdPartyDetail(ctx, l)
}
