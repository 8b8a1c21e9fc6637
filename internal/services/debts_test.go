package services

import (
	"context"
	"errors"
	"testing"

	"famfin/internal/amqp"
	"famfin/internal/core"
	"famfin/internal/finance"
	"famfin/internal/storage"
)

func TestLoanLifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	s, _ := newTestService(t, WithEvents(pub))
	ctx := context.Background()
	u := newUser(t, s, "loan@example.com")

	acc, err := s.CreateAccount(ctx, u.ID, core.Account{Name: "Checking", Type: core.Checking, Balance: core.Money{Cents: 500000}})
	if err != nil {
		t.Fatal(err)
	}

	l, err := s.CreateLoan(ctx, u.ID, core.Loan{
		Name:       "Car",
		Principal:  core.Money{Cents: 1200000},
		AnnualRate: 12,
		TermMonths: 12,
		StartDate:  core.NewDate(2025, 1, 31),
	})
	if err != nil {
		t.Fatal(err)
	}
	if l.MonthlyPayment.Cents != 106619 {
		t.Errorf("monthly payment = %s, want 1066.19", l.MonthlyPayment)
	}
	if l.RemainingBalance != l.Principal || l.Status != core.StatusActive {
		t.Errorf("new loan should owe its principal: %+v", l)
	}
	if l.EndDate.String() != "2026-01-31" {
		t.Errorf("end date = %s, want 2026-01-31", l.EndDate)
	}

	detail, err := s.GetLoan(ctx, u.ID, l.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.Amortization.Schedule) != 12 {
		t.Errorf("schedule shorter than the display window should be complete, got %d", len(detail.Amortization.Schedule))
	}
	if detail.Amortization.TotalInterest != 794.23 {
		t.Errorf("total interest = %v, want 794.23", detail.Amortization.TotalInterest)
	}
	head, err := s.GetLoan(ctx, u.ID, l.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(head.Amortization.Schedule) != 3 || head.Amortization.Schedule[0].Interest != 120 {
		t.Errorf("unexpected schedule head %+v", head.Amortization.Schedule)
	}

	res, err := s.PayLoan(ctx, u.ID, l.ID, LoanPaymentRequest{Amount: l.MonthlyPayment, AccountID: &acc.ID})
	if err != nil {
		t.Fatal(err)
	}
	if res.Loan.RemainingBalance.Cents != 1200000-106619 || res.Posted == nil {
		t.Fatalf("unexpected payment result %+v", res)
	}
	if kinds := pub.kinds(); len(kinds) != 1 || kinds[0] != amqp.EventTransactionCreated {
		t.Errorf("posted payment should publish one created event, got %v", kinds)
	}
	accounts, _ := s.ListAccounts(ctx, u.ID)
	if accounts[0].Balance.Cents != 500000-106619 {
		t.Errorf("account balance = %d", accounts[0].Balance.Cents)
	}

	res, err = s.PayLoan(ctx, u.ID, l.ID, LoanPaymentRequest{Amount: core.Money{Cents: 5000000}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Loan.Status != core.StatusPaid || res.Applied.Cents != 1200000-106619 || res.Posted != nil {
		t.Fatalf("overpayment should be capped and settle the loan: %+v", res)
	}
	if _, err := s.PayLoan(ctx, u.ID, l.ID, LoanPaymentRequest{Amount: core.Money{Cents: 100}}); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("paying a settled loan should conflict, got %v", err)
	}
	if _, err := s.PayLoan(ctx, u.ID, l.ID, LoanPaymentRequest{}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero payment should be rejected, got %v", err)
	}
}

func TestCreateLoanRejectsInvalidTerms(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	u := newUser(t, s, "terms@example.com")

	tests := []struct {
		name    string
		loan    core.Loan
		wantErr error
	}{
		{"zero term", core.Loan{Name: "x", Principal: core.Money{Cents: 100}, TermMonths: 0}, core.ErrValidation},
		{"negative rate", core.Loan{Name: "x", Principal: core.Money{Cents: 100}, AnnualRate: -1, TermMonths: 12}, core.ErrValidation},
		{"term too long", core.Loan{Name: "x", Principal: core.Money{Cents: 100}, TermMonths: finance.MaxTermMonths + 1}, finance.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateLoan(ctx, u.ID, tt.loan); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateLoan() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestThirdPartyLedgerFollowsPayments(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	u := newUser(t, s, "ledger@example.com")

	// 65 days before the test clock: two whole 30-day months.
	l, err := s.CreateThirdPartyLoan(ctx, u.ID, core.ThirdPartyLoan{
		Lender:      "Uncle Joe",
		Principal:   core.Money{Cents: 100000},
		MonthlyRate: 2,
		StartDate:   core.NewDate(2025, 1, 9),
	})
	if err != nil {
		t.Fatal(err)
	}
	if l.Ledger.MonthsElapsed != 2 || l.CurrentBalance.Cents != 104000 {
		t.Fatalf("unexpected ledger on create: %+v", l)
	}

	l, err = s.AddThirdPartyPayment(ctx, u.ID, l.ID, core.ThirdPartyPayment{Amount: core.Money{Cents: 50000}, Date: core.NewDate(2025, 3, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if l.CurrentBalance.Cents != 54000 || len(l.Payments) != 1 {
		t.Fatalf("balance after payment = %s, payments %d", l.CurrentBalance, len(l.Payments))
	}

	stored, err := s.store.GetThirdPartyLoan(ctx, u.ID, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.CurrentBalance.Cents != 54000 {
		t.Errorf("stored snapshot = %s, want 540.00", stored.CurrentBalance)
	}

	l, err = s.AddThirdPartyPayment(ctx, u.ID, l.ID, core.ThirdPartyPayment{Amount: core.Money{Cents: 60000}})
	if err != nil {
		t.Fatal(err)
	}
	if !l.IsPaid || l.CurrentBalance.Cents != 0 {
		t.Fatalf("overpaid loan should be settled: %+v", l.ThirdPartyLoan)
	}

	l, err = s.DeleteThirdPartyPayment(ctx, u.ID, l.ID, l.Payments[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if l.IsPaid || l.CurrentBalance.Cents != 54000 {
		t.Fatalf("deleting a payment should restore the balance: %+v", l.ThirdPartyLoan)
	}

	if _, err := s.AddThirdPartyPayment(ctx, u.ID, l.ID, core.ThirdPartyPayment{Amount: core.Money{Cents: -1}}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("negative payment should be rejected, got %v", err)
	}

	list, err := s.ListThirdPartyLoans(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Ledger.AccruedInterest != 40 {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestCardDebtFromInstallments(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	u := newUser(t, s, "card@example.com")

	c, err := s.CreateCard(ctx, u.ID, core.CreditCard{
		Name: "Visa", Limit: core.Money{Cents: 500000}, ClosingDay: 5, DueDay: 12, MonthlyRate: 10,
	})
	if err != nil {
		t.Fatal(err)
	}

	p, err := s.CreatePurchase(ctx, u.ID, c.ID, core.CardPurchase{
		Description: "Laptop", Total: core.Money{Cents: 120000}, Installments: 12,
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.InstallmentAmount != 100 || p.RemainingAmount != 1200 || p.PurchaseDate.String() != "2025-03-15" {
		t.Fatalf("unexpected purchase %+v", p)
	}

	view, err := s.GetCard(ctx, u.ID, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.TotalDebt.Cents != 120000 || view.AvailableCredit.Cents != 380000 {
		t.Fatalf("unexpected card view %+v", view)
	}

	p, err = s.PayInstallment(ctx, u.ID, c.ID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.PaidInstallments != 1 || p.RemainingInstallments != 11 || p.RemainingAmount != 1100 {
		t.Fatalf("unexpected purchase after payment %+v", p)
	}

	cards, err := s.ListCards(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 || cards[0].TotalDebt.Cents != 110000 || cards[0].AvailableCredit.Cents != 390000 {
		t.Fatalf("unexpected cards %+v", cards)
	}

	other := newUser(t, s, "card-other@example.com")
	if _, err := s.ListPurchases(ctx, other.ID, c.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("listing another user's purchases should be not found, got %v", err)
	}
}

func TestCardDebtTracksBalanceOnUnevenSplit(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	u := newUser(t, s, "thirds@example.com")

	c, err := s.CreateCard(ctx, u.ID, core.CreditCard{
		Name: "Master", Limit: core.Money{Cents: 100000}, ClosingDay: 1, DueDay: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.CreatePurchase(ctx, u.ID, c.ID, core.CardPurchase{
		Description: "Headphones", Total: core.Money{Cents: 10000}, Installments: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i <= 3; i++ {
		view, err := s.GetCard(ctx, u.ID, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if view.TotalDebt != view.CurrentBalance {
			t.Fatalf("after %d installments: total debt %s, card balance %s", i, view.TotalDebt, view.CurrentBalance)
		}
		if i < 3 {
			if _, err := s.PayInstallment(ctx, u.ID, c.ID, p.ID); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestSimulatePayoffTargets(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	u := newUser(t, s, "payoff@example.com")

	l, err := s.CreateLoan(ctx, u.ID, core.Loan{
		Name: "Car", Principal: core.Money{Cents: 1200000}, AnnualRate: 12, TermMonths: 12,
	})
	if err != nil {
		t.Fatal(err)
	}
	c, err := s.CreateCard(ctx, u.ID, core.CreditCard{Name: "Visa", Limit: core.Money{Cents: 500000}, ClosingDay: 1, DueDay: 10, MonthlyRate: 10})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("stored loan", func(t *testing.T) {
		rep, err := s.SimulatePayoff(ctx, u.ID, PayoffRequest{
			Debt:           &DebtSelector{Kind: finance.DebtLoan, ID: l.ID},
			MonthlyPayment: 2000,
		})
		if err != nil {
			t.Fatal(err)
		}
		if rep.Debt.Kind != finance.DebtLoan || rep.Debt.Balance != 12000 || rep.Debt.MonthlyRatePercent != 1 {
			t.Errorf("unexpected target %+v", rep.Debt)
		}
		if !rep.PaidOff || rep.TotalMonths == 0 || len(rep.Alternatives) != len(finance.PayoffMultipliers) {
			t.Errorf("unexpected result %+v", rep.PayoffResult)
		}
	})

	t.Run("raw balance insufficient", func(t *testing.T) {
		_, err := s.SimulatePayoff(ctx, u.ID, PayoffRequest{Balance: 1000, MonthlyRate: 10, MonthlyPayment: 50})
		var ip *finance.InsufficientPaymentError
		if !errors.As(err, &ip) || ip.MinimumPayment != 110 {
			t.Fatalf("expected minimum payment 110, got %v", err)
		}
	})

	t.Run("card without debt", func(t *testing.T) {
		_, err := s.SimulatePayoff(ctx, u.ID, PayoffRequest{Debt: &DebtSelector{Kind: finance.DebtCard, ID: c.ID}, MonthlyPayment: 10})
		if !errors.Is(err, finance.ErrInvalidArgument) {
			t.Fatalf("expected invalid argument for an empty card, got %v", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := s.SimulatePayoff(ctx, u.ID, PayoffRequest{Debt: &DebtSelector{Kind: "mortgage", ID: 1}, MonthlyPayment: 10})
		if !errors.Is(err, finance.ErrInvalidArgument) {
			t.Fatalf("expected invalid argument, got %v", err)
		}
	})

	t.Run("another user's loan", func(t *testing.T) {
		other := newUser(t, s, "payoff-other@example.com")
		_, err := s.SimulatePayoff(ctx, other.ID, PayoffRequest{Debt: &DebtSelector{Kind: finance.DebtLoan, ID: l.ID}, MonthlyPayment: 2000})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestHealthReportCountsEveryDebt(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	u := newUser(t, s, "health@example.com")

	if _, err := s.CreateTransaction(ctx, u.ID, core.Transaction{
		Type: core.Income, Category: "salary", Amount: core.Money{Cents: 1000000}, Method: core.MethodTransfer,
	}); err != nil {
		t.Fatal(err)
	}

	rep, err := s.Health(ctx, u.ID, "2025-03")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Score.Band != finance.BandExcellent {
		t.Fatalf("no debt and full savings should be excellent, got %+v", rep.Score)
	}

	if _, err := s.CreateLoan(ctx, u.ID, core.Loan{Name: "Car", Principal: core.Money{Cents: 200000}, AnnualRate: 12, TermMonths: 12}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateThirdPartyLoan(ctx, u.ID, core.ThirdPartyLoan{
		Lender: "Uncle Joe", Principal: core.Money{Cents: 100000}, StartDate: core.NewDate(2025, 3, 1),
	}); err != nil {
		t.Fatal(err)
	}
	c, err := s.CreateCard(ctx, u.ID, core.CreditCard{Name: "Visa", Limit: core.Money{Cents: 500000}, ClosingDay: 1, DueDay: 10})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreatePurchase(ctx, u.ID, c.ID, core.CardPurchase{Description: "Phone", Total: core.Money{Cents: 100000}, Installments: 4}); err != nil {
		t.Fatal(err)
	}

	rep, err = s.Health(ctx, u.ID, "2025-03")
	if err != nil {
		t.Fatal(err)
	}
	want := DebtBreakdown{Loans: 2000, ThirdParty: 1000, Cards: 1000, Total: 4000}
	if rep.Debt != want {
		t.Fatalf("debt = %+v, want %+v", rep.Debt, want)
	}
	if rep.Score.Band != finance.BandAttention || rep.Score.DebtRatio != 40 {
		t.Errorf("40%% debt ratio should need attention, got %+v", rep.Score)
	}
}
