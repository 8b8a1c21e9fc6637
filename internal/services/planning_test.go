package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"famfin/internal/core"
	"famfin/internal/storage"
)

func TestBudgetsTrackSpending(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	u := newUser(t, s, "budget@example.com")

	b, err := s.CreateBudget(ctx, u.ID, core.Budget{Category: "food", Limit: core.Money{Cents: 40000}})
	if err != nil {
		t.Fatal(err)
	}
	if b.Month != "2025-03" {
		t.Errorf("month should default to the current month, got %q", b.Month)
	}
	if _, err := s.CreateBudget(ctx, u.ID, core.Budget{Category: "food", Month: "2025-13", Limit: core.Money{Cents: 1}}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("expected invalid month, got %v", err)
	}

	for _, tx := range []core.Transaction{
		{Type: core.Expense, Category: "food", Amount: core.Money{Cents: 10000}, Method: core.MethodCash},
		{Type: core.Expense, Category: "fun", Amount: core.Money{Cents: 99999}, Method: core.MethodCash},
		{Type: core.Expense, Category: "food", Amount: core.Money{Cents: 5000}, Method: core.MethodCash, Date: core.NewDate(2025, 2, 27)},
	} {
		if _, err := s.CreateTransaction(ctx, u.ID, tx); err != nil {
			t.Fatal(err)
		}
	}

	views, err := s.ListBudgets(ctx, u.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("expected one budget, got %d", len(views))
	}
	v := views[0]
	if v.Spent.Cents != 10000 || v.Remaining.Cents != 30000 || v.PercentUsed != 25 || v.Exceeded {
		t.Errorf("unexpected budget view %+v", v)
	}

	b.Limit = core.Money{Cents: 8000}
	if _, err := s.UpdateBudget(ctx, u.ID, b); err != nil {
		t.Fatal(err)
	}
	views, _ = s.ListBudgets(ctx, u.ID, "2025-03")
	if !views[0].Exceeded || views[0].Remaining.Cents != -2000 || views[0].PercentUsed != 125 {
		t.Errorf("lowered limit should be exceeded: %+v", views[0])
	}
}

func TestGoalContributions(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	u := newUser(t, s, "goal@example.com")

	g, err := s.CreateGoal(ctx, u.ID, core.Goal{
		Name: "Holiday", Target: core.Money{Cents: 300000}, Deadline: core.NewDate(2025, 6, 13),
	})
	if err != nil {
		t.Fatal(err)
	}
	if g.Status != core.StatusActive || g.DaysLeft != 90 || g.MonthlyNeeded != 1000 {
		t.Fatalf("unexpected new goal %+v", g)
	}

	g, err = s.ContributeGoal(ctx, u.ID, g.ID, core.Money{Cents: 150000})
	if err != nil {
		t.Fatal(err)
	}
	if g.Progress != 50 || g.Completed {
		t.Errorf("half way expected, got %+v", g.GoalStatus)
	}

	g, err = s.ContributeGoal(ctx, u.ID, g.ID, core.Money{Cents: 200000})
	if err != nil {
		t.Fatal(err)
	}
	if g.Status != core.StatusCompleted || g.Progress != 100 || g.Remaining != 0 || g.MonthlyNeeded != 0 {
		t.Errorf("goal should be completed and capped, got %+v", g)
	}

	if _, err := s.ContributeGoal(ctx, u.ID, g.ID, core.Money{}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero contribution should be rejected, got %v", err)
	}
	if _, err := s.ContributeGoal(ctx, u.ID, 9999, core.Money{Cents: 1}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPayFixedExpenseOncePerPeriod(t *testing.T) {
	pub := &recordingPublisher{}
	s, _ := newTestService(t, WithEvents(pub))
	ctx := context.Background()
	u := newUser(t, s, "fixed@example.com")

	acc, err := s.CreateAccount(ctx, u.ID, core.Account{Name: "Checking", Type: core.Checking, Balance: core.Money{Cents: 100000}})
	if err != nil {
		t.Fatal(err)
	}
	fe, err := s.CreateFixedExpense(ctx, u.ID, core.FixedExpense{
		Name: "Rent", Category: "housing", Amount: core.Money{Cents: 80000}, DueDay: 5,
		Frequency: core.Monthly, Method: core.MethodTransfer, AccountID: &acc.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !fe.Overdue || fe.DaysUntilDue != -10 {
		t.Fatalf("rent due on the 5th should be overdue on the 15th: %+v", fe.Dueness)
	}

	tx, err := s.PayFixedExpense(ctx, u.ID, fe.ID, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if tx.Type != core.Expense || tx.Amount.Cents != 80000 || tx.Category != "housing" || tx.Date.String() != "2025-03-15" {
		t.Errorf("unexpected posted transaction %+v", tx)
	}
	if _, err := s.PayFixedExpense(ctx, u.ID, fe.ID, core.Date{}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("second payment in the same month should conflict, got %v", err)
	}

	list, err := s.ListFixedExpenses(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !list[0].Paid || list[0].DueDate.String() != "2025-04-05" {
		t.Errorf("paid expense should point at next month: %+v", list[0].Dueness)
	}

	if _, err := s.PayFixedExpense(ctx, u.ID, fe.ID, core.NewDate(2025, 4, 2)); err != nil {
		t.Errorf("next period should be payable: %v", err)
	}
	accounts, _ := s.ListAccounts(ctx, u.ID)
	if accounts[0].Balance.Cents != 100000-2*80000 {
		t.Errorf("balance = %d", accounts[0].Balance.Cents)
	}
	if len(pub.kinds()) != 2 {
		t.Errorf("each payment should publish one event, got %v", pub.kinds())
	}
}

type recordingReminder struct {
	sent []int64
	err  error
}

func (r *recordingReminder) SendOverdueReminder(_ context.Context, _ core.User, fe core.FixedExpense, _ core.Date) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, fe.ID)
	return nil
}

func TestRecurringProcessor(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	u := newUser(t, s, "recurring@example.com")

	create := func(fe core.FixedExpense) core.FixedExpense {
		t.Helper()
		fe.Category = "bills"
		fe.Method = core.MethodDebit
		fe.Amount = core.Money{Cents: 5000}
		v, err := s.CreateFixedExpense(ctx, u.ID, fe)
		if err != nil {
			t.Fatal(err)
		}
		return v.FixedExpense
	}
	autoPaid := create(core.FixedExpense{Name: "Internet", DueDay: 10, Frequency: core.Monthly, AutoPay: true})
	overdue := create(core.FixedExpense{Name: "Gym", DueDay: 1, Frequency: core.Monthly})
	create(core.FixedExpense{Name: "Insurance", DueDay: 20, DueMonth: 11, Frequency: core.Yearly, AutoPay: true})
	create(core.FixedExpense{Name: "Phone", DueDay: 15, Frequency: core.Monthly})

	reminder := &recordingReminder{}
	p := NewRecurringProcessor(s, reminder)

	res, err := p.ProcessDueExpenses(ctx, testNow)
	if err != nil {
		t.Fatal(err)
	}
	want := ProcessResult{Checked: 4, Paid: 1, Reminded: 1}
	if res != want {
		t.Fatalf("first run = %+v, want %+v", res, want)
	}
	if len(reminder.sent) != 1 || reminder.sent[0] != overdue.ID {
		t.Errorf("expected a reminder for the gym only, got %v", reminder.sent)
	}

	txs, err := s.ListTransactions(ctx, u.ID, TransactionQuery{Month: "2025-03"})
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 || txs[0].Description != autoPaid.Name {
		t.Fatalf("expected one auto-paid transaction, got %+v", txs)
	}

	res, err = p.ProcessDueExpenses(ctx, testNow.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if res.Paid != 0 {
		t.Errorf("auto-pay must not run twice in one period, got %+v", res)
	}

	failing := NewRecurringProcessor(s, &recordingReminder{err: errors.New("smtp down")})
	res, err = failing.ProcessDueExpenses(ctx, testNow)
	if err != nil {
		t.Fatalf("reminder failures should not abort the run: %v", err)
	}
	if res.Failed != 1 {
		t.Errorf("expected one failure, got %+v", res)
	}

	if _, err := NewRecurringProcessor(nil, nil).ProcessDueExpenses(ctx, testNow); err == nil {
		t.Error("expected error for uninitialized processor")
	}
}
