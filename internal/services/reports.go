package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"famfin/internal/core"
	"famfin/internal/finance"
	"famfin/internal/storage"
)

// TrendMonths is how many months the expense trend of a summary covers,
// the requested month included.
const TrendMonths = 6

// RecentTransactions is how many of the month's latest transactions the
// dashboard shows.
const RecentTransactions = 10

// DebtBreakdown splits outstanding debt by kind.
type DebtBreakdown struct {
	Loans      float64 `json:"loans"`
	ThirdParty float64 `json:"thirdParty"`
	Cards      float64 `json:"cards"`
	Total      float64 `json:"total"`
}

// HealthReport scores one month of income and expenses against everything
// still owed.
type HealthReport struct {
	Month    string              `json:"month"`
	Income   float64             `json:"income"`
	Expenses float64             `json:"expenses"`
	Debt     DebtBreakdown       `json:"debt"`
	Score    finance.HealthScore `json:"score"`
}

// SummaryReport groups one month of transactions plus the expense trend of
// the months leading up to it.
type SummaryReport struct {
	core.MonthSummary
	ExpensesByMonth []finance.Group `json:"expensesByMonth"`
}

// Dashboard gathers everything the home screen shows for one month.
type Dashboard struct {
	Month              string             `json:"month"`
	Accounts           []core.Account     `json:"accounts"`
	Summary            SummaryReport      `json:"summary"`
	Health             HealthReport       `json:"health"`
	Budgets            []BudgetView       `json:"budgets"`
	Goals              []GoalView         `json:"goals"`
	FixedExpenses      []FixedExpenseView `json:"fixedExpenses"`
	RecentTransactions []core.Transaction `json:"recentTransactions"`
}

func (s *Service) monthTransactions(ctx context.Context, userID int64, month string) ([]core.Transaction, error) {
	return s.ListTransactions(ctx, userID, TransactionQuery{Month: month})
}

// Debts totals every outstanding debt of the user: remaining loan balances,
// third-party balances accrued up to now and unpaid card installments.
func (s *Service) Debts(ctx context.Context, userID int64) (DebtBreakdown, error) {
	var out DebtBreakdown

	loans, err := s.store.ListLoans(ctx, userID)
	if err != nil {
		return DebtBreakdown{}, err
	}
	for _, l := range loans {
		if l.Status == core.StatusPaid {
			continue
		}
		out.Loans += l.RemainingBalance.Value()
	}

	third, err := s.store.ListThirdPartyLoans(ctx, userID)
	if err != nil {
		return DebtBreakdown{}, err
	}
	for _, l := range third {
		payments, err := s.store.ListThirdPartyPayments(ctx, userID, l.ID)
		if err != nil {
			return DebtBreakdown{}, err
		}
		snap, err := s.snapshot(l, payments)
		if err != nil {
			return DebtBreakdown{}, err
		}
		out.ThirdParty += snap.CurrentBalance
	}

	purchases, err := s.store.ListPurchases(ctx, userID, 0)
	if err != nil {
		return DebtBreakdown{}, err
	}
	if out.Cards, err = finance.CardTotalDebt(activePlans(purchases)); err != nil {
		return DebtBreakdown{}, err
	}

	out.Total = finance.RoundCents(out.Loans + out.ThirdParty + out.Cards)
	out.Loans = finance.RoundCents(out.Loans)
	out.ThirdParty = finance.RoundCents(out.ThirdParty)
	out.Cards = finance.RoundCents(out.Cards)
	return out, nil
}

// Health scores month (YYYY-MM, default current month).
func (s *Service) Health(ctx context.Context, userID int64, month string) (HealthReport, error) {
	month = s.month(month)
	return cached(s, reportKey(userID, "health", month), func() (HealthReport, error) {
		txs, err := s.monthTransactions(ctx, userID, month)
		if err != nil {
			return HealthReport{}, err
		}
		totals := core.Summarize(month, txs).Totals
		debt, err := s.Debts(ctx, userID)
		if err != nil {
			return HealthReport{}, err
		}
		score, err := finance.ScoreHealth(totals.Income, totals.Expenses, debt.Total)
		if err != nil {
			return HealthReport{}, err
		}
		score.DebtRatio = finance.RoundCents(score.DebtRatio)
		score.SavingsRatio = finance.RoundCents(score.SavingsRatio)
		return HealthReport{
			Month:    month,
			Income:   totals.Income,
			Expenses: totals.Expenses,
			Debt:     debt,
			Score:    score,
		}, nil
	})
}

// Summary groups month (YYYY-MM, default current month) by category and
// payment method, with the expense totals of the preceding months.
func (s *Service) Summary(ctx context.Context, userID int64, month string) (SummaryReport, error) {
	month = s.month(month)
	return cached(s, reportKey(userID, "summary", month), func() (SummaryReport, error) {
		first, err := finance.ParseMonthKey(month)
		if err != nil {
			return SummaryReport{}, err
		}
		_, end := finance.MonthBounds(first)
		from := first.AddDate(0, 1-TrendMonths, 0)

		txs, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{
			From: core.DateOf(from),
			To:   core.DateOf(end),
		})
		if err != nil {
			return SummaryReport{}, err
		}

		current := make([]core.Transaction, 0, len(txs))
		flows := make([]finance.Flow, 0, len(txs))
		for _, t := range txs {
			flows = append(flows, t.Flow())
			if !t.Date.Before(first) {
				current = append(current, t)
			}
		}
		return SummaryReport{
			MonthSummary:    core.Summarize(month, current),
			ExpensesByMonth: finance.ExpensesByMonth(flows),
		}, nil
	})
}

// Dashboard loads the month's reports and planning views concurrently.
func (s *Service) Dashboard(ctx context.Context, userID int64, month string) (Dashboard, error) {
	month = s.month(month)
	if _, err := finance.ParseMonthKey(month); err != nil {
		return Dashboard{}, err
	}
	return cached(s, reportKey(userID, "dashboard", month), func() (Dashboard, error) {
		d := Dashboard{Month: month}
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			var err error
			d.Accounts, err = s.ListAccounts(gctx, userID)
			return err
		})
		g.Go(func() error {
			var err error
			d.Summary, err = s.Summary(gctx, userID, month)
			return err
		})
		g.Go(func() error {
			var err error
			d.Health, err = s.Health(gctx, userID, month)
			return err
		})
		g.Go(func() error {
			var err error
			d.Budgets, err = s.ListBudgets(gctx, userID, month)
			return err
		})
		g.Go(func() error {
			var err error
			d.Goals, err = s.ListGoals(gctx, userID)
			return err
		})
		g.Go(func() error {
			var err error
			d.FixedExpenses, err = s.ListFixedExpenses(gctx, userID)
			return err
		})
		g.Go(func() error {
			txs, err := s.monthTransactions(gctx, userID, month)
			if err != nil {
				return err
			}
			if len(txs) > RecentTransactions {
				txs = txs[len(txs)-RecentTransactions:]
			}
			d.RecentTransactions = txs
			return nil
		})

		if err := g.Wait(); err != nil {
			return Dashboard{}, fmt.Errorf("load dashboard: %w", err)
		}
		return d, nil
	})
}

// AmortizationRequest is the input of the amortization calculator.
type AmortizationRequest struct {
	Principal  float64 `json:"principal"`
	AnnualRate float64 `json:"annualRate"`
	TermMonths int     `json:"termMonths"`
}

// CalculateAmortization returns the full schedule rounded to cents.
func (s *Service) CalculateAmortization(req AmortizationRequest) (finance.Amortization, error) {
	am, err := finance.Amortize(req.Principal, req.AnnualRate, req.TermMonths)
	if err != nil {
		return finance.Amortization{}, err
	}
	return am.Rounded(), nil
}

// DebtSelector points the payoff calculator at a stored debt.
type DebtSelector struct {
	Kind finance.DebtKind `json:"kind"`
	ID   int64            `json:"id"`
}

// PayoffRequest is the input of the payoff calculator: either a stored debt
// or a raw balance and monthly rate.
type PayoffRequest struct {
	Debt           *DebtSelector `json:"debt,omitempty"`
	Balance        float64       `json:"balance"`
	MonthlyRate    float64       `json:"monthlyRate"`
	MonthlyPayment float64       `json:"monthlyPayment"`
}

// PayoffReport is a simulation plus the debt it ran against.
type PayoffReport struct {
	Debt finance.DebtTarget `json:"debt"`
	finance.PayoffResult
}

// CustomDebt names debts given to the calculator as raw numbers.
const CustomDebt finance.DebtKind = "custom"

// resolveDebt loads the stored debt sel points to.
func (s *Service) resolveDebt(ctx context.Context, userID int64, sel DebtSelector) (finance.DebtRef, error) {
	switch sel.Kind {
	case finance.DebtLoan:
		l, err := s.store.GetLoan(ctx, userID, sel.ID)
		if err != nil {
			return nil, err
		}
		return finance.LoanDebt{
			Name:              l.Name,
			RemainingBalance:  l.RemainingBalance.Value(),
			AnnualRatePercent: l.AnnualRate,
		}, nil
	case finance.DebtThirdParty:
		l, err := s.store.GetThirdPartyLoan(ctx, userID, sel.ID)
		if err != nil {
			return nil, err
		}
		payments, err := s.store.ListThirdPartyPayments(ctx, userID, sel.ID)
		if err != nil {
			return nil, err
		}
		return finance.ThirdPartyDebt{
			Name:               l.Lender,
			Principal:          l.Principal.Value(),
			MonthlyRatePercent: l.MonthlyRate,
			StartDate:          l.StartDate.Time,
			Payments:           core.Payments(payments),
		}, nil
	case finance.DebtCard:
		c, err := s.store.GetCard(ctx, userID, sel.ID)
		if err != nil {
			return nil, err
		}
		purchases, err := s.store.ListPurchases(ctx, userID, sel.ID)
		if err != nil {
			return nil, err
		}
		return finance.CardDebt{
			Name:               c.Name,
			Purchases:          activePlans(purchases),
			MonthlyRatePercent: c.MonthlyRate,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown debt kind %q", finance.ErrInvalidArgument, sel.Kind)
	}
}

// SimulatePayoff runs the payoff simulator. A payment that does not cover
// the first month of interest returns *finance.InsufficientPaymentError.
func (s *Service) SimulatePayoff(ctx context.Context, userID int64, req PayoffRequest) (PayoffReport, error) {
	var (
		target finance.DebtTarget
		res    finance.PayoffResult
		err    error
	)
	if req.Debt != nil {
		ref, rerr := s.resolveDebt(ctx, userID, *req.Debt)
		if rerr != nil {
			return PayoffReport{}, rerr
		}
		target, res, err = finance.SimulateDebt(ref, req.MonthlyPayment, s.now())
	} else {
		target = finance.DebtTarget{
			Kind:               CustomDebt,
			Name:               string(CustomDebt),
			Balance:            req.Balance,
			MonthlyRatePercent: req.MonthlyRate,
		}
		res, err = finance.SimulatePayoff(req.Balance, req.MonthlyRate, req.MonthlyPayment)
	}
	if err != nil {
		return PayoffReport{}, err
	}

	target.Balance = finance.RoundCents(target.Balance)
	return PayoffReport{Debt: target, PayoffResult: res.Rounded()}, nil
}
