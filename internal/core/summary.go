package core

import "famfin/internal/finance"

// MonthSummary is the grouped view of one month of transactions.
type MonthSummary struct {
	Month              string          `json:"month"`
	Totals             finance.Totals  `json:"totals"`
	ExpensesByCategory []finance.Group `json:"expensesByCategory"`
	IncomeByCategory   []finance.Group `json:"incomeByCategory"`
	ExpensesByMethod   []finance.Group `json:"expensesByMethod"`
}

// Flow converts a transaction to the calculation core's view of it.
func (t Transaction) Flow() finance.Flow {
	kind := finance.Expense
	if t.Type == Income {
		kind = finance.Income
	}
	return finance.Flow{
		Kind:     kind,
		Category: t.Category,
		Method:   string(t.Method),
		Date:     t.Date.Time,
		Amount:   t.Amount.Value(),
	}
}

// Summarize groups transactions belonging to month (YYYY-MM).
func Summarize(month string, txs []Transaction) MonthSummary {
	flows := make([]finance.Flow, 0, len(txs))
	for _, t := range txs {
		flows = append(flows, t.Flow())
	}
	return MonthSummary{
		Month:              month,
		Totals:             finance.SumFlows(flows),
		ExpensesByCategory: finance.ExpensesByCategory(flows),
		IncomeByCategory:   finance.IncomeByCategory(flows),
		ExpensesByMethod:   finance.ExpensesByMethod(flows),
	}
}

// InstallmentPlan converts a purchase to the calculation core's view of it.
func (p CardPurchase) InstallmentPlan() finance.Installments {
	return finance.Installments{
		Total: p.Total.Value(),
		Count: p.Installments,
		Paid:  p.PaidInstallments,
	}
}

// Payments converts stored payments to ledger entries.
func Payments(ps []ThirdPartyPayment) []finance.Payment {
	out := make([]finance.Payment, 0, len(ps))
	for _, p := range ps {
		out = append(out, finance.Payment{Amount: p.Amount.Value(), Date: p.Date.Time})
	}
	return out
}
