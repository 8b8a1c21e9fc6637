package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// FlowKind is the direction of a money movement.
type FlowKind string

const (
	Income  FlowKind = "income"
	Expense FlowKind = "expense"
)

// Flow is the minimal view of a transaction needed for reports.
type Flow struct {
	Kind     FlowKind
	Category string
	Method   string
	Date     time.Time
	Amount   float64
}

// Group is a sum over all flows sharing Key.
type Group struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// Totals are income, expenses and their difference over a set of flows.
type Totals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// GroupBy sums amount per key. Groups come back in the order their key was
// first seen; there is no other tie-breaking.
func GroupBy[T any](items []T, key func(T) string, amount func(T) float64) []Group {
	index := make(map[string]int)
	sums := make([]decimal.Decimal, 0)
	groups := make([]Group, 0)
	for _, it := range items {
		k := key(it)
		idx, ok := index[k]
		if !ok {
			idx = len(groups)
			index[k] = idx
			groups = append(groups, Group{Key: k})
			sums = append(sums, decimal.Zero)
		}
		sums[idx] = sums[idx].Add(decimal.NewFromFloat(amount(it)))
		groups[idx].Count++
	}
	for idx := range groups {
		groups[idx].Total, _ = sums[idx].Float64()
	}
	return groups
}

func flowAmount(f Flow) float64 { return f.Amount }

// ExpensesByCategory groups expense flows by category.
func ExpensesByCategory(flows []Flow) []Group {
	return GroupBy(filterKind(flows, Expense), func(f Flow) string { return f.Category }, flowAmount)
}

// IncomeByCategory groups income flows by category.
func IncomeByCategory(flows []Flow) []Group {
	return GroupBy(filterKind(flows, Income), func(f Flow) string { return f.Category }, flowAmount)
}

// ExpensesByMonth groups expense flows by YYYY-MM.
func ExpensesByMonth(flows []Flow) []Group {
	return GroupBy(filterKind(flows, Expense), func(f Flow) string { return MonthKey(f.Date) }, flowAmount)
}

// ExpensesByMethod groups expense flows by payment method.
func ExpensesByMethod(flows []Flow) []Group {
	return GroupBy(filterKind(flows, Expense), func(f Flow) string { return f.Method }, flowAmount)
}

// SumFlows totals income and expenses.
func SumFlows(flows []Flow) Totals {
	income, expenses := decimal.Zero, decimal.Zero
	for _, f := range flows {
		switch f.Kind {
		case Income:
			income = income.Add(decimal.NewFromFloat(f.Amount))
		case Expense:
			expenses = expenses.Add(decimal.NewFromFloat(f.Amount))
		}
	}
	in, _ := income.Float64()
	out, _ := expenses.Float64()
	net, _ := income.Sub(expenses).Float64()
	return Totals{Income: in, Expenses: out, Net: net}
}

func filterKind(flows []Flow, kind FlowKind) []Flow {
	out := make([]Flow, 0, len(flows))
	for _, f := range flows {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
