package finance

import (
	"testing"
	"time"
)

func sampleFlows() []Flow {
	d := func(m time.Month, day int) time.Time { return time.Date(2024, m, day, 0, 0, 0, 0, time.UTC) }
	return []Flow{
		{Kind: Expense, Category: "food", Method: "debit", Date: d(1, 3), Amount: 10.1},
		{Kind: Income, Category: "salary", Method: "transfer", Date: d(1, 5), Amount: 3000},
		{Kind: Expense, Category: "rent", Method: "transfer", Date: d(1, 10), Amount: 1200},
		{Kind: Expense, Category: "food", Method: "credit", Date: d(2, 1), Amount: 20.2},
		{Kind: Income, Category: "freelance", Method: "pix", Date: d(2, 8), Amount: 500},
		{Kind: Expense, Category: "transport", Method: "debit", Date: d(2, 9), Amount: 0.3},
	}
}

func TestExpensesByCategoryKeepsFirstSeenOrder(t *testing.T) {
	got := ExpensesByCategory(sampleFlows())
	want := []Group{
		{Key: "food", Total: 30.3, Count: 2},
		{Key: "rent", Total: 1200, Count: 1},
		{Key: "transport", Total: 0.3, Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("group %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestGroupings(t *testing.T) {
	flows := sampleFlows()
	cases := []struct {
		name string
		got  []Group
		keys []string
	}{
		{"income by category", IncomeByCategory(flows), []string{"salary", "freelance"}},
		{"expenses by month", ExpensesByMonth(flows), []string{"2024-01", "2024-02"}},
		{"expenses by method", ExpensesByMethod(flows), []string{"debit", "transfer", "credit"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if len(tc.got) != len(tc.keys) {
				t.Fatalf("expected %v, got %+v", tc.keys, tc.got)
			}
			for i, k := range tc.keys {
				if tc.got[i].Key != k {
					t.Fatalf("position %d: expected %q, got %q", i, k, tc.got[i].Key)
				}
			}
		})
	}
}

func TestGroupByEmpty(t *testing.T) {
	if got := ExpensesByCategory(nil); len(got) != 0 {
		t.Fatalf("expected no groups, got %+v", got)
	}
}

func TestSumFlows(t *testing.T) {
	got := SumFlows(sampleFlows())
	want := Totals{Income: 3500, Expenses: 1230.6, Net: 2269.4}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
