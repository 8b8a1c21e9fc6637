package finance

import (
	"math"
	"testing"
	"time"
)

func TestRoundCents(t *testing.T) {
	cases := []struct {
		in, out float64
	}{
		{1066.1854641401003, 1066.19},
		{794.2255696812026, 794.23},
		{1.005, 1.01},
		{-1.005, -1.01},
		{2.5, 2.5},
		{0, 0},
	}
	for _, tc := range cases {
		if got := RoundCents(tc.in); got != tc.out {
			t.Fatalf("RoundCents(%v) = %v, want %v", tc.in, got, tc.out)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(time.Date(2024, 2, 17, 13, 45, 0, 0, time.UTC))
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", end)
	}
}

func TestParseMonthKey(t *testing.T) {
	got, err := ParseMonthKey("2024-11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if MonthKey(got) != "2024-11" {
		t.Fatalf("round trip failed: %v", got)
	}
	for _, bad := range []string{"", "2024-13", "11-2024", "2024/11"} {
		if _, err := ParseMonthKey(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestInstallmentCents(t *testing.T) {
	var sum int64
	for k := 1; k <= 3; k++ {
		c := InstallmentCents(10000, 3, k)
		if c != 3333 && c != 3334 {
			t.Fatalf("installment %d = %d", k, c)
		}
		sum += c
	}
	if sum != 10000 {
		t.Fatalf("installments must add up to the total, got %d", sum)
	}
}

// Remaining debt must equal what the charged installments leave behind, so
// card totals never drift from the stored balance.
func TestInstallmentsRemainingMatchesChargedCents(t *testing.T) {
	cases := []struct {
		name  string
		total float64
		count int
	}{
		{"uneven thirds", 100, 3},
		{"odd cents", 999.99, 7},
		{"more parts than cents", 0.05, 12},
		{"single", 42.42, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totalCents := int64(math.Round(tc.total * 100))
			left := totalCents
			for paid := 0; paid <= tc.count; paid++ {
				st, err := Installments{Total: tc.total, Count: tc.count, Paid: paid}.Status()
				if err != nil {
					t.Fatal(err)
				}
				if got := int64(math.Round(st.RemainingAmount * 100)); got != left {
					t.Fatalf("paid %d: remaining %d cents, charged installments leave %d", paid, got, left)
				}
				if paid < tc.count {
					next := InstallmentCents(totalCents, tc.count, paid+1)
					if got := int64(math.Round(st.InstallmentAmount * 100)); got != next {
						t.Fatalf("paid %d: installment %d cents, want %d", paid, got, next)
					}
					left -= next
				}
			}
			if left != 0 {
				t.Fatalf("installments left %d cents unpaid", left)
			}
		})
	}

	debt, err := CardTotalDebt([]Installments{{Total: 100, Count: 3, Paid: 1}, {Total: 100, Count: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if debt != 166.67 {
		t.Fatalf("card debt = %v, want 166.67", debt)
	}
}

func TestInstallmentsStatus(t *testing.T) {
	st, err := Installments{Total: 1200, Count: 12, Paid: 3}.Status()
	if err != nil {
		t.Fatal(err)
	}
	if st.InstallmentAmount != 100 || st.RemainingInstallments != 9 || st.RemainingAmount != 900 || st.Settled {
		t.Fatalf("unexpected status %+v", st)
	}
	st, err = Installments{Total: 1200, Count: 12, Paid: 12}.Status()
	if err != nil {
		t.Fatal(err)
	}
	if !st.Settled || st.RemainingAmount != 0 {
		t.Fatalf("expected settled purchase, got %+v", st)
	}
	for _, bad := range []Installments{{Total: 0, Count: 1}, {Total: 10, Count: 0}, {Total: 10, Count: 2, Paid: 3}} {
		if _, err := bad.Status(); err == nil {
			t.Fatalf("%+v: expected error", bad)
		}
	}
}
