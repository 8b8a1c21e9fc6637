package memory

import (
	"context"
	"testing"

	"famfin/internal/core"
)

func TestExportAndRemove(t *testing.T) {
	s := New()
	ctx := context.Background()

	rent := core.Transaction{ID: 1, UserID: 9, Type: core.Expense, Category: "housing", Description: "Rent",
		Amount: core.Money{Cents: 120000}, Date: core.NewDate(2025, 3, 5), Method: core.MethodTransfer}
	salary := core.Transaction{ID: 2, UserID: 9, Type: core.Income, Category: "salary",
		Amount: core.Money{Cents: 500000}, Date: core.NewDate(2025, 3, 1), Method: core.MethodTransfer}

	ref, err := s.Export(ctx, rent)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	again, _ := s.Export(ctx, rent)
	if again != ref {
		t.Errorf("re-export should return the existing row, got %q want %q", again, ref)
	}
	if _, err := s.Export(ctx, salary); err != nil {
		t.Fatal(err)
	}

	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][5] != "-1200.00" || rows[1][5] != "5000.00" {
		t.Errorf("unexpected signed amounts %q %q", rows[0][5], rows[1][5])
	}

	if err := s.Remove(ctx, rent); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, rent); err != nil {
		t.Fatalf("removing twice must be a no-op, got %v", err)
	}
	rows = s.Rows()
	if len(rows) != 1 || rows[0][0] != "2" {
		t.Errorf("unexpected rows after removal %v", rows)
	}

	if _, err := s.Export(ctx, core.Transaction{}); err == nil {
		t.Error("expected error exporting a transaction without id")
	}
}
