package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"famfin/internal/amqp"
	"famfin/internal/core"
	"famfin/internal/sheets/memory"
)

type failingExporter struct{ err error }

func (f failingExporter) Export(context.Context, core.Transaction) (string, error) { return "", f.err }
func (f failingExporter) Remove(context.Context, core.Transaction) error           { return f.err }

func TestExportWorker_HandleEvent(t *testing.T) {
	store := memory.New()
	w := NewExportWorker(store)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tx := core.Transaction{ID: 5, UserID: 1, Type: core.Expense, Category: "food", Amount: core.Money{Cents: 4200},
		Date: core.NewDate(2025, 3, 1), Method: core.MethodDebit}

	created := amqp.NewTransactionEvent(amqp.EventTransactionCreated, tx, now)
	if err := w.HandleEvent(ctx, created); err != nil {
		t.Fatalf("HandleEvent(created) error = %v", err)
	}
	// redelivery must not duplicate the row
	if err := w.HandleEvent(ctx, created); err != nil {
		t.Fatal(err)
	}
	if rows := store.Rows(); len(rows) != 1 {
		t.Fatalf("expected one exported row, got %d", len(rows))
	}

	if err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.EventTransactionDeleted, tx, now)); err != nil {
		t.Fatalf("HandleEvent(deleted) error = %v", err)
	}
	if rows := store.Rows(); len(rows) != 0 {
		t.Fatalf("expected row removed, got %v", rows)
	}

	if err := w.HandleEvent(ctx, amqp.TransactionEvent{Kind: "transaction.archived"}); err != nil {
		t.Errorf("unknown kinds should be ignored, got %v", err)
	}
}

func TestExportWorker_PropagatesExporterErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := NewExportWorker(failingExporter{err: boom})
	ev := amqp.NewTransactionEvent(amqp.EventTransactionCreated, core.Transaction{ID: 1}, time.Now())

	if err := w.HandleEvent(context.Background(), ev); !errors.Is(err, boom) {
		t.Fatalf("expected exporter error to propagate, got %v", err)
	}
	ev.Kind = amqp.EventTransactionDeleted
	if err := w.HandleEvent(context.Background(), ev); !errors.Is(err, boom) {
		t.Fatalf("expected exporter error to propagate, got %v", err)
	}
}
