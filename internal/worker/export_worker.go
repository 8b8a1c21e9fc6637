package worker

import (
	"context"
	"fmt"

	"famfin/internal/amqp"
	"famfin/internal/log"
	"famfin/internal/sheets"
)

// ExportWorker mirrors transaction events into a spreadsheet.
type ExportWorker struct {
	exporter sheets.TransactionExporter
}

func NewExportWorker(exporter sheets.TransactionExporter) *ExportWorker {
	return &ExportWorker{exporter: exporter}
}

// HandleEvent applies one transaction event. Returning an error asks the
// consumer to redeliver it.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev amqp.TransactionEvent) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)
	fields := log.NewFields().
		WithUser(ev.UserID).
		WithEntity("transaction", ev.Transaction.ID).
		WithOperation(log.OpExport).
		With("message_id", ev.MessageID).
		With("kind", string(ev.Kind))

	switch ev.Kind {
	case amqp.EventTransactionCreated:
		ref, err := w.exporter.Export(ctx, ev.Transaction)
		if err != nil {
			return fmt.Errorf("export transaction %d: %w", ev.Transaction.ID, err)
		}
		logger.InfoContext(ctx, "Transaction exported", fields.With(log.FieldExportRef, ref).ToSlice()...)
	case amqp.EventTransactionDeleted:
		if err := w.exporter.Remove(ctx, ev.Transaction); err != nil {
			return fmt.Errorf("remove transaction %d: %w", ev.Transaction.ID, err)
		}
		logger.InfoContext(ctx, "Transaction removed from export", fields.ToSlice()...)
	default:
		logger.WarnContext(ctx, "Ignoring unknown event", fields.ToSlice()...)
	}
	return nil
}
