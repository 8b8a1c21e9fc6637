// Package sheets defines the outbound export port for transactions and its
// adapters (Google Sheets and in-memory).
package sheets

import (
	"context"
	"strconv"

	"famfin/internal/core"
)

// TransactionExporter mirrors the transaction ledger into an external
// spreadsheet. Both operations are idempotent: exporting an already exported
// transaction returns the existing row and removing a missing one is a no-op,
// since the worker may see the same event twice.
type TransactionExporter interface {
	Export(ctx context.Context, t core.Transaction) (rowRef string, err error)
	Remove(ctx context.Context, t core.Transaction) error
}

// Header is the first row written to an empty export sheet.
var Header = []string{"ID", "Date", "Type", "Category", "Description", "Amount", "Method", "User"}

// Row renders a transaction in Header's column order.
func Row(t core.Transaction) []string {
	return []string{
		strconv.FormatInt(t.ID, 10),
		t.Date.String(),
		string(t.Type),
		t.Category,
		t.Description,
		t.SignedAmount().String(),
		string(t.Method),
		strconv.FormatInt(t.UserID, 10),
	}
}
