package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"famfin/internal/core"
	"famfin/internal/log"
	ports "famfin/internal/sheets"
)

var _ ports.TransactionExporter = (*Exporter)(nil)

// Config selects the spreadsheet and service account used for export.
type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON wins over CredentialsFile when both are set.
	CredentialsJSON string
	CredentialsFile string
}

// Exporter appends transactions to a sheet whose first column holds the
// transaction id.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewExporter creates a Sheets client authenticated with a service account.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	credentials, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentSheets).InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", sheetName)

	return &Exporter{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: sheetName}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

func (e *Exporter) readIDs(ctx context.Context) ([][]interface{}, error) {
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, fmt.Sprintf("%s!A:A", e.sheetName)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read id column: %w", err)
	}
	return resp.Values, nil
}

// Export appends t unless a row with its id already exists.
func (e *Exporter) Export(ctx context.Context, t core.Transaction) (string, error) {
	if t.ID <= 0 {
		return "", errors.New("export transaction: missing id")
	}

	ids, err := e.readIDs(ctx)
	if err != nil {
		return "", err
	}
	if idx := findRow(ids, t.ID); idx >= 0 {
		return rowRef(e.sheetName, idx), nil
	}

	values := make([][]interface{}, 0, 2)
	if len(ids) == 0 {
		values = append(values, toCells(ports.Header))
	}
	values = append(values, toCells(ports.Row(t)))

	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, fmt.Sprintf("%s!A:H", e.sheetName),
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append transaction %d: %w", t.ID, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rowRef(e.sheetName, len(ids)+len(values)-1), nil
}

// Remove deletes the row holding t's id, if any.
func (e *Exporter) Remove(ctx context.Context, t core.Transaction) error {
	ids, err := e.readIDs(ctx)
	if err != nil {
		return err
	}
	idx := findRow(ids, t.ID)
	if idx < 0 {
		return nil
	}

	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet properties: %w", err)
	}
	sheetID, ok := sheetIDByTitle(ss.Sheets, e.sheetName)
	if !ok {
		return fmt.Errorf("sheet %q not found", e.sheetName)
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx + 1),
				},
			},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row of transaction %d: %w", t.ID, err)
	}
	return nil
}
