// Package backend selects where the export worker mirrors transactions.
package backend

import (
	"context"
	"fmt"

	"famfin/internal/config"
	"famfin/internal/log"
	"famfin/internal/sheets"
	gsheet "famfin/internal/sheets/google"
	"famfin/internal/sheets/memory"
)

// BackendType names an export destination.
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is known.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build an exporter.
type Config struct {
	Type BackendType

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:                     BackendType(appConfig.ExportBackend),
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
	}
	return cfg, cfg.Validate()
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SheetsBackend {
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			return fmt.Errorf("service account credentials are required for sheets backend")
		}
	}
	return nil
}

// Factory creates exporters. newSheets is swapped in tests.
type Factory struct {
	newSheets func(ctx context.Context, cfg gsheet.Config) (sheets.TransactionExporter, error)
}

func NewFactory() *Factory {
	return &Factory{
		newSheets: func(ctx context.Context, cfg gsheet.Config) (sheets.TransactionExporter, error) {
			return gsheet.NewExporter(ctx, cfg)
		},
	}
}

// CreateExporter builds the exporter for cfg.Type.
func (f *Factory) CreateExporter(ctx context.Context, cfg Config) (sheets.TransactionExporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)

	switch cfg.Type {
	case SheetsBackend:
		exp, err := f.newSheets(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
		}
		return exp, nil
	default:
		logger.InfoContext(ctx, "Initialized memory export backend")
		return memory.New(), nil
	}
}
