package google

import (
	"testing"

	gsheet "google.golang.org/api/sheets/v4"
)

func TestFindRow(t *testing.T) {
	values := [][]interface{}{
		{"ID"},
		{"1"},
		{},
		{" 12 "},
		{float64(7)},
	}

	tests := []struct {
		name string
		id   int64
		want int
	}{
		{"first data row", 1, 1},
		{"trimmed cell", 12, 3},
		{"numeric cell", 7, 4},
		{"missing", 99, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findRow(values, tt.id); got != tt.want {
				t.Errorf("findRow(%d) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestRowRef(t *testing.T) {
	if got := rowRef("Transactions", 0); got != "Transactions!A1" {
		t.Errorf("rowRef = %q", got)
	}
}

func TestSheetIDByTitle(t *testing.T) {
	sheets := []*gsheet.Sheet{
		nil,
		{Properties: &gsheet.SheetProperties{Title: "Summary", SheetId: 0}},
		{Properties: &gsheet.SheetProperties{Title: "Transactions", SheetId: 42}},
	}
	if id, ok := sheetIDByTitle(sheets, "Transactions"); !ok || id != 42 {
		t.Errorf("got %d %v, want 42 true", id, ok)
	}
	if _, ok := sheetIDByTitle(sheets, "Missing"); ok {
		t.Error("expected missing sheet")
	}
}

func TestLoadCredentials(t *testing.T) {
	if _, err := loadCredentials(Config{}); err == nil {
		t.Error("expected error without credentials")
	}
	got, err := loadCredentials(Config{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/nonexistent"})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Errorf("inline JSON should win, got %q %v", got, err)
	}
	if _, err := loadCredentials(Config{CredentialsFile: "/nonexistent/key.json"}); err == nil {
		t.Error("expected error for unreadable file")
	}
}
