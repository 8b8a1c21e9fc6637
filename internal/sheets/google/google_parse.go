package google

import (
	"fmt"
	"strconv"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"
)

// findRow returns the zero-based row index whose first cell equals id, or -1.
func findRow(values [][]interface{}, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i
		}
	}
	return -1
}

// rowRef formats an A1 reference to a zero-based row index.
func rowRef(sheet string, idx int) string {
	return fmt.Sprintf("%s!A%d", sheet, idx+1)
}

func sheetIDByTitle(sheets []*gsheet.Sheet, title string) (int64, bool) {
	for _, s := range sheets {
		if s == nil || s.Properties == nil {
			continue
		}
		if s.Properties.Title == title {
			return s.Properties.SheetId, true
		}
	}
	return 0, false
}

func toCells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
