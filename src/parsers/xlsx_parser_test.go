package parsers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTestSheet(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "transactions.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestParseValidAndInvalidRows(t *testing.T) {
	path := writeTestSheet(t, [][]interface{}{
		{"date", "asset", "buyPrice", "buyCurrency", "sellPrice", "sellCurrency", "quantity"},
		{"2023-01-01", "Bitcoin", 100.5, "USD", 150.25, "USD", 2},
		{"01/02/2023", "Bitcoin", 100, "USD", 150, "USD", 2},  // bad date format
		{"2023-01-03", "", 100, "USD", 150, "USD", 2},         // empty asset
		{"2023-01-04", "Ethereum", "oops", "USD", 150, "USD", 2}, // non-numeric price
		{"2023-01-05", "Ethereum", 100, "USD", 150, "USD", -1}, // negative quantity
		{"2023-01-06", "Ethereum", 10, "EUR", 12, "EUR", 1},
	})

	var logBuf bytes.Buffer
	errLog := slog.New(slog.NewJSONHandler(&logBuf, nil))

	transactions, rejected, err := NewXLSXParser(errLog).Parse(path)
	if err != nil {
		t.Fatalf("Parse() unexpected error = %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("valid transactions = %d, want 2", len(transactions))
	}
	if rejected != 4 {
		t.Errorf("rejected rows = %d, want 4", rejected)
	}

	first := transactions[0]
	if first.Asset != "Bitcoin" || first.BuyPrice != 100.5 || first.SellPrice != 150.25 || first.Quantity != 2 {
		t.Errorf("unexpected first transaction: %+v", first)
	}
	if first.Date.Format("2006-01-02") != "2023-01-01" {
		t.Errorf("first transaction date = %v", first.Date)
	}
	if transactions[1].Asset != "Ethereum" || transactions[1].BuyCurrency != "EUR" {
		t.Errorf("unexpected second transaction: %+v", transactions[1])
	}

	// Every rejected row is logged with its spreadsheet line number.
	dec := json.NewDecoder(&logBuf)
	loggedLines := map[float64]bool{}
	for dec.More() {
		var entry map[string]interface{}
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decoding error log entry: %v", err)
		}
		if entry["errorType"] != "InvalidRow" {
			t.Errorf("errorType = %v, want InvalidRow", entry["errorType"])
		}
		if line, ok := entry["line"].(float64); ok {
			loggedLines[line] = true
		}
	}
	for _, want := range []float64{3, 4, 5, 6} {
		if !loggedLines[want] {
			t.Errorf("no error log entry for spreadsheet line %v (got %v)", want, loggedLines)
		}
	}
}

func TestParseSkipsBlankRows(t *testing.T) {
	path := writeTestSheet(t, [][]interface{}{
		{"date", "asset", "buyPrice", "buyCurrency", "sellPrice", "sellCurrency", "quantity"},
		{"2023-01-01", "Bitcoin", 100, "USD", 150, "USD", 2},
		{"", "", "", "", "", "", ""},
		{"2023-01-02", "Bitcoin", 100, "USD", 90, "USD", 1},
	})

	transactions, rejected, err := NewXLSXParser(nil).Parse(path)
	if err != nil {
		t.Fatalf("Parse() unexpected error = %v", err)
	}
	if len(transactions) != 2 || rejected != 0 {
		t.Errorf("got %d transactions, %d rejected; want 2, 0", len(transactions), rejected)
	}
}

func TestParseMissingFile(t *testing.T) {
	if _, _, err := NewXLSXParser(nil).Parse(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Fatal("Parse() on missing file: expected error")
	}
}
