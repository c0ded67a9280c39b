package parsers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/username/cryptotax/src/models"
	"github.com/xuri/excelize/v2"
)

// ErrInvalidRow marks a spreadsheet row that failed validation. Invalid rows
// are excluded from the returned transactions and logged, never fatal.
var ErrInvalidRow = errors.New("invalid row")

// excelStartLine accounts for 1-based Excel rows plus the header row, so
// logged row numbers match what the user sees in their spreadsheet.
const excelStartLine = 2

const dateLayout = "2006-01-02"

// XLSXParser reads crypto transactions from the first sheet of an xlsx file.
// Expected columns: date, asset, buyPrice, buyCurrency, sellPrice,
// sellCurrency, quantity, with a header row.
type XLSXParser struct {
	errLog *slog.Logger // sink for rejected rows; nil disables row logging
}

func NewXLSXParser(errLog *slog.Logger) *XLSXParser {
	return &XLSXParser{errLog: errLog}
}

// Parse reads and validates all rows. It returns the valid transactions in
// sheet order and the number of rows rejected.
func (p *XLSXParser) Parse(filePath string) ([]models.Transaction, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open transactions file '%s': %w", filePath, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet '%s': %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("sheet '%s' is empty", sheetName)
	}

	var transactions []models.Transaction
	rejected := 0
	for i, row := range rows[1:] { // skip header
		if isBlankRow(row) {
			continue
		}
		transaction, err := validateRow(row)
		if err != nil {
			rejected++
			if p.errLog != nil {
				p.errLog.Error("rejected transaction row",
					"line", i+excelStartLine,
					"errorType", "InvalidRow",
					"message", err.Error(),
					"rowContent", strings.Join(row, ";"),
				)
			}
			continue
		}
		transactions = append(transactions, transaction)
	}

	return transactions, rejected, nil
}

// validateRow converts one spreadsheet row into a Transaction, enforcing the
// input invariants: parseable date, non-empty asset and currency codes,
// non-negative prices and quantity.
func validateRow(row []string) (models.Transaction, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	date, err := time.Parse(dateLayout, cell(0))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: bad date '%s' (want %s)", ErrInvalidRow, cell(0), dateLayout)
	}

	asset := cell(1)
	if asset == "" {
		return models.Transaction{}, fmt.Errorf("%w: empty asset", ErrInvalidRow)
	}
	buyCurrency := cell(3)
	sellCurrency := cell(5)
	if buyCurrency == "" || sellCurrency == "" {
		return models.Transaction{}, fmt.Errorf("%w: empty currency code", ErrInvalidRow)
	}

	buyPrice, err := parseAmount(cell(2))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: bad buyPrice: %v", ErrInvalidRow, err)
	}
	sellPrice, err := parseAmount(cell(4))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: bad sellPrice: %v", ErrInvalidRow, err)
	}
	quantity, err := parseAmount(cell(6))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: bad quantity: %v", ErrInvalidRow, err)
	}

	return models.Transaction{
		Date:         date,
		Asset:        asset,
		BuyPrice:     buyPrice,
		BuyCurrency:  buyCurrency,
		SellPrice:    sellPrice,
		SellCurrency: sellCurrency,
		Quantity:     quantity,
	}, nil
}

// parseAmount parses a non-negative decimal cell value.
func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: '%s'", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value: %s", s)
	}
	return v, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
