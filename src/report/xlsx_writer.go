package report

import (
	"fmt"

	"github.com/username/cryptotax/src/logger"
	"github.com/username/cryptotax/src/models"
	"github.com/xuri/excelize/v2"
)

// Cell fill colors for the report.
const (
	colorProfit        = "228B22" // green for profit
	colorLoss          = "FF6347" // orange for loss
	colorIndividualTax = "FFD700" // yellow for per-transaction taxes
	colorTotalTax      = "DC143C" // red for per-asset total tax
)

const sheetName = "Grouped Taxes"

var headerCells = []string{"asset", "date", "buyPrice", "buyCurrency", "sellPrice", "sellCurrency", "quantity", "profitOrLoss", "tax"}

// WriteGroupedTaxes renders the aggregate result to an xlsx file: one row per
// transaction grouped by asset, a Total row per asset, and two blank spacer
// rows between assets. Profit/loss and tax cells are color coded.
func WriteGroupedTaxes(result *models.AggregateResult, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name report sheet: %w", err)
	}

	styleProfit, err := fillStyle(f, colorProfit)
	if err != nil {
		return err
	}
	styleLoss, err := fillStyle(f, colorLoss)
	if err != nil {
		return err
	}
	styleTax, err := fillStyle(f, colorIndividualTax)
	if err != nil {
		return err
	}
	styleTotal, err := fillStyle(f, colorTotalTax)
	if err != nil {
		return err
	}

	for col, name := range headerCells {
		if err := setCell(f, col+1, 1, name); err != nil {
			return err
		}
	}

	row := 2
	for _, asset := range result.Order {
		aggregate := result.Assets[asset]
		for _, detail := range aggregate.Transactions {
			values := []interface{}{
				asset,
				detail.Date.Format("2006-01-02"),
				detail.BuyPrice,
				detail.BuyCurrency,
				detail.SellPrice,
				detail.SellCurrency,
				detail.Quantity,
				detail.ProfitOrLoss,
				detail.Tax,
			}
			for col, v := range values {
				if err := setCell(f, col+1, row, v); err != nil {
					return err
				}
			}

			plStyle := styleProfit
			if detail.ProfitOrLoss < 0 {
				plStyle = styleLoss
			}
			if err := styleCell(f, 8, row, plStyle); err != nil {
				return err
			}
			if err := styleCell(f, 9, row, styleTax); err != nil {
				return err
			}
			row++
		}

		if err := setCell(f, 1, row, asset); err != nil {
			return err
		}
		if err := setCell(f, 2, row, "Total"); err != nil {
			return err
		}
		if err := setCell(f, 9, row, aggregate.TotalTax); err != nil {
			return err
		}
		if err := styleCell(f, 9, row, styleTotal); err != nil {
			return err
		}
		row += 3 // total row plus two spacer rows
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to write report '%s': %w", outputPath, err)
	}
	if logger.L != nil {
		logger.L.Info("Report written", "path", outputPath, "assets", len(result.Order))
	}
	return nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	styleID, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create cell style: %w", err)
	}
	return styleID, nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("bad cell coordinates (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}

func styleCell(f *excelize.File, col, row, styleID int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("bad cell coordinates (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellStyle(sheetName, cell, cell, styleID); err != nil {
		return fmt.Errorf("failed to style cell %s: %w", cell, err)
	}
	return nil
}
