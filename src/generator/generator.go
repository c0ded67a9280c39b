package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/username/cryptotax/src/logger"
	"github.com/xuri/excelize/v2"
)

var (
	cryptocurrencies = []string{"Bitcoin", "Ethereum", "Ripple", "Litecoin", "Cardano"}
	currencies       = []string{"USD", "EUR"}
)

const (
	minTransactionsPerAsset = 3
	maxTransactionsPerAsset = 7
)

// Generate writes a synthetic transactions spreadsheet to outputPath, usable
// as demo input for the tax pipeline. Each asset gets a handful of random
// transactions over the past year; seed fixes the randomness for tests.
func Generate(outputPath string, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Transactions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"date", "asset", "buyPrice", "buyCurrency", "sellPrice", "sellCurrency", "quantity"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	now := time.Now()
	for _, crypto := range cryptocurrencies {
		numTransactions := minTransactionsPerAsset + rng.Intn(maxTransactionsPerAsset-minTransactionsPerAsset+1)

		// Some assets trade in one currency only, mirroring real portfolios.
		singleCurrency := ""
		if rng.Float64() < 0.5 {
			singleCurrency = currencies[rng.Intn(len(currencies))]
		}

		for i := 0; i < numTransactions; i++ {
			date := now.AddDate(0, 0, -rng.Intn(365))
			buyPrice := round2(rng.Float64()*50000 + 1000)
			sellPrice := round2(buyPrice + rng.Float64()*2000 - 1000)
			if sellPrice < 0 {
				sellPrice = 0
			}
			quantity := round2(rng.Float64() * 5)

			buyCurrency := singleCurrency
			sellCurrency := singleCurrency
			if singleCurrency == "" {
				buyCurrency = currencies[rng.Intn(len(currencies))]
				if rng.Float64() < 0.5 {
					sellCurrency = buyCurrency
				} else {
					sellCurrency = currencies[rng.Intn(len(currencies))]
				}
			}

			values := []interface{}{
				date.Format("2006-01-02"), crypto,
				buyPrice, buyCurrency,
				sellPrice, sellCurrency,
				quantity,
			}
			startCell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return fmt.Errorf("bad row %d: %w", row, err)
			}
			if err := f.SetSheetRow(sheet, startCell, &values); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save generated file '%s': %w", outputPath, err)
	}
	if logger.L != nil {
		logger.L.Info("Generated synthetic transactions file", "path", outputPath, "rows", row-2)
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
