package tax

import (
	"context"
	"fmt"
	"time"

	"github.com/username/cryptotax/src/fxrate"
	"github.com/username/cryptotax/src/logger"
	"github.com/username/cryptotax/src/models"
)

// Rule computes the tax owed on a single transaction's profit or loss.
// Implementations represent one tax regime.
type Rule interface {
	TaxFor(profitOrLoss float64, date time.Time) float64
}

// FlatRule taxes positive profit at a fixed rate; losses owe nothing.
// The French flat-tax regime on crypto gains is FlatRule{Rate: 0.30}.
type FlatRule struct {
	Rate float64
}

func (r FlatRule) TaxFor(profitOrLoss float64, _ time.Time) float64 {
	if profitOrLoss > 0 {
		return profitOrLoss * r.Rate
	}
	return 0
}

// Calculator normalizes transaction legs into the reporting currency,
// computes per-transaction profit/loss and tax, and folds the results into
// per-asset aggregates.
type Calculator struct {
	provider          fxrate.ConversionProvider
	reportingCurrency string
	rule              Rule
}

// NewCalculator wires a calculator to its conversion provider and tax rule.
func NewCalculator(provider fxrate.ConversionProvider, reportingCurrency string, rule Rule) *Calculator {
	return &Calculator{
		provider:          provider,
		reportingCurrency: reportingCurrency,
		rule:              rule,
	}
}

// CalculateCryptoTaxes processes transactions in input order and returns the
// per-asset aggregates. The run is all-or-nothing: the first conversion
// failure aborts the whole calculation and no partial result is returned.
func (c *Calculator) CalculateCryptoTaxes(ctx context.Context, transactions []models.Transaction) (*models.AggregateResult, error) {
	result := models.NewAggregateResult()

	for i, transaction := range transactions {
		buyPrice := transaction.BuyPrice
		if transaction.BuyCurrency != c.reportingCurrency {
			converted, err := c.provider.ConvertCurrency(ctx, transaction.BuyPrice, transaction.BuyCurrency, c.reportingCurrency, transaction.Date)
			if err != nil {
				return nil, fmt.Errorf("converting buy leg of transaction %d (%s): %w", i, transaction.Asset, err)
			}
			buyPrice = converted
		}

		sellPrice := transaction.SellPrice
		if transaction.SellCurrency != c.reportingCurrency {
			converted, err := c.provider.ConvertCurrency(ctx, transaction.SellPrice, transaction.SellCurrency, c.reportingCurrency, transaction.Date)
			if err != nil {
				return nil, fmt.Errorf("converting sell leg of transaction %d (%s): %w", i, transaction.Asset, err)
			}
			sellPrice = converted
		}

		profitOrLoss := (sellPrice - buyPrice) * transaction.Quantity
		taxAmount := c.rule.TaxFor(profitOrLoss, transaction.Date)

		aggregate := result.AggregateFor(transaction.Asset)
		aggregate.Transactions = append(aggregate.Transactions, models.TransactionDetail{
			Date:         transaction.Date,
			BuyPrice:     transaction.BuyPrice,
			BuyCurrency:  transaction.BuyCurrency,
			SellPrice:    transaction.SellPrice,
			SellCurrency: transaction.SellCurrency,
			Quantity:     transaction.Quantity,
			ProfitOrLoss: profitOrLoss,
			Tax:          taxAmount,
		})
		aggregate.TotalTax += taxAmount
	}

	if logger.L != nil {
		logger.L.Info("Tax calculation complete", "transactions", len(transactions), "assets", len(result.Assets))
	}
	return result, nil
}
