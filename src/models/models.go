package models

import "time"

// Transaction represents a single validated buy/sell transaction handed to
// the tax calculator. Prices are per-unit amounts in their leg currency.
type Transaction struct {
	Date         time.Time `json:"date"`
	Asset        string    `json:"asset"` // e.g. "Bitcoin", "ETH"
	BuyPrice     float64   `json:"buy_price"`
	BuyCurrency  string    `json:"buy_currency"`
	SellPrice    float64   `json:"sell_price"`
	SellCurrency string    `json:"sell_currency"`
	Quantity     float64   `json:"quantity"`
}

// TransactionDetail is the per-transaction output of the tax calculation.
// Prices are echoed in their original currencies; ProfitOrLoss and Tax are
// expressed in the reporting currency.
type TransactionDetail struct {
	Date         time.Time `json:"date"`
	BuyPrice     float64   `json:"buy_price"`
	BuyCurrency  string    `json:"buy_currency"`
	SellPrice    float64   `json:"sell_price"`
	SellCurrency string    `json:"sell_currency"`
	Quantity     float64   `json:"quantity"`
	ProfitOrLoss float64   `json:"profit_or_loss"`
	Tax          float64   `json:"tax"`
}

// AssetAggregate groups the computed details for one asset symbol.
// Transactions preserve input order; TotalTax accumulates member taxes.
type AssetAggregate struct {
	Transactions []TransactionDetail `json:"transactions"`
	TotalTax     float64             `json:"total_tax"`
}

// AggregateResult is the terminal output of a tax calculation run: one
// aggregate per distinct asset symbol. Order records asset symbols by first
// appearance so report output stays deterministic.
type AggregateResult struct {
	Assets map[string]*AssetAggregate `json:"assets"`
	Order  []string                   `json:"order"`
}

// NewAggregateResult returns an empty result ready for accumulation.
func NewAggregateResult() *AggregateResult {
	return &AggregateResult{Assets: make(map[string]*AssetAggregate)}
}

// AggregateFor returns the aggregate for the given asset, creating it (and
// recording its position in Order) on first sight.
func (r *AggregateResult) AggregateFor(asset string) *AssetAggregate {
	agg, ok := r.Assets[asset]
	if !ok {
		agg = &AssetAggregate{}
		r.Assets[asset] = agg
		r.Order = append(r.Order, asset)
	}
	return agg
}
