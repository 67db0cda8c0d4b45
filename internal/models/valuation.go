package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetRef is the slim asset view embedded in valuation output.
type AssetRef struct {
	ID     string    `json:"id"`
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Type   AssetType `json:"asset_type"`
}

// HoldingValuation is one priced position inside a portfolio valuation.
type HoldingValuation struct {
	Asset           AssetRef        `json:"asset"`
	Quantity        decimal.Decimal `json:"quantity"`
	AverageCost     decimal.Decimal `json:"average_cost"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	CostBasis       decimal.Decimal `json:"cost_basis"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
}

// PortfolioValuation aggregates market value, cost basis and gain/loss over
// the priced holdings of one portfolio. Holdings whose asset has no current
// price are excluded from the breakdown and the totals: unknown price is not
// zero value.
type PortfolioValuation struct {
	PortfolioID          string             `json:"portfolio_id"`
	TotalValue           decimal.Decimal    `json:"total_value"`
	TotalCost            decimal.Decimal    `json:"total_cost"`
	TotalGainLoss        decimal.Decimal    `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal    `json:"total_gain_loss_percent"`
	Holdings             []HoldingValuation `json:"holdings"`
}

// HoldingWeight is one holding's share of the portfolio value.
type HoldingWeight struct {
	Asset      AssetRef        `json:"asset"`
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Diversification is the percentage breakdown of a portfolio by asset type
// and by individual holding. Both dimensions sum to 100 whenever TotalValue
// is positive.
type Diversification struct {
	TotalValue  decimal.Decimal            `json:"total_value"`
	ByAssetType map[string]decimal.Decimal `json:"by_asset_type"`
	ByAsset     []HoldingWeight            `json:"by_asset"`
}

// AllocationSlice is one group's value and share within an allocation dimension.
type AllocationSlice struct {
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
}

// AllocationReport breaks portfolio value down by asset type and by currency.
type AllocationReport struct {
	PortfolioID string                     `json:"portfolio_id"`
	TotalValue  decimal.Decimal            `json:"total_value"`
	ByAssetType map[string]AllocationSlice `json:"by_asset_type"`
	ByCurrency  map[string]AllocationSlice `json:"by_currency"`
}

// PriceStatistics summarizes the current prices across a portfolio's assets.
type PriceStatistics struct {
	MaxPrice decimal.Decimal `json:"max_price"`
	MinPrice decimal.Decimal `json:"min_price"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// PerformanceMetrics carries portfolio-level aggregates computed in SQL.
type PerformanceMetrics struct {
	PortfolioID               string          `json:"portfolio_id"`
	TotalPositions            int             `json:"total_positions"`
	TotalMarketValue          decimal.Decimal `json:"total_market_value"`
	TotalCostBasis            decimal.Decimal `json:"total_cost_basis"`
	UnrealizedGainLoss        decimal.Decimal `json:"unrealized_gain_loss"`
	UnrealizedGainLossPercent decimal.Decimal `json:"unrealized_gain_loss_percent"`
	PriceStatistics           PriceStatistics `json:"price_statistics"`
}

// PricePoint is one bar of a historical OHLCV series.
type PricePoint struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// HistoricalSeries is the historical price response for one symbol,
// including change metrics derived from the series itself.
type HistoricalSeries struct {
	Symbol              string          `json:"symbol"`
	Name                string          `json:"name"`
	Currency            string          `json:"currency"`
	Exchange            string          `json:"exchange"`
	Period              string          `json:"period"`
	Interval            string          `json:"interval"`
	CurrentPrice        decimal.Decimal `json:"current_price"`
	DailyChange         decimal.Decimal `json:"daily_change"`
	DailyChangePercent  decimal.Decimal `json:"daily_change_percent"`
	PeriodChange        decimal.Decimal `json:"period_change"`
	PeriodChangePercent decimal.Decimal `json:"period_change_percent"`
	Data                []PricePoint    `json:"data"`
	DataPoints          int             `json:"data_points"`
}

// AssetInfo is the provider's description of a symbol, used for lookup and
// create-from-lookup.
type AssetInfo struct {
	Symbol       string           `json:"symbol"`
	Name         string           `json:"name"`
	Type         AssetType        `json:"asset_type"`
	Exchange     *string          `json:"exchange"`
	Currency     string           `json:"currency"`
	CurrentPrice *decimal.Decimal `json:"current_price"`
}

// PriceRefreshResult reports the outcome of a batch price refresh. A refresh
// with failures is still a success: failed symbols keep their stale price.
type PriceRefreshResult struct {
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed"`
}
