package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/portfoliotracker/backend/internal/models"
)

// PortfolioService defines the portfolio engine operations: transaction
// reconciliation, valuation and diversification.
type PortfolioService interface {
	// ProcessTransaction records a transaction and reconciles the holding
	// set in one atomic unit. Selling more than held fails with
	// InsufficientHoldingsError and persists nothing.
	ProcessTransaction(ctx context.Context, tx *models.Transaction) (*models.TransactionReceipt, error)
	CalculatePortfolioValue(ctx context.Context, portfolioID string) (*models.PortfolioValuation, error)
	GetPortfolioDiversification(ctx context.Context, portfolioID string) (*models.Diversification, error)
}

// AnalyticsService defines database-driven portfolio analytics.
type AnalyticsService interface {
	GetAssetAllocation(ctx context.Context, portfolioID string) (*models.AllocationReport, error)
	GetPerformanceMetrics(ctx context.Context, portfolioID string) (*models.PerformanceMetrics, error)
}

// PriceProvider is the external market-data collaborator. Implementations
// must not fail hard on unknown symbols: they return an error wrapping
// apperrors.ErrPriceUnavailable instead.
type PriceProvider interface {
	GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	// GetCurrentPrices returns a price per symbol; symbols the provider
	// cannot price are simply absent from the map.
	GetCurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
	GetHistoricalSeries(ctx context.Context, symbol, period, interval string) ([]models.PricePoint, error)
	GetAssetInfo(ctx context.Context, symbol string) (*models.AssetInfo, error)
}

// PriceService defines stored-price maintenance and market-data passthrough.
type PriceService interface {
	// RefreshPrices pulls current prices for the given asset IDs (all
	// assets when empty). Cash assets are skipped; per-symbol provider
	// failures leave the stored price stale and the refresh continues.
	RefreshPrices(ctx context.Context, assetIDs []string) (*models.PriceRefreshResult, error)
	GetHistoricalData(ctx context.Context, symbol, period, interval string) (*models.HistoricalSeries, error)
	LookupAsset(ctx context.Context, symbol string) (*models.AssetInfo, error)
}
