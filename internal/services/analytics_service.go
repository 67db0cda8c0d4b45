package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/portfoliotracker/backend/internal/apperrors"
	"github.com/portfoliotracker/backend/internal/db"
	"github.com/portfoliotracker/backend/internal/models"
)

type analyticsService struct {
	db     *db.DB
	logger *zap.Logger
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(database *db.DB, logger *zap.Logger) AnalyticsService {
	return &analyticsService{db: database, logger: logger}
}

// pricedPositionRow is one priced holding joined with its asset, as selected
// straight from the database.
type pricedPositionRow struct {
	AssetType    string          `gorm:"column:asset_type"`
	Currency     string          `gorm:"column:currency"`
	Quantity     decimal.Decimal `gorm:"column:quantity"`
	AverageCost  decimal.Decimal `gorm:"column:average_cost"`
	CurrentPrice decimal.Decimal `gorm:"column:current_price"`
}

func (s *analyticsService) pricedPositions(ctx context.Context, portfolioID string) ([]pricedPositionRow, error) {
	var rows []pricedPositionRow
	err := s.db.WithContext(ctx).
		Table("holdings").
		Select("assets.asset_type AS asset_type, assets.currency AS currency, holdings.quantity AS quantity, holdings.average_cost AS average_cost, assets.current_price AS current_price").
		Joins("JOIN assets ON assets.id = holdings.asset_id").
		Where("holdings.portfolio_id = ? AND assets.current_price IS NOT NULL", portfolioID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query priced positions: %w", err)
	}
	return rows, nil
}

func (s *analyticsService) requirePortfolio(ctx context.Context, portfolioID string) error {
	var p models.Portfolio
	if err := s.db.WithContext(ctx).First(&p, "id = ?", portfolioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("portfolio", portfolioID)
		}
		return fmt.Errorf("failed to get portfolio: %w", err)
	}
	return nil
}

// GetAssetAllocation breaks the priced portfolio value down by asset type and
// by currency. Both breakdowns use the same priced total, so each one sums to
// 100 percent whenever the total is positive.
func (s *analyticsService) GetAssetAllocation(ctx context.Context, portfolioID string) (*models.AllocationReport, error) {
	if err := s.requirePortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	rows, err := s.pricedPositions(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	report := &models.AllocationReport{
		PortfolioID: portfolioID,
		ByAssetType: make(map[string]models.AllocationSlice),
		ByCurrency:  make(map[string]models.AllocationSlice),
	}

	typeValues := make(map[string]decimal.Decimal)
	currencyValues := make(map[string]decimal.Decimal)
	for _, row := range rows {
		value := row.Quantity.Mul(row.CurrentPrice)
		report.TotalValue = report.TotalValue.Add(value)
		typeValues[row.AssetType] = typeValues[row.AssetType].Add(value)
		currencyValues[row.Currency] = currencyValues[row.Currency].Add(value)
	}

	if !report.TotalValue.IsPositive() {
		return report, nil
	}
	for assetType, value := range typeValues {
		report.ByAssetType[assetType] = models.AllocationSlice{
			Value:      value,
			Percentage: value.Div(report.TotalValue).Mul(oneHundred),
		}
	}
	for currency, value := range currencyValues {
		report.ByCurrency[currency] = models.AllocationSlice{
			Value:      value,
			Percentage: value.Div(report.TotalValue).Mul(oneHundred),
		}
	}
	return report, nil
}

// GetPerformanceMetrics aggregates market value, cost basis and price
// statistics across the portfolio. The position count includes unpriced
// holdings; the monetary aggregates cover only priced ones.
func (s *analyticsService) GetPerformanceMetrics(ctx context.Context, portfolioID string) (*models.PerformanceMetrics, error) {
	if err := s.requirePortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}

	var totalPositions int64
	err := s.db.WithContext(ctx).Model(&models.Holding{}).
		Where("portfolio_id = ?", portfolioID).
		Count(&totalPositions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count positions: %w", err)
	}

	rows, err := s.pricedPositions(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	metrics := &models.PerformanceMetrics{
		PortfolioID:    portfolioID,
		TotalPositions: int(totalPositions),
	}
	if len(rows) == 0 {
		return metrics, nil
	}

	var priceSum decimal.Decimal
	maxPrice := rows[0].CurrentPrice
	minPrice := rows[0].CurrentPrice
	for _, row := range rows {
		metrics.TotalMarketValue = metrics.TotalMarketValue.Add(row.Quantity.Mul(row.CurrentPrice))
		metrics.TotalCostBasis = metrics.TotalCostBasis.Add(row.Quantity.Mul(row.AverageCost))
		priceSum = priceSum.Add(row.CurrentPrice)
		if row.CurrentPrice.GreaterThan(maxPrice) {
			maxPrice = row.CurrentPrice
		}
		if row.CurrentPrice.LessThan(minPrice) {
			minPrice = row.CurrentPrice
		}
	}

	metrics.UnrealizedGainLoss = metrics.TotalMarketValue.Sub(metrics.TotalCostBasis)
	if metrics.TotalCostBasis.IsPositive() {
		metrics.UnrealizedGainLossPercent = metrics.UnrealizedGainLoss.Div(metrics.TotalCostBasis).Mul(oneHundred)
	}
	metrics.PriceStatistics = models.PriceStatistics{
		MaxPrice: maxPrice,
		MinPrice: minPrice,
		AvgPrice: priceSum.Div(decimal.NewFromInt(int64(len(rows)))),
	}
	return metrics, nil
}
