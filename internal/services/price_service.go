package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/portfoliotracker/backend/internal/models"
	"github.com/portfoliotracker/backend/internal/repositories"
)

const (
	defaultHistoryPeriod   = "1y"
	defaultHistoryInterval = "1d"
)

type priceService struct {
	assets   repositories.AssetRepository
	provider PriceProvider
	logger   *zap.Logger
}

// NewPriceService creates the price service on top of a market data provider.
func NewPriceService(assets repositories.AssetRepository, provider PriceProvider, logger *zap.Logger) PriceService {
	return &priceService{assets: assets, provider: provider, logger: logger}
}

// RefreshPrices fetches current prices for the requested assets and stores
// them. Cash is pegged at its face value and skipped. A symbol the provider
// cannot price is reported in Failed and keeps its previous stored price.
func (s *priceService) RefreshPrices(ctx context.Context, assetIDs []string) (*models.PriceRefreshResult, error) {
	var assets []*models.Asset
	var err error
	if len(assetIDs) > 0 {
		assets, err = s.assets.ListByIDs(ctx, assetIDs)
	} else {
		assets, err = s.assets.List(ctx, 0, 0)
	}
	if err != nil {
		return nil, err
	}

	result := &models.PriceRefreshResult{Failed: []string{}}

	refreshable := make([]*models.Asset, 0, len(assets))
	symbols := make([]string, 0, len(assets))
	for _, a := range assets {
		if a.Type == models.AssetTypeCash {
			result.Skipped++
			continue
		}
		refreshable = append(refreshable, a)
		symbols = append(symbols, a.Symbol)
	}
	if len(refreshable) == 0 {
		return result, nil
	}

	prices, err := s.provider.GetCurrentPrices(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	now := time.Now().UTC()
	for _, a := range refreshable {
		price, ok := prices[a.Symbol]
		if !ok {
			s.logger.Warn("price unavailable, keeping stale price",
				zap.String("symbol", a.Symbol))
			result.Failed = append(result.Failed, a.Symbol)
			continue
		}
		if err := s.assets.UpdatePrice(ctx, a.ID, price, now); err != nil {
			s.logger.Error("failed to store refreshed price",
				zap.String("symbol", a.Symbol), zap.Error(err))
			result.Failed = append(result.Failed, a.Symbol)
			continue
		}
		result.Updated++
	}

	s.logger.Info("price refresh finished",
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// GetHistoricalData returns the provider's OHLCV series for a symbol along
// with change metrics derived from the series itself. An empty series is a
// valid response with zeroed metrics.
func (s *priceService) GetHistoricalData(ctx context.Context, symbol, period, interval string) (*models.HistoricalSeries, error) {
	if period == "" {
		period = defaultHistoryPeriod
	}
	if interval == "" {
		interval = defaultHistoryInterval
	}

	points, err := s.provider.GetHistoricalSeries(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}

	series := &models.HistoricalSeries{
		Symbol:     symbol,
		Name:       symbol,
		Currency:   "USD",
		Period:     period,
		Interval:   interval,
		Data:       points,
		DataPoints: len(points),
	}
	if info, err := s.provider.GetAssetInfo(ctx, symbol); err == nil {
		series.Name = info.Name
		series.Currency = info.Currency
		if info.Exchange != nil {
			series.Exchange = *info.Exchange
		}
	}

	if len(points) == 0 {
		return series, nil
	}

	last := points[len(points)-1]
	series.CurrentPrice = last.Close
	if len(points) > 1 {
		previous := points[len(points)-2].Close
		series.DailyChange = last.Close.Sub(previous)
		if previous.IsPositive() {
			series.DailyChangePercent = series.DailyChange.Div(previous).Mul(oneHundred)
		}
	}
	first := points[0].Close
	series.PeriodChange = last.Close.Sub(first)
	if first.IsPositive() {
		series.PeriodChangePercent = series.PeriodChange.Div(first).Mul(oneHundred)
	}
	return series, nil
}

// LookupAsset asks the provider to describe a symbol, typically ahead of
// creating it as a local asset.
func (s *priceService) LookupAsset(ctx context.Context, symbol string) (*models.AssetInfo, error) {
	return s.provider.GetAssetInfo(ctx, symbol)
}
