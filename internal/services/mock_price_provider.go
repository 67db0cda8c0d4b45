package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfoliotracker/backend/internal/apperrors"
	"github.com/portfoliotracker/backend/internal/models"
)

// MockPriceProvider provides deterministic prices for testing and development
type MockPriceProvider struct {
	prices map[string]decimal.Decimal
}

// NewMockPriceProvider creates a mock provider with hardcoded quotes
func NewMockPriceProvider() *MockPriceProvider {
	return &MockPriceProvider{
		prices: map[string]decimal.Decimal{
			"AAPL":    decimal.NewFromFloat(185.50),
			"MSFT":    decimal.NewFromFloat(410.25),
			"GOOGL":   decimal.NewFromFloat(145.80),
			"VOO":     decimal.NewFromFloat(455.10),
			"BND":     decimal.NewFromFloat(72.35),
			"BTC-USD": decimal.NewFromFloat(50000.0),
			"ETH-USD": decimal.NewFromFloat(2500.0),
			"GLD":     decimal.NewFromFloat(190.40),
		},
	}
}

// SetPrice overrides or adds a quote; tests use this to steer outcomes.
func (p *MockPriceProvider) SetPrice(symbol string, price decimal.Decimal) {
	p.prices[strings.ToUpper(symbol)] = price
}

// RemovePrice makes a symbol unpriceable.
func (p *MockPriceProvider) RemovePrice(symbol string) {
	delete(p.prices, strings.ToUpper(symbol))
}

func (p *MockPriceProvider) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	price, ok := p.prices[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Zero, &apperrors.ProviderError{Symbol: symbol, Err: apperrors.ErrPriceUnavailable}
	}
	return price, nil
}

func (p *MockPriceProvider) GetCurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		if price, ok := p.prices[strings.ToUpper(symbol)]; ok {
			prices[symbol] = price
		}
	}
	return prices, nil
}

// GetHistoricalSeries synthesizes a short flat series ending at the current
// quote, enough for change-metric math without network access.
func (p *MockPriceProvider) GetHistoricalSeries(ctx context.Context, symbol, period, interval string) ([]models.PricePoint, error) {
	price, err := p.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	step := price.Div(decimal.NewFromInt(100))
	start := time.Now().UTC().AddDate(0, 0, -4).Truncate(24 * time.Hour)

	points := make([]models.PricePoint, 0, 5)
	for i := 0; i < 5; i++ {
		close := price.Sub(step.Mul(decimal.NewFromInt(int64(4 - i))))
		points = append(points, models.PricePoint{
			Date:   start.AddDate(0, 0, i),
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
			Volume: 1000,
		})
	}
	return points, nil
}

func (p *MockPriceProvider) GetAssetInfo(ctx context.Context, symbol string) (*models.AssetInfo, error) {
	price, err := p.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	upper := strings.ToUpper(symbol)
	assetType := models.AssetTypeStock
	if strings.HasSuffix(upper, "-USD") {
		assetType = models.AssetTypeCrypto
	}
	exchange := "MOCK"
	return &models.AssetInfo{
		Symbol:       upper,
		Name:         upper,
		Type:         assetType,
		Exchange:     &exchange,
		Currency:     "USD",
		CurrentPrice: &price,
	}, nil
}
