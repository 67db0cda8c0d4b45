package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfoliotracker/backend/internal/apperrors"
	"github.com/portfoliotracker/backend/internal/models"
)

// Yahoo Finance chart API implementation (no API key required).
type YahooPriceProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewYahooPriceProvider creates a provider backed by the public Yahoo chart
// endpoint.
func NewYahooPriceProvider() PriceProvider {
	return &YahooPriceProvider{
		baseURL:    "https://query1.finance.yahoo.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewYahooPriceProviderWithBaseURL is used by tests to point the provider at
// a local server.
func NewYahooPriceProviderWithBaseURL(baseURL string) PriceProvider {
	return &YahooPriceProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				ExchangeName       string  `json:"exchangeName"`
				InstrumentType     string  `json:"instrumentType"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ShortName          string  `json:"shortName"`
				LongName           string  `json:"longName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *YahooPriceProvider) fetchChart(ctx context.Context, symbol, period, interval string) (*yahooChartResponse, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		p.baseURL, url.PathEscape(strings.ToUpper(symbol)), url.QueryEscape(period), url.QueryEscape(interval))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "portfoliotracker/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.ProviderError{Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, &apperrors.ProviderError{Symbol: symbol, Err: apperrors.ErrPriceUnavailable}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.ProviderError{Symbol: symbol, Err: fmt.Errorf("yahoo status %d", resp.StatusCode)}
	}

	var payload yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &apperrors.ProviderError{Symbol: symbol, Err: err}
	}
	if payload.Chart.Error != nil || len(payload.Chart.Result) == 0 {
		return nil, &apperrors.ProviderError{Symbol: symbol, Err: apperrors.ErrPriceUnavailable}
	}
	return &payload, nil
}

func (p *YahooPriceProvider) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	payload, err := p.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return decimal.Zero, err
	}
	price := payload.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return decimal.Zero, &apperrors.ProviderError{Symbol: symbol, Err: apperrors.ErrPriceUnavailable}
	}
	return decimal.NewFromFloat(price), nil
}

// GetCurrentPrices fetches each symbol independently. A symbol that fails for
// any reason, transport errors included, is dropped from the result; callers
// see such failures only as absence from the map, and the refresh layer then
// records the symbol as failed and keeps its stale price.
func (p *YahooPriceProvider) GetCurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		price, err := p.GetCurrentPrice(ctx, symbol)
		if err != nil {
			continue
		}
		prices[symbol] = price
	}
	return prices, nil
}

func (p *YahooPriceProvider) GetHistoricalSeries(ctx context.Context, symbol, period, interval string) ([]models.PricePoint, error) {
	payload, err := p.fetchChart(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return []models.PricePoint{}, nil
	}
	quote := result.Indicators.Quote[0]

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Bars with a missing close are gaps in the feed, not zeroes.
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		point := models.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: decimal.NewFromFloat(*quote.Close[i]),
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			point.Open = decimal.NewFromFloat(*quote.Open[i])
		}
		if i < len(quote.High) && quote.High[i] != nil {
			point.High = decimal.NewFromFloat(*quote.High[i])
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			point.Low = decimal.NewFromFloat(*quote.Low[i])
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			point.Volume = *quote.Volume[i]
		}
		points = append(points, point)
	}
	return points, nil
}

func (p *YahooPriceProvider) GetAssetInfo(ctx context.Context, symbol string) (*models.AssetInfo, error) {
	payload, err := p.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}
	meta := payload.Chart.Result[0].Meta

	info := &models.AssetInfo{
		Symbol:   strings.ToUpper(symbol),
		Name:     meta.LongName,
		Type:     mapInstrumentType(meta.InstrumentType),
		Currency: meta.Currency,
	}
	if info.Name == "" {
		info.Name = meta.ShortName
	}
	if info.Name == "" {
		info.Name = info.Symbol
	}
	if info.Currency == "" {
		info.Currency = "USD"
	}
	if meta.ExchangeName != "" {
		exchange := meta.ExchangeName
		info.Exchange = &exchange
	}
	if meta.RegularMarketPrice > 0 {
		price := decimal.NewFromFloat(meta.RegularMarketPrice)
		info.CurrentPrice = &price
	}
	return info, nil
}

func mapInstrumentType(instrumentType string) models.AssetType {
	switch strings.ToUpper(instrumentType) {
	case "EQUITY":
		return models.AssetTypeStock
	case "ETF", "MUTUALFUND":
		return models.AssetTypeETF
	case "CRYPTOCURRENCY":
		return models.AssetTypeCrypto
	case "BOND":
		return models.AssetTypeBond
	case "FUTURE", "COMMODITY":
		return models.AssetTypeCommodity
	default:
		return models.AssetTypeStock
	}
}
