package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoliotracker/backend/internal/apperrors"
	"github.com/portfoliotracker/backend/internal/models"
)

const chartFixture = `{
  "chart": {
    "result": [
      {
        "meta": {
          "currency": "USD",
          "exchangeName": "NMS",
          "instrumentType": "EQUITY",
          "regularMarketPrice": 185.5,
          "shortName": "Apple Inc.",
          "longName": "Apple Inc."
        },
        "timestamp": [1717200000, 1717286400, 1717372800],
        "indicators": {
          "quote": [
            {
              "open": [180.0, 182.5, 184.0],
              "high": [183.0, 185.0, 186.0],
              "low": [179.5, 181.0, 183.5],
              "close": [182.0, null, 185.5],
              "volume": [1000000, 900000, 1100000]
            }
          ]
        }
      }
    ],
    "error": null
  }
}`

const notFoundFixture = `{
  "chart": {
    "result": null,
    "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
  }
}`

func newChartServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v8/finance/chart/AAPL":
			w.Write([]byte(chartFixture))
		default:
			w.Write([]byte(notFoundFixture))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestYahooGetCurrentPrice(t *testing.T) {
	server := newChartServer(t)
	provider := NewYahooPriceProviderWithBaseURL(server.URL)

	price, err := provider.GetCurrentPrice(context.Background(), "aapl")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("185.5")))
}

func TestYahooGetCurrentPriceUnknownSymbol(t *testing.T) {
	server := newChartServer(t)
	provider := NewYahooPriceProviderWithBaseURL(server.URL)

	_, err := provider.GetCurrentPrice(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)

	var perr *apperrors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "NOPE", perr.Symbol)
}

func TestYahooGetCurrentPricesDropsFailures(t *testing.T) {
	server := newChartServer(t)
	provider := NewYahooPriceProviderWithBaseURL(server.URL)

	prices, err := provider.GetCurrentPrices(context.Background(), []string{"AAPL", "NOPE"})
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.True(t, prices["AAPL"].Equal(decimal.RequireFromString("185.5")))
}

func TestYahooGetHistoricalSeriesSkipsGaps(t *testing.T) {
	server := newChartServer(t)
	provider := NewYahooPriceProviderWithBaseURL(server.URL)

	points, err := provider.GetHistoricalSeries(context.Background(), "AAPL", "1mo", "1d")
	require.NoError(t, err)
	// The middle bar has a null close and is dropped.
	require.Len(t, points, 2)
	assert.True(t, points[0].Close.Equal(decimal.RequireFromString("182")))
	assert.True(t, points[1].Close.Equal(decimal.RequireFromString("185.5")))
	assert.EqualValues(t, 1000000, points[0].Volume)
}

func TestYahooGetAssetInfo(t *testing.T) {
	server := newChartServer(t)
	provider := NewYahooPriceProviderWithBaseURL(server.URL)

	info, err := provider.GetAssetInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", info.Symbol)
	assert.Equal(t, "Apple Inc.", info.Name)
	assert.Equal(t, models.AssetTypeStock, info.Type)
	assert.Equal(t, "USD", info.Currency)
	require.NotNil(t, info.Exchange)
	assert.Equal(t, "NMS", *info.Exchange)
	require.NotNil(t, info.CurrentPrice)
	assert.True(t, info.CurrentPrice.Equal(decimal.RequireFromString("185.5")))
}

func TestMapInstrumentType(t *testing.T) {
	tests := []struct {
		in   string
		want models.AssetType
	}{
		{"EQUITY", models.AssetTypeStock},
		{"ETF", models.AssetTypeETF},
		{"MUTUALFUND", models.AssetTypeETF},
		{"CRYPTOCURRENCY", models.AssetTypeCrypto},
		{"BOND", models.AssetTypeBond},
		{"FUTURE", models.AssetTypeCommodity},
		{"", models.AssetTypeStock},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapInstrumentType(tt.in), "instrument type %q", tt.in)
	}
}
