package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/portfoliotracker/backend/internal/db"
	"github.com/portfoliotracker/backend/internal/models"
	"github.com/portfoliotracker/backend/internal/repositories"
	"github.com/portfoliotracker/backend/internal/services"
)

func setupAPI(t *testing.T) *httptest.Server {
	server, _ := setupAPIWithProvider(t)
	return server
}

func setupAPIWithProvider(t *testing.T) (*httptest.Server, *services.MockPriceProvider) {
	t.Helper()

	database, err := db.ConnectSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { database.Close() })

	logger := zap.NewNop()
	portfolioRepo := repositories.NewPortfolioRepository(database)
	assetRepo := repositories.NewAssetRepository(database)
	holdingRepo := repositories.NewHoldingRepository(database)
	transactionRepo := repositories.NewTransactionRepository(database)

	engine := services.NewPortfolioService(database, holdingRepo, logger)
	analytics := services.NewAnalyticsService(database, logger)
	provider := services.NewMockPriceProvider()
	prices := services.NewPriceService(assetRepo, provider, logger)

	portfolioHandler := NewPortfolioHandler(portfolioRepo, holdingRepo, engine, analytics, prices, logger)
	assetHandler := NewAssetHandler(assetRepo, prices, logger)
	transactionHandler := NewTransactionHandler(transactionRepo, engine, logger)
	holdingHandler := NewHoldingHandler(holdingRepo, logger)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/portfolios", portfolioHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/portfolios", portfolioHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}", portfolioHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}", portfolioHandler.HandleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/portfolios/{id}", portfolioHandler.HandleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/portfolios/{id}/holdings", portfolioHandler.HandleHoldings).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}/performance", portfolioHandler.HandlePerformance).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}/diversification", portfolioHandler.HandleDiversification).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}/allocation", portfolioHandler.HandleAllocation).Methods(http.MethodGet)
	api.HandleFunc("/portfolios/{id}/metrics", portfolioHandler.HandleMetrics).Methods(http.MethodGet)
	api.HandleFunc("/assets", assetHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/assets", assetHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/assets/refresh-prices", assetHandler.HandleRefreshPrices).Methods(http.MethodPost)
	api.HandleFunc("/assets/lookup/{symbol}", assetHandler.HandleLookup).Methods(http.MethodGet)
	api.HandleFunc("/assets/lookup/{symbol}", assetHandler.HandleCreateFromLookup).Methods(http.MethodPost)
	api.HandleFunc("/assets/{id}", assetHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/transactions", transactionHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/transactions", transactionHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/holdings/{id}", holdingHandler.HandleGet).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, provider
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func createPortfolioAPI(t *testing.T, server *httptest.Server, name string) models.Portfolio {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/portfolios",
		map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p models.Portfolio
	require.NoError(t, json.Unmarshal(body, &p))
	return p
}

func createAssetAPI(t *testing.T, server *httptest.Server, symbol string, assetType models.AssetType, price string) models.Asset {
	t.Helper()
	payload := map[string]any{
		"symbol":     symbol,
		"name":       symbol + " test asset",
		"asset_type": assetType,
		"currency":   "USD",
	}
	if price != "" {
		payload["current_price"] = price
	}
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/assets", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var a models.Asset
	require.NoError(t, json.Unmarshal(body, &a))
	return a
}

func postTransaction(t *testing.T, server *httptest.Server, portfolioID, assetID string, txType models.TransactionType, quantity, price string) (*http.Response, []byte) {
	t.Helper()
	return doJSON(t, http.MethodPost, server.URL+"/api/v1/transactions", map[string]any{
		"portfolio_id":     portfolioID,
		"asset_id":         assetID,
		"transaction_type": txType,
		"quantity":         quantity,
		"price":            price,
		"fees":             "0",
		"total_amount":     "0",
		"transaction_date": time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
	})
}

func TestPortfolioLifecycle(t *testing.T) {
	server := setupAPI(t)

	p := createPortfolioAPI(t, server, "retirement")
	require.NotEmpty(t, p.ID)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/portfolios/"+p.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodPut, server.URL+"/api/v1/portfolios/"+p.ID,
		map[string]string{"name": "renamed"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated models.Portfolio
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "renamed", updated.Name)

	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/api/v1/portfolios/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/portfolios/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "not_found", errResp.Code)
}

func TestCreatePortfolioValidation(t *testing.T) {
	server := setupAPI(t)
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/portfolios",
		map[string]string{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "validation_error", errResp.Code)
}

func TestTransactionFlowOverAPI(t *testing.T) {
	server := setupAPI(t)
	p := createPortfolioAPI(t, server, "trading")
	a := createAssetAPI(t, server, "AAPL", models.AssetTypeStock, "150")

	resp, body := postTransaction(t, server, p.ID, a.ID, models.TransactionTypeBuy, "10", "150")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var receipt models.TransactionReceipt
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, "processed", receipt.Status)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/portfolios/"+p.ID+"/holdings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var holdings []models.Holding
	require.NoError(t, json.Unmarshal(body, &holdings))
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Quantity.Equal(decimal.NewFromInt(10)))
}

func TestOversellReturnsBadRequest(t *testing.T) {
	server := setupAPI(t)
	p := createPortfolioAPI(t, server, "trading")
	a := createAssetAPI(t, server, "AAPL", models.AssetTypeStock, "150")

	resp, body := postTransaction(t, server, p.ID, a.ID, models.TransactionTypeBuy, "10", "150")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = postTransaction(t, server, p.ID, a.ID, models.TransactionTypeSell, "11", "180")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "insufficient_holdings", errResp.Code)

	// The rejected sell left no transaction behind.
	resp, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/v1/transactions?portfolio_id=%s", server.URL, p.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var transactions []models.Transaction
	require.NoError(t, json.Unmarshal(body, &transactions))
	assert.Len(t, transactions, 1)
}

func TestPerformanceEndpoint(t *testing.T) {
	server := setupAPI(t)
	p := createPortfolioAPI(t, server, "mixed")
	aapl := createAssetAPI(t, server, "AAPL", models.AssetTypeStock, "150")
	cash := createAssetAPI(t, server, "USD-CASH", models.AssetTypeCash, "1")

	resp, body := postTransaction(t, server, p.ID, aapl.ID, models.TransactionTypeBuy, "10", "150")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	resp, body = postTransaction(t, server, p.ID, cash.ID, models.TransactionTypeBuy, "500", "1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/portfolios/"+p.ID+"/performance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var valuation models.PortfolioValuation
	require.NoError(t, json.Unmarshal(body, &valuation))
	assert.True(t, valuation.TotalValue.Equal(decimal.NewFromInt(2000)),
		"total value = %s", valuation.TotalValue)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/portfolios/"+p.ID+"/diversification", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var div models.Diversification
	require.NoError(t, json.Unmarshal(body, &div))
	assert.True(t, div.ByAssetType["stock"].Equal(decimal.NewFromInt(75)))
	assert.True(t, div.ByAssetType["cash"].Equal(decimal.NewFromInt(25)))
}

func TestPerformanceEndpointWithRefresh(t *testing.T) {
	server, provider := setupAPIWithProvider(t)
	p := createPortfolioAPI(t, server, "fresh")
	a := createAssetAPI(t, server, "MSFT", models.AssetTypeStock, "100")
	provider.SetPrice("MSFT", decimal.NewFromInt(120))

	resp, body := postTransaction(t, server, p.ID, a.ID, models.TransactionTypeBuy, "10", "100")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	// Without refresh the stored price values the position at 1000.
	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/portfolios/"+p.ID+"/performance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var valuation models.PortfolioValuation
	require.NoError(t, json.Unmarshal(body, &valuation))
	assert.True(t, valuation.TotalValue.Equal(decimal.NewFromInt(1000)))

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/portfolios/"+p.ID+"/performance?refresh=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &valuation))
	assert.True(t, valuation.TotalValue.Equal(decimal.NewFromInt(1200)),
		"total value after refresh = %s, want 1200", valuation.TotalValue)
}

func TestAssetLookupEndpoint(t *testing.T) {
	server := setupAPI(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/assets/lookup/AAPL", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var info models.AssetInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "AAPL", info.Symbol)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/assets/lookup/UNKNOWN-XYZ", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "price_unavailable", errResp.Code)
}

func TestCreateAssetFromLookup(t *testing.T) {
	server := setupAPI(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/assets/lookup/VOO", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created models.Asset
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "VOO", created.Symbol)
	assert.True(t, created.HasPrice())

	// Posting again returns the stored asset instead of a duplicate error.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/assets/lookup/VOO", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var again models.Asset
	require.NoError(t, json.Unmarshal(body, &again))
	assert.Equal(t, created.ID, again.ID)
}

func TestRefreshPricesEndpoint(t *testing.T) {
	server := setupAPI(t)
	createAssetAPI(t, server, "AAPL", models.AssetTypeStock, "")
	createAssetAPI(t, server, "USD-CASH", models.AssetTypeCash, "1")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/assets/refresh-prices", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var result models.PriceRefreshResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped)
}
