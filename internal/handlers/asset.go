package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfoliotracker/backend/internal/models"
	"github.com/portfoliotracker/backend/internal/repositories"
	"github.com/portfoliotracker/backend/internal/services"
)

type AssetHandler struct {
	assets repositories.AssetRepository
	prices services.PriceService
	logger *zap.Logger
}

func NewAssetHandler(assets repositories.AssetRepository, prices services.PriceService, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{assets: assets, prices: prices, logger: logger}
}

// HandleCreate handles POST /api/v1/assets
// @Summary Create asset
// @Tags assets
// @Accept json
// @Produce json
// @Param asset body models.Asset true "Asset"
// @Success 201 {object} models.Asset
// @Failure 400 {object} errorResponse
// @Router /assets [post]
func (h *AssetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var a models.Asset
	if !decodeBody(w, r, &a) {
		return
	}
	if err := h.assets.Create(r.Context(), &a); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// HandleList handles GET /api/v1/assets
// @Summary List assets
// @Description List assets, optionally filtered by a symbol/name search query
// @Tags assets
// @Produce json
// @Param q query string false "Search query"
// @Param limit query int false "Limit results"
// @Param offset query int false "Offset results"
// @Success 200 {array} models.Asset
// @Router /assets [get]
func (h *AssetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	if q := r.URL.Query().Get("q"); q != "" {
		assets, err := h.assets.Search(r.Context(), q, limit)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		respondJSON(w, http.StatusOK, assets)
		return
	}
	assets, err := h.assets.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, assets)
}

// HandleGet handles GET /api/v1/assets/{id}
// @Summary Get asset
// @Tags assets
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} models.Asset
// @Failure 404 {object} errorResponse
// @Router /assets/{id} [get]
func (h *AssetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.assets.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// HandleUpdate handles PUT /api/v1/assets/{id}
// @Summary Update asset
// @Description Update asset metadata; the symbol is immutable
// @Tags assets
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param asset body models.Asset true "Asset"
// @Success 200 {object} models.Asset
// @Failure 404 {object} errorResponse
// @Router /assets/{id} [put]
func (h *AssetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var a models.Asset
	if !decodeBody(w, r, &a) {
		return
	}
	a.ID = mux.Vars(r)["id"]
	if err := h.assets.Update(r.Context(), &a); err != nil {
		respondError(w, h.logger, err)
		return
	}
	updated, err := h.assets.GetByID(r.Context(), a.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/v1/assets/{id}
// @Summary Delete asset
// @Tags assets
// @Param id path string true "Asset ID"
// @Success 204 "No Content"
// @Failure 404 {object} errorResponse
// @Router /assets/{id} [delete]
func (h *AssetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.assets.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLookup handles GET /api/v1/assets/lookup/{symbol}
// @Summary Look up a symbol
// @Description Ask the market data provider to describe a symbol
// @Tags assets
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Success 200 {object} models.AssetInfo
// @Failure 404 {object} errorResponse
// @Router /assets/lookup/{symbol} [get]
func (h *AssetHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	info, err := h.prices.LookupAsset(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// HandleCreateFromLookup handles POST /api/v1/assets/lookup/{symbol}
// @Summary Create asset from lookup
// @Description Look a symbol up with the provider and create it as a local asset; returns the stored asset when the symbol already exists
// @Tags assets
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Success 200 {object} models.Asset
// @Success 201 {object} models.Asset
// @Failure 404 {object} errorResponse
// @Router /assets/lookup/{symbol} [post]
func (h *AssetHandler) HandleCreateFromLookup(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if existing, err := h.assets.GetBySymbol(r.Context(), symbol); err == nil {
		respondJSON(w, http.StatusOK, existing)
		return
	}
	info, err := h.prices.LookupAsset(r.Context(), symbol)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	a := &models.Asset{
		Symbol:       info.Symbol,
		Name:         info.Name,
		Type:         info.Type,
		Exchange:     info.Exchange,
		Currency:     info.Currency,
		CurrentPrice: info.CurrentPrice,
	}
	if err := h.assets.Create(r.Context(), a); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

type refreshPricesRequest struct {
	AssetIDs []string `json:"asset_ids"`
}

// HandleRefreshPrices handles POST /api/v1/assets/refresh-prices
// @Summary Refresh stored prices
// @Description Fetch current prices for the given assets (all when omitted); cash is skipped and failed symbols keep their stale price
// @Tags assets
// @Accept json
// @Produce json
// @Param request body refreshPricesRequest false "Asset IDs to refresh"
// @Success 200 {object} models.PriceRefreshResult
// @Failure 502 {object} errorResponse
// @Router /assets/refresh-prices [post]
func (h *AssetHandler) HandleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	var req refreshPricesRequest
	if r.Body != nil && r.ContentLength > 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}
	result, err := h.prices.RefreshPrices(r.Context(), req.AssetIDs)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleHistorical handles GET /api/v1/assets/historical/{symbol}
// @Summary Historical prices
// @Description OHLCV series for a symbol with daily and period change metrics
// @Tags assets
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Param period query string false "Range, e.g. 1mo, 1y" default(1y)
// @Param interval query string false "Bar size, e.g. 1d, 1wk" default(1d)
// @Success 200 {object} models.HistoricalSeries
// @Failure 404 {object} errorResponse
// @Router /assets/historical/{symbol} [get]
func (h *AssetHandler) HandleHistorical(w http.ResponseWriter, r *http.Request) {
	series, err := h.prices.GetHistoricalData(r.Context(),
		mux.Vars(r)["symbol"],
		r.URL.Query().Get("period"),
		r.URL.Query().Get("interval"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, series)
}
