package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfoliotracker/backend/internal/models"
	"github.com/portfoliotracker/backend/internal/repositories"
	"github.com/portfoliotracker/backend/internal/services"
)

type PortfolioHandler struct {
	portfolios repositories.PortfolioRepository
	holdings   repositories.HoldingRepository
	engine     services.PortfolioService
	analytics  services.AnalyticsService
	prices     services.PriceService
	logger     *zap.Logger
}

func NewPortfolioHandler(
	portfolios repositories.PortfolioRepository,
	holdings repositories.HoldingRepository,
	engine services.PortfolioService,
	analytics services.AnalyticsService,
	prices services.PriceService,
	logger *zap.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		holdings:   holdings,
		engine:     engine,
		analytics:  analytics,
		prices:     prices,
		logger:     logger,
	}
}

// HandleCreate handles POST /api/v1/portfolios
// @Summary Create portfolio
// @Description Create a new portfolio
// @Tags portfolios
// @Accept json
// @Produce json
// @Param portfolio body models.Portfolio true "Portfolio"
// @Success 201 {object} models.Portfolio
// @Failure 400 {object} errorResponse
// @Router /portfolios [post]
func (h *PortfolioHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var p models.Portfolio
	if !decodeBody(w, r, &p) {
		return
	}
	if err := h.portfolios.Create(r.Context(), &p); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// HandleList handles GET /api/v1/portfolios
// @Summary List portfolios
// @Tags portfolios
// @Produce json
// @Param limit query int false "Limit results"
// @Param offset query int false "Offset results"
// @Success 200 {array} models.Portfolio
// @Router /portfolios [get]
func (h *PortfolioHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	portfolios, err := h.portfolios.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, portfolios)
}

// HandleGet handles GET /api/v1/portfolios/{id}
// @Summary Get portfolio
// @Description Retrieve a portfolio with its holdings
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} models.Portfolio
// @Failure 404 {object} errorResponse
// @Router /portfolios/{id} [get]
func (h *PortfolioHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.portfolios.GetWithHoldings(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// HandleUpdate handles PUT /api/v1/portfolios/{id}
// @Summary Update portfolio
// @Tags portfolios
// @Accept json
// @Produce json
// @Param id path string true "Portfolio ID"
// @Param portfolio body models.Portfolio true "Portfolio"
// @Success 200 {object} models.Portfolio
// @Failure 404 {object} errorResponse
// @Router /portfolios/{id} [put]
func (h *PortfolioHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var p models.Portfolio
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = mux.Vars(r)["id"]
	if err := h.portfolios.Update(r.Context(), &p); err != nil {
		respondError(w, h.logger, err)
		return
	}
	updated, err := h.portfolios.GetByID(r.Context(), p.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/v1/portfolios/{id}
// @Summary Delete portfolio
// @Description Delete a portfolio with its holdings and transactions
// @Tags portfolios
// @Param id path string true "Portfolio ID"
// @Success 204 "No Content"
// @Failure 404 {object} errorResponse
// @Router /portfolios/{id} [delete]
func (h *PortfolioHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.portfolios.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHoldings handles GET /api/v1/portfolios/{id}/holdings
// @Summary List holdings
// @Description List the current positions of a portfolio
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {array} models.Holding
// @Router /portfolios/{id}/holdings [get]
func (h *PortfolioHandler) HandleHoldings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.portfolios.GetByID(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	holdings, err := h.holdings.ListByPortfolio(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, holdings)
}

// HandlePerformance handles GET /api/v1/portfolios/{id}/performance
// @Summary Portfolio valuation
// @Description Current value, cost basis and gain/loss across priced holdings; refresh=true pulls fresh prices for the portfolio's assets first
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Param refresh query bool false "Refresh prices before valuing"
// @Success 200 {object} models.PortfolioValuation
// @Failure 404 {object} errorResponse
// @Router /portfolios/{id}/performance [get]
func (h *PortfolioHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if r.URL.Query().Get("refresh") == "true" {
		h.refreshPortfolioPrices(r, id)
	}
	valuation, err := h.engine.CalculatePortfolioValue(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, valuation)
}

// HandleDiversification handles GET /api/v1/portfolios/{id}/diversification
// @Summary Portfolio diversification
// @Description Percentage breakdown by asset type and individual holding
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} models.Diversification
// @Failure 404 {object} errorResponse
// @Router /portfolios/{id}/diversification [get]
func (h *PortfolioHandler) HandleDiversification(w http.ResponseWriter, r *http.Request) {
	div, err := h.engine.GetPortfolioDiversification(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, div)
}

// HandleAllocation handles GET /api/v1/portfolios/{id}/allocation
// @Summary Asset allocation
// @Description Value breakdown by asset type and by currency
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} models.AllocationReport
// @Failure 404 {object} errorResponse
// @Router /portfolios/{id}/allocation [get]
func (h *PortfolioHandler) HandleAllocation(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.GetAssetAllocation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// HandleMetrics handles GET /api/v1/portfolios/{id}/metrics
// @Summary Performance metrics
// @Description Aggregate market value, cost basis and price statistics
// @Tags portfolios
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {object} models.PerformanceMetrics
// @Failure 404 {object} errorResponse
// @Router /portfolios/{id}/metrics [get]
func (h *PortfolioHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.analytics.GetPerformanceMetrics(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// refreshPortfolioPrices best-effort refreshes the prices of the assets held
// in a portfolio. A provider outage degrades to stale prices, never to a
// failed valuation.
func (h *PortfolioHandler) refreshPortfolioPrices(r *http.Request, portfolioID string) {
	holdings, err := h.holdings.ListByPortfolio(r.Context(), portfolioID)
	if err != nil || len(holdings) == 0 {
		return
	}
	assetIDs := make([]string, 0, len(holdings))
	for _, holding := range holdings {
		assetIDs = append(assetIDs, holding.AssetID)
	}
	if _, err := h.prices.RefreshPrices(r.Context(), assetIDs); err != nil {
		h.logger.Warn("price refresh before valuation failed, using stored prices",
			zap.String("portfolio_id", portfolioID), zap.Error(err))
	}
}

func pagination(r *http.Request) (limit, offset int) {
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
