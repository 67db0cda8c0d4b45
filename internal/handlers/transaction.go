package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfoliotracker/backend/internal/models"
	"github.com/portfoliotracker/backend/internal/repositories"
	"github.com/portfoliotracker/backend/internal/services"
)

type TransactionHandler struct {
	transactions repositories.TransactionRepository
	engine       services.PortfolioService
	logger       *zap.Logger
}

func NewTransactionHandler(transactions repositories.TransactionRepository, engine services.PortfolioService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, engine: engine, logger: logger}
}

// HandleCreate handles POST /api/v1/transactions
// @Summary Process transaction
// @Description Record a transaction and reconcile holdings in one atomic operation
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body models.Transaction true "Transaction"
// @Success 201 {object} models.TransactionReceipt
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /transactions [post]
func (h *TransactionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var tx models.Transaction
	if !decodeBody(w, r, &tx) {
		return
	}
	receipt, err := h.engine.ProcessTransaction(r.Context(), &tx)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// HandleList handles GET /api/v1/transactions
// @Summary List transactions
// @Description List transactions filtered by portfolio, asset, type and date range
// @Tags transactions
// @Produce json
// @Param portfolio_id query string false "Filter by portfolio"
// @Param asset_id query string false "Filter by asset"
// @Param type query string false "Filter by transaction type"
// @Param start_date query string false "RFC 3339 lower bound"
// @Param end_date query string false "RFC 3339 upper bound"
// @Param limit query int false "Limit results"
// @Param offset query int false "Offset results"
// @Success 200 {array} models.Transaction
// @Router /transactions [get]
func (h *TransactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := &models.TransactionFilter{
		PortfolioID: r.URL.Query().Get("portfolio_id"),
		AssetID:     r.URL.Query().Get("asset_id"),
	}
	filter.Limit, filter.Offset = pagination(r)

	if t := r.URL.Query().Get("type"); t != "" {
		filter.Types = []models.TransactionType{models.TransactionType(t)}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			filter.StartDate = &parsed
		}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			filter.EndDate = &parsed
		}
	}

	transactions, err := h.transactions.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

// HandleGet handles GET /api/v1/transactions/{id}
// @Summary Get transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} errorResponse
// @Router /transactions/{id} [get]
func (h *TransactionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tx, err := h.transactions.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// HandleUpdate handles PUT /api/v1/transactions/{id}
// @Summary Update transaction
// @Description Correct a stored record; holdings are not re-reconciled
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param transaction body models.Transaction true "Transaction"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} errorResponse
// @Router /transactions/{id} [put]
func (h *TransactionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var tx models.Transaction
	if !decodeBody(w, r, &tx) {
		return
	}
	tx.ID = mux.Vars(r)["id"]
	if err := h.transactions.Update(r.Context(), &tx); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// HandleDelete handles DELETE /api/v1/transactions/{id}
// @Summary Delete transaction
// @Description Remove a stored record; holdings are not re-reconciled
// @Tags transactions
// @Param id path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} errorResponse
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.transactions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
