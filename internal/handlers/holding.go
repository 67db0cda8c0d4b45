package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfoliotracker/backend/internal/repositories"
)

type HoldingHandler struct {
	holdings repositories.HoldingRepository
	logger   *zap.Logger
}

func NewHoldingHandler(holdings repositories.HoldingRepository, logger *zap.Logger) *HoldingHandler {
	return &HoldingHandler{holdings: holdings, logger: logger}
}

// HandleGet handles GET /api/v1/holdings/{id}
// @Summary Get holding
// @Tags holdings
// @Produce json
// @Param id path string true "Holding ID"
// @Success 200 {object} models.Holding
// @Failure 404 {object} errorResponse
// @Router /holdings/{id} [get]
func (h *HoldingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	holding, err := h.holdings.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, holding)
}

// HandleDelete handles DELETE /api/v1/holdings/{id}
// @Summary Delete holding
// @Description Manually remove a position without recording a transaction
// @Tags holdings
// @Param id path string true "Holding ID"
// @Success 204 "No Content"
// @Failure 404 {object} errorResponse
// @Router /holdings/{id} [delete]
func (h *HoldingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.holdings.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
