package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/portfoliotracker/backend/internal/apperrors"
)

// errorResponse is the JSON error body shared by all endpoints.
type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps domain errors to HTTP statuses. Anything unmapped is a
// 500 with a generic body so internals do not leak to clients.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var validation *apperrors.ErrValidation
	if errors.As(err, &validation) {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: validation.Error(),
			Code:  "validation_error",
		})
		return
	}

	var notFound *apperrors.NotFoundError
	if errors.As(err, &notFound) {
		respondJSON(w, http.StatusNotFound, errorResponse{
			Error: notFound.Error(),
			Code:  "not_found",
		})
		return
	}

	var insufficient *apperrors.InsufficientHoldingsError
	if errors.As(err, &insufficient) {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: insufficient.Error(),
			Code:  "insufficient_holdings",
			Details: map[string]string{
				"symbol":    insufficient.Symbol,
				"held":      insufficient.Held.String(),
				"requested": insufficient.Requested.String(),
			},
		})
		return
	}

	var provider *apperrors.ProviderError
	if errors.As(err, &provider) {
		if errors.Is(provider.Err, apperrors.ErrPriceUnavailable) {
			respondJSON(w, http.StatusNotFound, errorResponse{
				Error: provider.Error(),
				Code:  "price_unavailable",
			})
			return
		}
		respondJSON(w, http.StatusBadGateway, errorResponse{
			Error: provider.Error(),
			Code:  "provider_error",
		})
		return
	}

	logger.Error("request failed", zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "internal server error",
		Code:  "internal_error",
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "invalid_body",
		})
		return false
	}
	return true
}
