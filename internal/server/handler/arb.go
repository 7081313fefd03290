// Package handler implements the HTTP API handlers.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tundeabiola/surebet/internal/domain"
	"github.com/tundeabiola/surebet/internal/service"
)

// ArbHandler serves the next-opportunity endpoint.
type ArbHandler struct {
	query  *service.QueryService
	logger *slog.Logger
}

func NewArbHandler(query *service.QueryService, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{
		query:  query,
		logger: logger.With(slog.String("handler", "arb")),
	}
}

// Next returns the next unsurfaced arbitrage opportunity, or the limit /
// nothing-available status with the current quota progress.
// GET /api/arb/next
func (h *ArbHandler) Next(w http.ResponseWriter, r *http.Request) {
	res, err := h.query.Next(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrSourceUnavailable) {
			writeError(w, http.StatusBadGateway, "odds source unavailable")
			return
		}
		if errors.Is(err, domain.ErrStateConflict) {
			writeError(w, http.StatusConflict, "concurrent update, try again")
			return
		}
		h.logger.Error("next failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
