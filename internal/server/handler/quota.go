package handler

import (
	"log/slog"
	"net/http"

	"github.com/tundeabiola/surebet/internal/service"
)

// QuotaHandler exposes the daily quota state and the operator reset.
type QuotaHandler struct {
	query  *service.QueryService
	logger *slog.Logger
}

func NewQuotaHandler(query *service.QueryService, logger *slog.Logger) *QuotaHandler {
	return &QuotaHandler{
		query:  query,
		logger: logger.With(slog.String("handler", "quota")),
	}
}

// Get returns today's quota snapshot.
// GET /api/quota
func (h *QuotaHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.query.Quota(r.Context())
	if err != nil {
		h.logger.Error("quota snapshot failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":                   snap.Date,
		"surfaced_count":         snap.SurfacedCount,
		"limit":                  snap.Limit,
		"last_surfaced_match_id": snap.LastSurfacedMatchID,
		"exhausted":              snap.Exhausted(),
	})
}

// Reset clears today's quota and the opportunity cache.
// POST /api/quota/reset
func (h *QuotaHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.query.Reset(r.Context()); err != nil {
		h.logger.Error("reset failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
