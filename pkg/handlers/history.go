package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/history"
)

// HistoryHandler exposes the question log.
type HistoryHandler struct {
	store  *history.Store
	logger *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(store *history.Store, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, logger: logger}
}

// RegisterRoutes registers the history handler's routes on the given mux.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/history", h.Recent)
}

// Recent handles GET /api/history requests. The optional limit query
// parameter caps the number of entries (default 20, max 100).
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, 100)
	}

	entries, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read question history", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to read history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	if err := WriteJSON(w, http.StatusOK, entries); err != nil {
		h.logger.Error("Failed to encode history response", zap.Error(err))
	}
}
