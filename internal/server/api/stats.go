package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goodtune/gameshelf/internal/collection"
)

// StatsHandler serves monthly and all-time statistics.
type StatsHandler struct {
	svc    *collection.Service
	owner  OwnerFunc
	logger zerolog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(svc *collection.Service, owner OwnerFunc, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		svc:    svc,
		owner:  owner,
		logger: logger.With().Str("handler", "stats").Logger(),
	}
}

// Month returns leaders, champion, podium and the daily tracker for a
// YYYY-MM month. Without a month in the path the current one is used.
func (h *StatsHandler) Month(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	report, err := h.svc.MonthStats(r.Context(), ownerID, mux.Vars(r)["month"])
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to build month statistics")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// AllTime ranks the whole collection; ?limit= caps the returned ranking.
func (h *StatsHandler) AllTime(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	report, err := h.svc.AllTimeStats(r.Context(), ownerID, limit)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to build all-time statistics")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}
