package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goodtune/gameshelf/internal/collection"
	"github.com/goodtune/gameshelf/internal/game"
)

// PlayHandler records and removes plays.
type PlayHandler struct {
	svc    *collection.Service
	owner  OwnerFunc
	logger zerolog.Logger
}

// NewPlayHandler creates a new play handler.
func NewPlayHandler(svc *collection.Service, owner OwnerFunc, logger zerolog.Logger) *PlayHandler {
	return &PlayHandler{
		svc:    svc,
		owner:  owner,
		logger: logger.With().Str("handler", "play").Logger(),
	}
}

// PlayResponse is returned after a ledger change.
type PlayResponse struct {
	Game    *game.Game    `json:"game"`
	Session *game.Session `json:"session,omitempty"`
	Removed *bool         `json:"removed,omitempty"`
}

// Record adds one play. An empty body records a bare play today.
func (h *PlayHandler) Record(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	var req collection.PlayRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	g, session, err := h.svc.RecordPlay(r.Context(), ownerID, mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to record play")
		return
	}

	WriteJSON(w, http.StatusCreated, PlayResponse{Game: g, Session: session})
}

// Remove takes one play off the given day. ?session= names the session to
// drop when the day holds differing sessions.
func (h *PlayHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	g, removal, err := h.svc.RemovePlay(r.Context(), ownerID, vars["id"], vars["date"], r.URL.Query().Get("session"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to remove play")
		return
	}

	removed := removal.Removed
	WriteJSON(w, http.StatusOK, PlayResponse{Game: g, Session: removal.Session, Removed: &removed})
}
