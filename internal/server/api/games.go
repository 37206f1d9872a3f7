package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goodtune/gameshelf/internal/collection"
	"github.com/goodtune/gameshelf/internal/game"
)

// GameHandler handles catalogue API requests.
type GameHandler struct {
	svc    *collection.Service
	owner  OwnerFunc
	logger zerolog.Logger
}

// NewGameHandler creates a new game handler.
func NewGameHandler(svc *collection.Service, owner OwnerFunc, logger zerolog.Logger) *GameHandler {
	return &GameHandler{
		svc:    svc,
		owner:  owner,
		logger: logger.With().Str("handler", "game").Logger(),
	}
}

// List returns the owner's games. A storage failure still answers with an
// empty list next to the error.
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	games, err := h.svc.List(r.Context(), ownerID, r.URL.Query().Get("sort"))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("owner", ownerID).Msg("Failed to list games")
		}
		WriteJSON(w, status, map[string]interface{}{
			"games": []game.Game{},
			"count": 0,
			"error": err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

// Get returns a game with its derived statistics.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	view, err := h.svc.GameDetail(r.Context(), ownerID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to retrieve game")
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// Create adds a game to the collection.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	var details game.Details
	if !decodeBody(w, r, &details) {
		return
	}

	g, err := h.svc.Create(r.Context(), ownerID, details)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create game")
		return
	}

	WriteJSON(w, http.StatusCreated, g)
}

// Update replaces the descriptive fields of a game.
func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	var details game.Details
	if !decodeBody(w, r, &details) {
		return
	}

	g, err := h.svc.Update(r.Context(), ownerID, mux.Vars(r)["id"], details)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update game")
		return
	}

	WriteJSON(w, http.StatusOK, g)
}

// Delete removes a game.
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), ownerID, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete game")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
