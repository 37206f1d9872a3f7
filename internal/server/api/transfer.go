package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/goodtune/gameshelf/internal/collection"
)

// TransferHandler exports and imports whole collections.
type TransferHandler struct {
	svc    *collection.Service
	owner  OwnerFunc
	logger zerolog.Logger
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(svc *collection.Service, owner OwnerFunc, logger zerolog.Logger) *TransferHandler {
	return &TransferHandler{
		svc:    svc,
		owner:  owner,
		logger: logger.With().Str("handler", "transfer").Logger(),
	}
}

// Export returns the collection as a downloadable JSON document.
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	export, err := h.svc.Export(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to export collection")
		return
	}

	filename := fmt.Sprintf("gameshelf-%s.json", export.ExportedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	WriteJSON(w, http.StatusOK, export)
}

// Import replaces the collection with the posted export document.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r, h.owner)
	if !ok {
		return
	}

	var data collection.Export
	if !decodeBody(w, r, &data) {
		return
	}

	n, err := h.svc.Import(r.Context(), ownerID, data)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to import collection")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"imported": n,
	})
}
