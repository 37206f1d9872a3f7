// Package api holds the JSON handlers for a user's game collection.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/goodtune/gameshelf/internal/collection"
	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/storage"
)

// maxBodySize bounds request bodies; imports are the largest.
const maxBodySize = 32 << 20

// OwnerFunc resolves the collection owner of an authenticated request.
type OwnerFunc func(ctx context.Context) (string, bool)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error      string         `json:"error"`
	Message    string         `json:"message,omitempty"`
	Code       int            `json:"code"`
	Candidates []game.Session `json:"candidates,omitempty"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, `{"error":"Internal Server Error","message":"Failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// statusFor maps collection and storage errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, collection.ErrInvalid), errors.Is(err, game.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, game.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrAmbiguousRemoval):
		return http.StatusConflict
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports err to the client. Server-side failures are
// logged and hidden behind fallback.
func writeServiceError(w http.ResponseWriter, logger zerolog.Logger, err error, fallback string) {
	status := statusFor(err)

	var ambiguous *game.AmbiguousRemovalError
	switch {
	case errors.As(err, &ambiguous):
		WriteJSON(w, status, ErrorResponse{
			Error:      http.StatusText(status),
			Message:    "Several differing sessions exist on " + ambiguous.Day + ", name one with ?session=",
			Code:       status,
			Candidates: ambiguous.Candidates,
		})
	case status >= http.StatusInternalServerError:
		logger.Error().Err(err).Msg(fallback)
		WriteError(w, status, fallback)
	default:
		WriteError(w, status, err.Error())
	}
}

// owner writes 401 and reports false when the request carries no owner.
func owner(w http.ResponseWriter, r *http.Request, resolve OwnerFunc) (string, bool) {
	id, ok := resolve(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "User not authenticated")
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decode(w, r, v, false)
}

// decodeOptionalBody accepts an empty body and leaves v untouched.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decode(w, r, v, true)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
