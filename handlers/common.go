package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// SetNoCacheHeaders sets HTTP headers to prevent caching.
func SetNoCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// WriteJSON writes a JSON response with the given status code. API responses
// are never cacheable; the UI re-fetches after every mutation.
func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	SetNoCacheHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", slog.Any("error", err))
	}
}
