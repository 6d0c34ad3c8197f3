// Package httputil provides shared helpers for writing HTTP
// responses.
package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response with the given status code.
// The body carries a machine-readable error code and a human-readable
// message.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   errCode,
		"message": message,
	})
}

// WriteBlocked writes the 404 response the proxy answers with when a
// request is neither mocked nor allowed to pass through.
func WriteBlocked(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "blocked", message)
}

// WriteBadGateway writes the 502 response used when forwarding a
// request upstream fails.
func WriteBadGateway(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, "upstream_error", message)
}
