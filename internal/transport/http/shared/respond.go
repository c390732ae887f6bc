// Package shared centralizes JSON response envelopes so every handler
// translates domain errors the same way.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "vifm-portal/pkg/domain-errors"
)

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError maps a domain error to its HTTP status and a consistent JSON
// error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":             string(code),
		"error_description": err.Error(),
	})
}
