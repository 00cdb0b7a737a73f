package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the payload inside the {"error": ...} envelope. Details is
// reserved for structured validation output and omitted when empty.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONData wraps v in the {"data": ...} envelope used by every successful
// response. List endpoints that carry pagination build the envelope themselves.
func JSONData(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// JSONError renders the canonical {"error": {code, message, details}} body.
// Codes are stable identifiers (NO_ACTIVE_SCHEMA, VALIDATION, ...) that
// clients branch on; the message is for humans.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
