package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error envelope the API returns. Errors carries
// field-level detail when present; Message is the fallback text.
type ErrorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string, details ...string) {
	WriteJSON(w, statusCode, ErrorBody{Message: message, Errors: details})
}
