package api

import (
	"encoding/json"
	"net/http"

	"github.com/kamikazebr/ou-toggle/pkg/models"
)

func writeJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, data)
}

func respondToggle(w http.ResponseWriter, statusCode int, success bool, userMessage, errMessage string) {
	respondJSON(w, statusCode, models.ToggleResponse{
		Success:     success,
		UserMessage: userMessage,
		Error:       errMessage,
	})
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
