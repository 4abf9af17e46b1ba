package handler

import (
	"encoding/json"
	"net/http"

	"github.com/capitalize-ai/workspace-assistant/internal/middleware"
	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error body tagged with the request's correlation id.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse(r, message))
}

func errorResponse(r *http.Request, message string) *model.ErrorResponse {
	return &model.ErrorResponse{
		Error:     message,
		RequestID: middleware.GetCorrelationID(r.Context()),
	}
}
