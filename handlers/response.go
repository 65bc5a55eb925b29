package handlers

import (
	"encoding/json"
	"net/http"

	"pdfquiz/apierr"
	"pdfquiz/models"

	"github.com/gorilla/mux"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, e *apierr.Error) {
	writeJSONResponse(w, e.Status, models.ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	})
}

// ConfigureErrorHandlers replaces mux's plain-text 404 and 405 responses with
// the JSON error envelope.
func ConfigureErrorHandlers(router *mux.Router) {
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, apierr.New(http.StatusNotFound, apierr.CodeInvalidRequest, "Not found", nil))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, apierr.New(http.StatusMethodNotAllowed, apierr.CodeMethodNotAllowed, "Method not allowed", nil))
	})
}
