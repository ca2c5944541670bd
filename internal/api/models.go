package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goodtune/runtracker/internal/permission"
	"github.com/goodtune/runtracker/internal/storage"
	"github.com/goodtune/runtracker/internal/tracking"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WriteJSON writes data as a JSON response.
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

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, tracking.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, tracking.ErrPermissionDenied),
		errors.Is(err, tracking.ErrPermissionPermanentlyDenied):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := err.Error()
	switch {
	case errors.Is(err, tracking.ErrPermissionPermanentlyDenied):
		message = permission.SettingsHint
	case status == http.StatusInternalServerError:
		message = "Internal error"
	}
	WriteError(w, status, message)
}
