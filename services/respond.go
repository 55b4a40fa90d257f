package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Envelope is the shared response shape for every API endpoint.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

func sendResponse(w http.ResponseWriter, statusCode int, success bool, message string, data any) {
	envelope := Envelope{
		Success:   success,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// sendError classifies err, logs it with enough context to reconstruct the
// failing step, and writes the envelope. Internal failures get a generic
// caller-facing message.
func sendError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	appErr := classifyError(err, fallback)

	if appErr.Kind == KindInternal {
		slog.Error("Request failed", "error", appErr.Err, "path", r.URL.Path, "method", r.Method)
		sendResponse(w, appErr.Status(), false, fallback, nil)
		return
	}

	slog.Warn("Request rejected", "reason", appErr.Message, "path", r.URL.Path, "method", r.Method, "status", appErr.Status())
	sendResponse(w, appErr.Status(), false, appErr.Message, nil)
}
