// Package http holds the HTTP handlers. Handlers only; routes remain in
// cmd/gateway.
package http

import (
	"encoding/json"
	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/skillforge/skillforge-lms/internal/apperr"
)

// envelope is the common response shape: success flag, human message, and
// any payload keys merged alongside.
func envelope(success bool, message string, extra map[string]any) map[string]any {
	body := map[string]any{"success": success}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func writeJSON(w nethttp.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w nethttp.ResponseWriter, status int, message string, extra map[string]any) {
	writeJSON(w, status, envelope(true, message, extra))
}

// respondErr maps the error taxonomy to a status. Internal errors are logged
// with their cause and reported with a generic message.
func respondErr(w nethttp.ResponseWriter, log *zap.SugaredLogger, err error) {
	status := apperr.StatusOf(err)
	msg := err.Error()
	if status == nethttp.StatusInternalServerError {
		if log != nil {
			log.Errorw("request failed", "error", err)
		}
		msg = "Internal server error"
	}
	writeJSON(w, status, envelope(false, msg, nil))
}

func decodeJSON(r *nethttp.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}
