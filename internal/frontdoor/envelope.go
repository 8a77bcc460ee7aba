package frontdoor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/judge0/llm-companion/internal/domain"
	"github.com/judge0/llm-companion/internal/server"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success bool    `json:"success"`
	Error   string  `json:"error"`
	Details *string `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data})
}

// writeError decodes err once into a status and client-safe message. Diagnostic
// details are only sent when debug is on.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	server.AddError(r.Context(), err)

	status := http.StatusInternalServerError
	message := "Internal server error"
	var detail string

	var de *domain.Error
	if errors.As(err, &de) {
		status = de.HTTPStatusCode()
		message = de.Message
		detail = de.Details
		if detail == "" && de.Err != nil {
			detail = de.Err.Error()
		}
	} else {
		detail = err.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("relay request failed",
			slog.String("request_id", server.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
			slog.String("details", detail),
		)
	}

	env := errorEnvelope{Success: false, Error: message}
	if h.debugErrors && detail != "" {
		env.Details = &detail
	}
	writeJSON(w, status, env)
}
