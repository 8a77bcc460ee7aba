// Package frontdoor exposes the relay over HTTP: chat, code fix/explain/optimize, and
// the model catalog. Every response uses the {success, data | error, details} envelope.
package frontdoor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/judge0/llm-companion/internal/domain"
	"github.com/judge0/llm-companion/internal/provider"
	"github.com/judge0/llm-companion/internal/relay"
	"github.com/judge0/llm-companion/internal/server"
)

// maxBodyBytes bounds request bodies; code snippets beyond this are rejected.
const maxBodyBytes = 1 << 20

// Forwarder sends one relay request upstream.
type Forwarder interface {
	Forward(ctx context.Context, req relay.Request) (json.RawMessage, error)
}

// HandlerRegistration represents a registered HTTP handler.
type HandlerRegistration struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

type Handler struct {
	relay       Forwarder
	registry    *provider.Registry
	debugErrors bool
	logger      *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithDebugErrors includes diagnostic details in error responses.
func WithDebugErrors(on bool) Option {
	return func(h *Handler) {
		h.debugErrors = on
	}
}

// WithRegistry sets the catalog served by /api/models.
func WithRegistry(r *provider.Registry) Option {
	return func(h *Handler) {
		h.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func NewHandler(fwd Forwarder, opts ...Option) *Handler {
	h := &Handler{
		relay:    fwd,
		registry: provider.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registrations lists the routes served under /api.
func (h *Handler) Registrations() []HandlerRegistration {
	return []HandlerRegistration{
		{Method: http.MethodPost, Path: "/api/chat", Handler: h.HandleChat},
		{Method: http.MethodPost, Path: "/api/code/fix", Handler: h.codeHandler(relay.IntentFix)},
		{Method: http.MethodPost, Path: "/api/code/explain", Handler: h.codeHandler(relay.IntentExplain)},
		{Method: http.MethodPost, Path: "/api/code/optimize", Handler: h.codeHandler(relay.IntentOptimize)},
		{Method: http.MethodGet, Path: "/api/models", Handler: h.HandleListModels},
	}
}

type chatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
	Code    string `json:"code,omitempty"`
}

type codeRequest struct {
	Code     string `json:"code"`
	Error    string `json:"error,omitempty"`
	Language string `json:"language"`
	Model    string `json:"model"`
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := decode(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.forward(w, r, relay.Request{
		Intent:  relay.IntentChat,
		Model:   body.Model,
		Message: body.Message,
		Code:    body.Code,
	})
}

func (h *Handler) codeHandler(intent relay.Intent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body codeRequest
		if err := decode(w, r, &body); err != nil {
			h.writeError(w, r, err)
			return
		}

		h.forward(w, r, relay.Request{
			Intent:   intent,
			Model:    body.Model,
			Code:     body.Code,
			Error:    body.Error,
			Language: body.Language,
		})
	}
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, req relay.Request) {
	server.AddLogField(r.Context(), "intent", string(req.Intent))
	server.AddLogField(r.Context(), "model", req.Model)
	server.AddLogField(r.Context(), "language", req.Language)

	resp, err := h.relay.Forward(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, resp)
}

type modelEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Vendor string `json:"vendor"`
}

func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	models := make([]modelEntry, 0, h.registry.Len())
	for d := range h.registry.All() {
		models = append(models, modelEntry{ID: d.ID, Name: d.DisplayName, Vendor: string(d.Vendor)})
	}
	writeData(w, models)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ErrInvalidRequest("Request body too large").WithCause(err)
		}
		return domain.ErrInvalidRequest("Invalid JSON body").WithCause(err)
	}
	return nil
}
