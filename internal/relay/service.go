package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/judge0/llm-companion/internal/backend/openrouter"
	"github.com/judge0/llm-companion/internal/domain"
	"github.com/judge0/llm-companion/internal/tokens"
)

// Upstream sends one chat completion and returns the raw response body.
type Upstream interface {
	CreateChatCompletion(ctx context.Context, req *openrouter.ChatCompletionRequest) (json.RawMessage, error)
}

// Service forwards validated requests to the upstream aggregator. It holds no
// per-request state.
type Service struct {
	upstream Upstream
	mapping  *ModelMapping
	counter  *tokens.Counter
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTokenCounter enables prompt token estimates in logs.
func WithTokenCounter(counter *tokens.Counter) Option {
	return func(s *Service) {
		s.counter = counter
	}
}

// NewService creates a relay service.
func NewService(upstream Upstream, mapping *ModelMapping, opts ...Option) *Service {
	if mapping == nil {
		mapping = NewModelMapping("", nil)
	}
	s := &Service{
		upstream: upstream,
		mapping:  mapping,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mapping returns the model mapping in use.
func (s *Service) Mapping() *ModelMapping {
	return s.mapping
}

// Forward validates req, sends its prompt to the mapped upstream model, and returns
// the upstream JSON unchanged.
func (s *Service) Forward(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := s.mapping.Resolve(req.Model)
	prompt := req.Prompt()

	attrs := []any{
		slog.String("intent", string(req.Intent)),
		slog.String("model", req.Model),
		slog.String("upstream_model", model),
	}
	if s.counter != nil {
		count := s.counter.Count(model, prompt)
		attrs = append(attrs, slog.Int("prompt_tokens", count.Tokens), slog.Bool("tokens_estimated", count.Estimated))
	}

	start := time.Now()
	resp, err := s.upstream.CreateChatCompletion(ctx, &openrouter.ChatCompletionRequest{
		Model:    model,
		Messages: []openrouter.ChatCompletionMessage{{Role: "user", Content: prompt}},
	})
	attrs = append(attrs, slog.Duration("duration", time.Since(start)))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		var de *domain.Error
		if errors.As(err, &de) && de.Details != "" {
			attrs = append(attrs, slog.String("details", de.Details))
		}
		s.logger.ErrorContext(ctx, "relay upstream failed", attrs...)
		return nil, err
	}

	s.logger.DebugContext(ctx, "relay upstream completed", attrs...)
	return resp, nil
}
