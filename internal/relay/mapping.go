// Package relay turns a companion request into a single upstream chat completion.
package relay

import (
	"maps"

	"github.com/judge0/llm-companion/internal/provider"
)

// DefaultUpstreamModel is used for provider ids without a mapping.
const DefaultUpstreamModel = "openai/gpt-4o-mini"

var builtinModels = map[string]string{
	"openai-gpt-4o":      "openai/gpt-4o",
	"openai-gpt-4o-mini": "openai/gpt-4o-mini",
	"openai-o1":          "openai/o1",
	"claude-sonnet":      "anthropic/claude-3-sonnet",
	"claude-haiku":       "anthropic/claude-3-haiku",
}

// ModelMapping maps user-facing provider ids to aggregator model names. Lookups never
// fail: unknown or empty ids resolve to the fallback.
type ModelMapping struct {
	models   map[string]string
	fallback string
}

// NewModelMapping returns the built-in mapping with overrides applied on top. An empty
// fallback keeps DefaultUpstreamModel.
func NewModelMapping(fallback string, overrides map[string]string) *ModelMapping {
	models := maps.Clone(builtinModels)
	for id, model := range overrides {
		if model != "" {
			models[id] = model
		}
	}
	if fallback == "" {
		fallback = DefaultUpstreamModel
	}
	return &ModelMapping{models: models, fallback: fallback}
}

// Resolve returns the upstream model for providerID.
func (m *ModelMapping) Resolve(providerID string) string {
	if model, ok := m.models[providerID]; ok {
		return model
	}
	return m.fallback
}

// Mapped reports whether providerID has an explicit mapping.
func (m *ModelMapping) Mapped(providerID string) bool {
	_, ok := m.models[providerID]
	return ok
}

// Fallback returns the model used for unmapped ids.
func (m *ModelMapping) Fallback() string {
	return m.fallback
}

// Unmapped returns catalog ids that would hit the fallback. Used at startup to warn
// about a catalog that drifted from the mapping.
func (m *ModelMapping) Unmapped(r *provider.Registry) []string {
	var out []string
	for d := range r.All() {
		if !m.Mapped(d.ID) {
			out = append(out, d.ID)
		}
	}
	return out
}
