package relay

import (
	"slices"
	"testing"

	"github.com/judge0/llm-companion/internal/provider"
)

func TestModelMapping_Resolve(t *testing.T) {
	m := NewModelMapping("", nil)

	tests := []struct {
		id   string
		want string
	}{
		{"openai-gpt-4o", "openai/gpt-4o"},
		{"openai-gpt-4o-mini", "openai/gpt-4o-mini"},
		{"openai-o1", "openai/o1"},
		{"claude-sonnet", "anthropic/claude-3-sonnet"},
		{"claude-haiku", "anthropic/claude-3-haiku"},
		{"foo-bar", "openai/gpt-4o-mini"},
		{"", "openai/gpt-4o-mini"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := m.Resolve(tt.id); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestModelMapping_Overrides(t *testing.T) {
	m := NewModelMapping("meta-llama/llama-3-8b-instruct", map[string]string{
		"claude-sonnet": "anthropic/claude-3.5-sonnet",
		"openai-o1":     "",
		"mistral-large": "mistralai/mistral-large",
	})

	if got := m.Resolve("claude-sonnet"); got != "anthropic/claude-3.5-sonnet" {
		t.Errorf("Resolve(claude-sonnet) = %q, want override", got)
	}
	if got := m.Resolve("openai-o1"); got != "openai/o1" {
		t.Errorf("Resolve(openai-o1) = %q, empty override must keep built-in", got)
	}
	if got := m.Resolve("mistral-large"); got != "mistralai/mistral-large" {
		t.Errorf("Resolve(mistral-large) = %q", got)
	}
	if got := m.Resolve("foo-bar"); got != "meta-llama/llama-3-8b-instruct" {
		t.Errorf("Resolve(foo-bar) = %q, want configured fallback", got)
	}

	if NewModelMapping("", nil).Resolve("claude-sonnet") != "anthropic/claude-3-sonnet" {
		t.Error("overrides leaked into built-in table")
	}
}

func TestModelMapping_Unmapped(t *testing.T) {
	m := NewModelMapping("", nil)
	if got := m.Unmapped(provider.Default()); len(got) != 0 {
		t.Errorf("Unmapped(Default()) = %v, want none", got)
	}

	r, err := provider.NewRegistry(
		provider.Descriptor{ID: "claude-haiku", Vendor: provider.VendorAnthropic},
		provider.Descriptor{ID: "claude-opus", Vendor: provider.VendorAnthropic},
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if got := m.Unmapped(r); !slices.Equal(got, []string{"claude-opus"}) {
		t.Errorf("Unmapped() = %v, want [claude-opus]", got)
	}
}
