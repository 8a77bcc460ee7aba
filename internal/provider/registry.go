// Package provider holds the fixed catalog of model choices a user can pick from and
// the key-format rules for each vendor.
package provider

import (
	"fmt"
	"iter"
	"regexp"
	"slices"

	"github.com/judge0/llm-companion/internal/domain"
)

// Vendor identifies the company behind a model.
type Vendor string

const (
	VendorOpenAI    Vendor = "OpenAI"
	VendorAnthropic Vendor = "Anthropic"
)

// Key formats are prefix checks only. Vendors change key length and alphabet without
// notice, so anything stricter rejects valid keys.
var (
	openAIKeyFormat    = regexp.MustCompile(`^sk-`)
	anthropicKeyFormat = regexp.MustCompile(`^sk-ant-`)
)

// KeyFormatFor returns the key-format pattern for a vendor, or nil for unknown vendors.
func KeyFormatFor(v Vendor) *regexp.Regexp {
	switch v {
	case VendorOpenAI:
		return openAIKeyFormat
	case VendorAnthropic:
		return anthropicKeyFormat
	default:
		return nil
	}
}

// Descriptor describes one selectable model.
type Descriptor struct {
	ID          string
	DisplayName string
	Vendor      Vendor
	KeyFormat   *regexp.Regexp
}

// ValidKey reports whether apiKey matches the vendor's key format.
func (d Descriptor) ValidKey(apiKey string) bool {
	return d.KeyFormat != nil && d.KeyFormat.MatchString(apiKey)
}

// Registry is a read-only catalog of descriptors in declaration order.
type Registry struct {
	descriptors []Descriptor
	byID        map[string]int
}

// NewRegistry builds a registry from descriptors. Duplicate IDs are rejected.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		byID:        make(map[string]int, len(descriptors)),
	}
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("provider descriptor has empty id")
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id: %s", d.ID)
		}
		if d.KeyFormat == nil {
			d.KeyFormat = KeyFormatFor(d.Vendor)
		}
		r.byID[d.ID] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
	}
	return r, nil
}

var defaultRegistry = mustRegistry(
	Descriptor{ID: "openai-gpt-4o", DisplayName: "GPT-4o", Vendor: VendorOpenAI},
	Descriptor{ID: "openai-gpt-4o-mini", DisplayName: "GPT-4o mini", Vendor: VendorOpenAI},
	Descriptor{ID: "openai-o1", DisplayName: "o1", Vendor: VendorOpenAI},
	Descriptor{ID: "claude-sonnet", DisplayName: "Claude 3.5 Sonnet", Vendor: VendorAnthropic},
	Descriptor{ID: "claude-haiku", DisplayName: "Claude 3.5 Haiku", Vendor: VendorAnthropic},
)

func mustRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the built-in catalog.
func Default() *Registry {
	return defaultRegistry
}

// Resolve looks up a descriptor by id.
func (r *Registry) Resolve(id string) (Descriptor, error) {
	i, ok := r.byID[id]
	if !ok {
		return Descriptor{}, domain.ErrValidationFailed(domain.CodeInvalidProvider, fmt.Sprintf("unknown provider %q", id))
	}
	return r.descriptors[i], nil
}

// Contains reports whether id is in the catalog.
func (r *Registry) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All yields descriptors in declaration order. The sequence can be ranged over any
// number of times.
func (r *Registry) All() iter.Seq[Descriptor] {
	return func(yield func(Descriptor) bool) {
		for _, d := range r.descriptors {
			if !yield(d) {
				return
			}
		}
	}
}

// List returns a copy of the catalog in declaration order.
func (r *Registry) List() []Descriptor {
	return slices.Clone(r.descriptors)
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	return len(r.descriptors)
}
