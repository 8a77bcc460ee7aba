// Package tokens estimates prompt sizes for logging. Counts are advisory; nothing is
// rejected or truncated based on them.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Count is the result of counting one prompt.
type Count struct {
	Tokens    int
	Estimated bool
}

// Counter counts prompt tokens for upstream model ids such as "openai/gpt-4o". OpenAI
// models are counted exactly with tiktoken; other vendors fall back to a
// characters-per-token estimate.
type Counter struct {
	// CharsPerToken is used for models without a local tokenizer.
	CharsPerToken float64

	// codecCache caches tokenizer codecs by encoding name
	codecCache map[tokenizer.Encoding]tokenizer.Codec
	cacheMu    sync.RWMutex
}

// NewCounter creates a counter.
func NewCounter() *Counter {
	return &Counter{
		CharsPerToken: 4.0,
		codecCache:    make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

// Count counts the tokens in a single user message sent to model.
func (c *Counter) Count(model, text string) Count {
	vendor, name := splitModel(model)
	if vendor != "openai" {
		return c.estimate(text)
	}

	codec, err := c.codec(modelToEncoding(name))
	if err != nil {
		return c.estimate(text)
	}

	ids, _, err := codec.Encode(text)
	if err != nil {
		return c.estimate(text)
	}

	// 3 tokens per message, 1 for the role, 3 for assistant priming
	return Count{Tokens: len(ids) + 7}
}

func (c *Counter) estimate(text string) Count {
	chars := len(text) + len("user") + 4
	return Count{Tokens: int(float64(chars) / c.CharsPerToken), Estimated: true}
}

func (c *Counter) codec(encoding tokenizer.Encoding) (tokenizer.Codec, error) {
	c.cacheMu.RLock()
	if cached, ok := c.codecCache[encoding]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}

	c.cacheMu.Lock()
	c.codecCache[encoding] = codec
	c.cacheMu.Unlock()

	return codec, nil
}

// splitModel splits "vendor/model" into its parts. Ids without a vendor are treated
// as OpenAI models.
func splitModel(model string) (vendor, name string) {
	model = strings.ToLower(model)
	if v, n, ok := strings.Cut(model, "/"); ok {
		return v, n
	}
	return "openai", model
}

// modelToEncoding maps OpenAI model names to tiktoken encodings.
//
// - O200kBase: GPT-4o, GPT-4.1, GPT-5, o-series
// - Cl100kBase: GPT-4, GPT-3.5-turbo
func modelToEncoding(model string) tokenizer.Encoding {
	switch {
	case strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-5"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}
