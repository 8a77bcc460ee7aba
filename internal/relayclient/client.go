// Package relayclient calls the relay's HTTP API on behalf of the companion.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/judge0/llm-companion/internal/domain"
)

// DefaultBaseURL is the relay started by `judge0-llm serve` on its default port.
const DefaultBaseURL = "http://localhost:3000/api"

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client posts companion requests to the relay. It applies no timeout or retry of its
// own; callers bound requests through ctx.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the relay at baseURL (e.g. "http://localhost:3000/api").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Model   string `json:"model"`
}

type codeBody struct {
	Code     string `json:"code"`
	Error    string `json:"error,omitempty"`
	Language string `json:"language"`
	Model    string `json:"model"`
}

// SendChatMessage sends a free-form message.
func (c *Client) SendChatMessage(ctx context.Context, text, providerID string) (json.RawMessage, error) {
	return c.post(ctx, "/chat", chatBody{Message: text, Model: providerID})
}

// SendChatMessageWithCode sends a message along with the code being edited.
func (c *Client) SendChatMessageWithCode(ctx context.Context, text, code, providerID string) (json.RawMessage, error) {
	return c.post(ctx, "/chat", chatBody{Message: text, Code: code, Model: providerID})
}

// RequestCodeFix asks for a fix for code that fails with errorText.
func (c *Client) RequestCodeFix(ctx context.Context, code, errorText, language, providerID string) (json.RawMessage, error) {
	return c.post(ctx, "/code/fix", codeBody{Code: code, Error: errorText, Language: language, Model: providerID})
}

// RequestCodeExplanation asks for an explanation of code.
func (c *Client) RequestCodeExplanation(ctx context.Context, code, language, providerID string) (json.RawMessage, error) {
	return c.post(ctx, "/code/explain", codeBody{Code: code, Language: language, Model: providerID})
}

// RequestCodeOptimization asks for optimization suggestions for code.
func (c *Client) RequestCodeOptimization(ctx context.Context, code, language, providerID string) (json.RawMessage, error) {
	return c.post(ctx, "/code/optimize", codeBody{Code: code, Language: language, Model: providerID})
}

// post sends one JSON request and returns the 2xx body unparsed.
func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.New(domain.KindRelayHTTP, "", "relay unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.New(domain.KindRelayHTTP, "", "failed to read relay response").
			WithStatus(resp.StatusCode).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.ErrRelayStatus(resp.StatusCode).WithDetails(errorField(respBody))
	}

	return json.RawMessage(respBody), nil
}

// errorField returns the envelope's "error" string, or "" when the body has none.
func errorField(body []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Error
}
