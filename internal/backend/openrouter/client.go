package openrouter

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

const (
	// DefaultBaseURL is the public OpenRouter API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// maxDetailBytes bounds how much of an upstream error body is kept for logs.
	maxDetailBytes = 2048
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithSiteHeaders sets the attribution headers OpenRouter uses for app rankings.
// Empty values are not sent.
func WithSiteHeaders(siteURL, siteName string) ClientOption {
	return func(c *Client) {
		c.siteURL = siteURL
		c.siteName = siteName
	}
}

// Client is an HTTP client for the OpenRouter API.
type Client struct {
	apiKey     string
	baseURL    string
	siteURL    string
	siteName   string
	httpClient *http.Client
}

// NewClient creates a new OpenRouter client authenticating with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateChatCompletion sends a chat completion request and returns the response body
// verbatim. Non-2xx responses become upstream errors carrying the status; the body is
// kept in Details for server-side logging.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.New(domain.KindUpstream, "", "upstream request failed").WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.New(domain.KindUpstream, "", "failed to read upstream response").
			WithStatus(resp.StatusCode).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.ErrUpstreamStatus(resp.StatusCode).WithDetails(errorDetail(respBody))
	}

	if !json.Valid(respBody) {
		return nil, domain.New(domain.KindUpstream, "", "upstream returned invalid JSON").
			WithStatus(resp.StatusCode).WithDetails(truncate(string(respBody)))
	}

	return json.RawMessage(respBody), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "judge0-llm/1.0")

	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}
}

func errorDetail(body []byte) string {
	if apiErr, err := ParseErrorResponse(body); err == nil && apiErr != nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return truncate(string(body))
}

func truncate(s string) string {
	if len(s) <= maxDetailBytes {
		return s
	}
	return s[:maxDetailBytes] + "..."
}
