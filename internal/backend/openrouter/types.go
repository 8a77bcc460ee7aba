// Package openrouter is a minimal HTTP client for the OpenRouter chat completions API.
// Responses are returned as raw JSON; the relay forwards them without inspection.
package openrouter

import "encoding/json"

// ChatCompletionRequest is the subset of the OpenAI-compatible request body the relay
// sends upstream.
type ChatCompletionRequest struct {
	Model    string                  `json:"model"`
	Messages []ChatCompletionMessage `json:"messages"`
}

// ChatCompletionMessage is a single chat message.
type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrorResponse is the error envelope returned by OpenRouter.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError is the body of an OpenRouter error.
type APIError struct {
	Message  string          `json:"message"`
	Code     json.RawMessage `json:"code,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ParseErrorResponse extracts the error message from an upstream error body. It
// returns nil when the body is not an error envelope.
func ParseErrorResponse(data []byte) (*APIError, error) {
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil, err
	}
	return errResp.Error, nil
}
