package relay

import (
	"fmt"
	"strings"

	"github.com/judge0/llm-companion/internal/domain"
)

// Intent is the kind of help being asked for.
type Intent string

const (
	IntentChat     Intent = "chat"
	IntentFix      Intent = "fix"
	IntentExplain  Intent = "explain"
	IntentOptimize Intent = "optimize"
)

// Request is one relay call. Model is the user-facing provider id.
type Request struct {
	Intent   Intent
	Model    string
	Message  string
	Code     string
	Error    string
	Language string
}

// Validate checks the fields the intent needs. Model is not checked; unknown models
// fall back to the default upstream model.
func (r Request) Validate() error {
	switch r.Intent {
	case IntentChat:
		if strings.TrimSpace(r.Message) == "" {
			return domain.ErrInvalidRequest("Message is required")
		}
	case IntentFix, IntentExplain, IntentOptimize:
		if strings.TrimSpace(r.Code) == "" {
			return domain.ErrInvalidRequest("Code is required")
		}
	default:
		return domain.ErrInvalidRequest(fmt.Sprintf("unknown intent %q", r.Intent))
	}
	return nil
}

// Prompt composes the single user message sent upstream.
func (r Request) Prompt() string {
	switch r.Intent {
	case IntentFix:
		return fmt.Sprintf("Fix %s that has the following error: %s\n\nCode:\n%s", subject(r.Language), r.Error, r.Code)
	case IntentExplain:
		return fmt.Sprintf("Explain %s in detail:\n\n%s", subject(r.Language), r.Code)
	case IntentOptimize:
		return fmt.Sprintf("Suggest optimizations for %s:\n\n%s", subject(r.Language), r.Code)
	default:
		if r.Code != "" {
			return fmt.Sprintf("User's code:\n%s\n\nUser's message:\n%s", r.Code, r.Message)
		}
		return r.Message
	}
}

// subject renders "this <language> code", dropping the language when it is unknown.
func subject(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return "this code"
	}
	return "this " + language + " code"
}
