// Package companion turns user commands into credential and relay operations and
// reports the outcome to a View. It owns no I/O of its own; the terminal front end in
// cmd/judge0-llm is one View implementation.
package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/judge0/llm-companion/internal/chat"
	"github.com/judge0/llm-companion/internal/credential"
	"github.com/judge0/llm-companion/internal/domain"
	"github.com/judge0/llm-companion/internal/provider"
)

// DefaultModel is selected until the user picks another provider.
const DefaultModel = "openai-gpt-4o-mini"

// View renders companion state. SetBusy(true) is always followed by SetBusy(false),
// whether the command succeeds, fails, or panics.
type View interface {
	SetBusy(busy bool)
	ShowUserMessage(text string)
	ShowAssistantMessage(text string)
	ShowNotice(text string)
	ShowError(text string)
}

// Relay is the subset of the relay client the companion uses.
type Relay interface {
	SendChatMessage(ctx context.Context, text, providerID string) (json.RawMessage, error)
	SendChatMessageWithCode(ctx context.Context, text, code, providerID string) (json.RawMessage, error)
	RequestCodeFix(ctx context.Context, code, errorText, language, providerID string) (json.RawMessage, error)
	RequestCodeExplanation(ctx context.Context, code, language, providerID string) (json.RawMessage, error)
	RequestCodeOptimization(ctx context.Context, code, language, providerID string) (json.RawMessage, error)
}

// Companion dispatches commands. Commands are expected one at a time from a single
// front end; the chat thread itself is safe for concurrent use.
type Companion struct {
	store    *credential.Store
	relay    Relay
	view     View
	editor   Editor
	registry *provider.Registry
	thread   *chat.Thread
	model    string
	logger   *slog.Logger
}

// Option configures a Companion.
type Option func(*Companion)

// WithEditor sets the code source. Without one, requests carry no code.
func WithEditor(e Editor) Option {
	return func(c *Companion) {
		c.editor = e
	}
}

// WithModel sets the initially selected provider id.
func WithModel(providerID string) Option {
	return func(c *Companion) {
		if providerID != "" {
			c.model = providerID
		}
	}
}

// WithRegistry overrides the provider catalog.
func WithRegistry(r *provider.Registry) Option {
	return func(c *Companion) {
		c.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Companion) {
		c.logger = logger
	}
}

func New(store *credential.Store, relay Relay, view View, opts ...Option) *Companion {
	c := &Companion{
		store:    store,
		relay:    relay,
		view:     view,
		editor:   StaticEditor{},
		registry: provider.Default(),
		thread:   chat.NewThread(),
		model:    DefaultModel,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the selected provider id.
func (c *Companion) Model() string {
	return c.model
}

// Thread returns the conversation so far.
func (c *Companion) Thread() *chat.Thread {
	return c.thread
}

// Providers returns the catalog with a flag for each entry that has a stored key.
func (c *Companion) Providers(ctx context.Context) ([]ProviderStatus, error) {
	configured, err := c.store.Configured(ctx)
	if err != nil {
		return nil, err
	}
	has := make(map[string]bool, len(configured))
	for _, d := range configured {
		has[d.ID] = true
	}

	out := make([]ProviderStatus, 0, c.registry.Len())
	for d := range c.registry.All() {
		out = append(out, ProviderStatus{Descriptor: d, Configured: has[d.ID], Selected: d.ID == c.model})
	}
	return out, nil
}

// ProviderStatus is a catalog entry annotated for display.
type ProviderStatus struct {
	provider.Descriptor
	Configured bool
	Selected   bool
}

// Dispatch runs cmd. Failures are reported to the view and also returned.
func (c *Companion) Dispatch(ctx context.Context, cmd Command) error {
	switch cmd := cmd.(type) {
	case SaveCredential:
		return c.saveCredential(ctx, cmd)
	case DeleteCredential:
		return c.deleteCredential(ctx, cmd)
	case SelectModel:
		return c.selectModel(cmd)
	case SendChatMessage:
		return c.sendChatMessage(ctx, cmd)
	case FixCode:
		return c.codeAction(ctx, func(code, lang string) (json.RawMessage, error) {
			return c.relay.RequestCodeFix(ctx, code, cmd.ErrorText, lang, c.model)
		})
	case ExplainCode:
		return c.codeAction(ctx, func(code, lang string) (json.RawMessage, error) {
			return c.relay.RequestCodeExplanation(ctx, code, lang, c.model)
		})
	case OptimizeCode:
		return c.codeAction(ctx, func(code, lang string) (json.RawMessage, error) {
			return c.relay.RequestCodeOptimization(ctx, code, lang, c.model)
		})
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
}

// busy marks the view busy and returns the function that clears it.
func (c *Companion) busy() func() {
	c.view.SetBusy(true)
	return func() { c.view.SetBusy(false) }
}

func (c *Companion) saveCredential(ctx context.Context, cmd SaveCredential) error {
	if cmd.ProviderID == "" {
		c.view.ShowError(msgEmptyProvider)
		return domain.ErrValidationFailed(domain.CodeInvalidProvider, "no provider selected")
	}
	apiKey := strings.TrimSpace(cmd.APIKey)

	defer c.busy()()

	if err := c.store.Save(ctx, cmd.ProviderID, apiKey); err != nil {
		c.view.ShowError(userMessage(err, c.vendorOf(cmd.ProviderID)))
		return err
	}
	c.view.ShowNotice(msgSaved)
	return nil
}

func (c *Companion) deleteCredential(ctx context.Context, cmd DeleteCredential) error {
	if cmd.ProviderID == "" {
		c.view.ShowError(msgEmptyProvider)
		return domain.ErrValidationFailed(domain.CodeInvalidProvider, "no provider selected")
	}

	defer c.busy()()

	exists, err := c.store.Exists(ctx, cmd.ProviderID)
	if err != nil {
		c.view.ShowError(userMessage(err, ""))
		return err
	}
	if !exists {
		c.view.ShowError(msgKeyNotFound)
		return domain.ErrCredentialNotFound(cmd.ProviderID)
	}

	if err := c.store.Delete(ctx, cmd.ProviderID); err != nil {
		c.view.ShowError(userMessage(err, ""))
		return err
	}
	c.view.ShowNotice(msgDeleted)
	return nil
}

func (c *Companion) selectModel(cmd SelectModel) error {
	d, err := c.registry.Resolve(cmd.ProviderID)
	if err != nil {
		c.view.ShowError(userMessage(err, ""))
		return err
	}
	c.model = d.ID
	c.view.ShowNotice(fmt.Sprintf("Using %s (%s)", d.DisplayName, d.Vendor))
	return nil
}

func (c *Companion) sendChatMessage(ctx context.Context, cmd SendChatMessage) error {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return nil
	}

	defer c.busy()()

	c.view.ShowUserMessage(text)
	code := c.editor.Code()
	c.thread.AddUser(text, code)

	var (
		resp json.RawMessage
		err  error
	)
	if strings.TrimSpace(code) != "" {
		resp, err = c.relay.SendChatMessageWithCode(ctx, text, code, c.model)
	} else {
		resp, err = c.relay.SendChatMessage(ctx, text, c.model)
	}
	return c.handleReply(ctx, resp, err)
}

func (c *Companion) codeAction(ctx context.Context, call func(code, lang string) (json.RawMessage, error)) error {
	code := c.editor.Code()
	if strings.TrimSpace(code) == "" {
		c.view.ShowError(msgNoCode)
		return domain.ErrInvalidRequest("no code to send")
	}

	defer c.busy()()

	resp, err := call(code, c.editor.Language())
	return c.handleReply(ctx, resp, err)
}

func (c *Companion) handleReply(ctx context.Context, resp json.RawMessage, err error) error {
	if err == nil {
		var content string
		content, err = ExtractContent(resp)
		if err == nil {
			c.thread.AddAssistant(content)
			c.view.ShowAssistantMessage(content)
			return nil
		}
	}

	c.logger.ErrorContext(ctx, "companion request failed",
		slog.String("model", c.model),
		slog.String("error", err.Error()),
	)
	c.view.ShowError(msgProcessingFailed)
	return err
}

func (c *Companion) vendorOf(providerID string) provider.Vendor {
	d, err := c.registry.Resolve(providerID)
	if err != nil {
		return ""
	}
	return d.Vendor
}

// ExtractContent returns data.choices[0].message.content from a relay success
// envelope.
func ExtractContent(raw json.RawMessage) (string, error) {
	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", domain.ErrServer("relay response is not JSON").WithCause(err)
	}
	if !env.Success {
		return "", domain.ErrServer("relay reported failure").WithDetails(env.Error)
	}
	if len(env.Data.Choices) == 0 {
		return "", domain.ErrServer("relay response has no choices")
	}
	return env.Data.Choices[0].Message.Content, nil
}
