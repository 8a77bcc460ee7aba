package companion

// Command is a user action dispatched to a Companion.
type Command interface {
	isCommand()
}

// SaveCredential stores an API key for a provider.
type SaveCredential struct {
	ProviderID string
	APIKey     string
}

// DeleteCredential removes the stored API key for a provider.
type DeleteCredential struct {
	ProviderID string
}

// SelectModel changes the provider used for chat and code requests.
type SelectModel struct {
	ProviderID string
}

// SendChatMessage sends a chat message together with the current editor contents.
type SendChatMessage struct {
	Text string
}

// FixCode asks for a fix for the editor contents given the error they produce.
type FixCode struct {
	ErrorText string
}

// ExplainCode asks for an explanation of the editor contents.
type ExplainCode struct{}

// OptimizeCode asks for optimization suggestions for the editor contents.
type OptimizeCode struct{}

func (SaveCredential) isCommand()   {}
func (DeleteCredential) isCommand() {}
func (SelectModel) isCommand()      {}
func (SendChatMessage) isCommand()  {}
func (FixCode) isCommand()          {}
func (ExplainCode) isCommand()      {}
func (OptimizeCode) isCommand()     {}
