package companion

import (
	"errors"

	"github.com/judge0/llm-companion/internal/domain"
	"github.com/judge0/llm-companion/internal/provider"
)

// User-facing strings.
const (
	msgEmptyProvider     = "Please select a provider"
	msgEmptyKey          = "Please enter an API key"
	msgInvalidProvider   = "Invalid provider ID"
	msgInvalidOpenAIKey  = "Invalid OpenAI API key format"
	msgInvalidClaudeKey  = "Invalid Claude API key format"
	msgSaveFailed        = "Failed to save API key"
	msgDeleteFailed      = "Unable to remove API key"
	msgReadFailed        = "Unable to read API key"
	msgKeyNotFound       = "No API key found for selected provider"
	msgDecryptFailed     = "Stored API key can no longer be read; please enter it again"
	msgSaved             = "API key saved successfully"
	msgDeleted           = "API key deleted successfully"
	msgProcessingFailed  = "Sorry, there was an error processing your message."
	msgNoCode            = "There is no code in the editor"
	msgUnexpectedFailure = "Something went wrong"
)

// userMessage maps err to the text shown in the view. It is the only place errors are
// turned into user-facing strings.
func userMessage(err error, vendor provider.Vendor) string {
	var de *domain.Error
	if !errors.As(err, &de) {
		return msgUnexpectedFailure
	}

	switch de.Kind {
	case domain.KindValidation:
		switch de.Code {
		case domain.CodeEmptyKey:
			return msgEmptyKey
		case domain.CodeInvalidProvider:
			return msgInvalidProvider
		case domain.CodeInvalidFormat:
			if vendor == provider.VendorAnthropic {
				return msgInvalidClaudeKey
			}
			return msgInvalidOpenAIKey
		}
		return de.Message
	case domain.KindNotFound:
		return msgKeyNotFound
	case domain.KindCrypto:
		if de.Code == domain.CodeDecryptionFailed {
			return msgDecryptFailed
		}
		return msgSaveFailed
	case domain.KindStorage:
		switch de.Code {
		case domain.CodeDeleteFailed:
			return msgDeleteFailed
		case domain.CodeReadFailed:
			return msgReadFailed
		}
		return msgSaveFailed
	case domain.KindRelayHTTP, domain.KindUpstream, domain.KindInvalidRequest, domain.KindServer:
		return msgProcessingFailed
	}
	return msgUnexpectedFailure
}
