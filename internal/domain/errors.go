// Package domain provides the canonical error type shared by the credential store,
// the relay, and the companion front end.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the discriminant of an Error.
type Kind string

const (
	// KindValidation indicates malformed user input (empty key, unknown provider, bad format).
	KindValidation Kind = "validation"

	// KindCrypto indicates an encryption or decryption failure, including a lost session key.
	KindCrypto Kind = "crypto"

	// KindStorage indicates a persistence read, write, or delete failure.
	KindStorage Kind = "storage"

	// KindNotFound indicates a requested credential is absent.
	KindNotFound Kind = "not_found"

	// KindRelayHTTP indicates the relay answered with a non-2xx status or was unreachable.
	KindRelayHTTP Kind = "relay_http"

	// KindUpstream indicates the aggregator answered with a non-2xx status or was unreachable.
	KindUpstream Kind = "upstream"

	// KindInvalidRequest indicates a malformed relay request body.
	KindInvalidRequest Kind = "invalid_request"

	// KindServer indicates an unexpected internal failure.
	KindServer Kind = "server"
)

// Code narrows a Kind.
type Code string

const (
	CodeEmptyKey         Code = "EMPTY_KEY"
	CodeInvalidProvider  Code = "INVALID_PROVIDER"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeEncryptionFailed Code = "ENCRYPTION_FAILED"
	CodeDecryptionFailed Code = "DECRYPTION_FAILED"
	CodeKeyNotFound      Code = "KEY_NOT_FOUND"
	CodeReadFailed       Code = "READ_FAILED"
	CodeWriteFailed      Code = "WRITE_FAILED"
	CodeDeleteFailed     Code = "DELETE_FAILED"
)

// Error is the single tagged error used across the module. Message is safe to show to
// a user; Details and the wrapped cause are for server-side logs only.
type Error struct {
	// Kind is the category of error
	Kind Kind

	// Code is an optional specific error code
	Code Code

	// Message is the human-readable error message
	Message string

	// Status is the HTTP status observed (relay/upstream) or suggested
	Status int

	// Details carries diagnostic text such as an upstream body
	Details string

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface. The cause is deliberately left out so that
// cipher internals never reach user-visible text.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. A target with a Code must
// also match the code, so errors.Is(err, ErrNotFound) and
// errors.Is(err, &Error{Kind: KindValidation, Code: CodeEmptyKey}) both work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *Error) HTTPStatusCode() int {
	switch e.Kind {
	case KindValidation, KindInvalidRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream, KindRelayHTTP:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithStatus records the HTTP status observed.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithDetails attaches diagnostic text.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// WithCause attaches the underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// Sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrCrypto     = &Error{Kind: KindCrypto}
	ErrStorage    = &Error{Kind: KindStorage}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrRelayHTTP  = &Error{Kind: KindRelayHTTP}
	ErrUpstream   = &Error{Kind: KindUpstream}

	ErrUnknownProvider = &Error{Kind: KindValidation, Code: CodeInvalidProvider}
)

// New creates a new Error.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// ErrValidationFailed creates a validation error.
func ErrValidationFailed(code Code, message string) *Error {
	return New(KindValidation, code, message)
}

// ErrEncryption creates an encryption failure.
func ErrEncryption(cause error) *Error {
	return New(KindCrypto, CodeEncryptionFailed, "failed to encrypt data").WithCause(cause)
}

// ErrDecryption creates a decryption failure.
func ErrDecryption(cause error) *Error {
	return New(KindCrypto, CodeDecryptionFailed, "failed to decrypt data").WithCause(cause)
}

// ErrStorageFailed creates a persistence failure.
func ErrStorageFailed(code Code, message string, cause error) *Error {
	return New(KindStorage, code, message).WithCause(cause)
}

// ErrCredentialNotFound creates a not found error for a provider credential.
func ErrCredentialNotFound(providerID string) *Error {
	return New(KindNotFound, CodeKeyNotFound, fmt.Sprintf("no API key stored for provider %q", providerID))
}

// ErrRelayStatus creates a relay HTTP error carrying the status code.
func ErrRelayStatus(status int) *Error {
	return New(KindRelayHTTP, "", fmt.Sprintf("relay returned HTTP status %d", status)).WithStatus(status)
}

// ErrUpstreamStatus creates an upstream error carrying the status code.
func ErrUpstreamStatus(status int) *Error {
	return New(KindUpstream, "", fmt.Sprintf("upstream returned HTTP status %d", status)).WithStatus(status)
}

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *Error {
	return New(KindInvalidRequest, "", message)
}

// ErrServer creates a server error.
func ErrServer(message string) *Error {
	return New(KindServer, "", message)
}

// KindOf returns the Kind of err, or KindServer for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// CodeOf returns the Code of err, or "" for errors that are not *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
