package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind discriminates the gateway's error taxonomy. The dispatcher is the only
// place these are converted to the response envelope.
type Kind string

const (
	KindUnknownModel           Kind = "unknown_model"
	KindIncompatibleCapability Kind = "incompatible_capability"
	KindNoModelForCapability   Kind = "no_model_for_capability"
	KindMissingCredential      Kind = "missing_credential"
	KindCapabilityNotSupported Kind = "capability_not_supported"
	KindUpstreamError          Kind = "upstream_error"
	KindStreamInterrupted      Kind = "stream_interrupted"
	KindBadRequest             Kind = "bad_request"
	KindInternal               Kind = "internal"
)

// Error is the standard error shape crossing service boundaries.
type Error struct {
	Kind Kind
	// HTTP status the gateway boundary should answer with.
	Code int
	// Safe message for the client.
	Message string
	// Original error for internal logging, never surfaced.
	Log error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Log
}

// IsKind reports whether err is a gateway Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == kind
}

func ErrUnknownModel(key string, known []string) *Error {
	return &Error{
		Kind:    KindUnknownModel,
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("unknown model %q, available: %s", key, strings.Join(known, ", ")),
	}
}

func ErrIncompatibleCapability(modelKey string, c Capability) *Error {
	return &Error{
		Kind:    KindIncompatibleCapability,
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf("model %q does not support capability %q", modelKey, c),
	}
}

func ErrNoModelForCapability(c Capability) *Error {
	return &Error{
		Kind:    KindNoModelForCapability,
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("no model available for capability %q", c),
	}
}

// ErrMissingCredential deliberately names neither the secret nor its env var.
func ErrMissingCredential(providerKey string) *Error {
	return &Error{
		Kind:    KindMissingCredential,
		Code:    http.StatusBadGateway,
		Message: fmt.Sprintf("provider %q has no credential configured", providerKey),
	}
}

func ErrCapabilityNotSupported(modelKey string, c Capability) *Error {
	return &Error{
		Kind:    KindCapabilityNotSupported,
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf("model %q does not support %s", modelKey, c),
	}
}

func ErrUpstream(status int, msg string, log error) *Error {
	return &Error{
		Kind:    KindUpstreamError,
		Code:    http.StatusBadGateway,
		Message: fmt.Sprintf("upstream error (status %d): %s", status, msg),
		Log:     log,
	}
}

func ErrStreamInterrupted(log error) *Error {
	return &Error{
		Kind:    KindStreamInterrupted,
		Code:    http.StatusBadGateway,
		Message: "upstream stream interrupted",
		Log:     log,
	}
}

func ErrBadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Code: http.StatusBadRequest, Message: msg}
}

func ErrInternal(msg string, log error) *Error {
	return &Error{Kind: KindInternal, Code: http.StatusInternalServerError, Message: msg, Log: log}
}

// UpstreamError is the low-level transport error produced by the HTTP helpers
// before a provider adapter has had the chance to parse the native error body.
// The raw body never leaves the adapter layer.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}
