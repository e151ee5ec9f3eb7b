package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Error Kinds
// ============================================================================

var (
	ErrProtocol         = errors.New("malformed response body")
	ErrSubmission       = errors.New("generation submission failed")
	ErrNotFound         = errors.New("not found")
	ErrGenerationFailed = errors.New("generation failed")
	ErrInvariant        = errors.New("state invariant violated")
	ErrFetch            = errors.New("fetch failed")
	ErrPublish          = errors.New("publish failed")
	ErrTransport        = errors.New("transport failure")
)

// Error is a terminal stage failure. Message holds the most specific text
// available, which is the server's own error string whenever one was sent.
type Error struct {
	Kind    error
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds an Error of the given kind. serverMsg wins over fallback.
func NewError(kind error, op string, status int, serverMsg, fallback string) *Error {
	msg := serverMsg
	if msg == "" {
		msg = fallback
	}
	return &Error{Kind: kind, Op: op, Status: status, Message: msg}
}

// ProtocolError reports a response body that could not be decoded as JSON.
// Preview never holds more than PreviewLimit bytes of the raw body.
type ProtocolError struct {
	Status  int
	Preview []byte
}

// PreviewLimit bounds how much of an untrusted body is kept for diagnostics.
const PreviewLimit = 200

func NewProtocolError(status int, raw []byte) *ProtocolError {
	n := len(raw)
	if n > PreviewLimit {
		n = PreviewLimit
	}
	preview := make([]byte, n)
	copy(preview, raw[:n])
	return &ProtocolError{Status: status, Preview: preview}
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("non-JSON response (status %d): %q", e.Status, e.Preview)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}
