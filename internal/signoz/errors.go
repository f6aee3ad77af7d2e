package signoz

import (
	"errors"
	"fmt"
)

// Error kinds. Validation and construction kinds are produced before any
// network activity; the rest classify upstream failures.
const (
	KindValidation         = "ValidationError"
	KindInvalidDuration    = "InvalidDuration"
	KindInvalidWindow      = "InvalidWindow"
	KindInvalidBuilderSpec = "InvalidBuilderSpec"
	KindAuth               = "AuthError"
	KindNotFound           = "NotFound"
	KindUpstream           = "UpstreamError"
	KindTransport          = "TransportError"
	KindMalformed          = "MalformedResponse"
)

// Error is a classified failure. Every error that reaches a tool boundary
// is one of these so the caller always sees a structured {kind, message}.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds a classified error with a formatted message.
func Errorf(kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from an error chain. Unclassified
// errors are reported as upstream failures rather than leaking raw text
// as a kind.
func KindOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUpstream
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind string) bool {
	return KindOf(err) == kind
}
