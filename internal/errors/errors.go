package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline error. Every failure surfaced through a
// per-file Result carries exactly one Kind.
type Kind int

const (
	// KindInvalidIdentifier means the parser could not derive an ID from
	// the filename. Terminal for that file.
	KindInvalidIdentifier Kind = iota
	// KindNetwork is a transport failure or a retryable status that
	// exhausted its retries.
	KindNetwork
	// KindHTTPStatus is a definitive non-retryable status (404 etc.).
	KindHTTPStatus
	// KindNotFound means an adapter reached a page that turned out to be
	// a soft 404.
	KindNotFound
	// KindParseFailure means the adapter response lacked required fields.
	KindParseFailure
	// KindAllSourcesExhausted means no source produced a valid record.
	KindAllSourcesExhausted
	// KindFilesystem covers placement and sidecar write failures.
	KindFilesystem
	// KindCancelled is a coordinator-level abort.
	KindCancelled
)

// String returns the stable tag for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidIdentifier:
		return "INVALID_IDENTIFIER"
	case KindNetwork:
		return "NETWORK"
	case KindHTTPStatus:
		return "HTTP_STATUS"
	case KindNotFound:
		return "NOT_FOUND"
	case KindParseFailure:
		return "PARSE_FAILURE"
	case KindAllSourcesExhausted:
		return "ALL_SOURCES_EXHAUSTED"
	case KindFilesystem:
		return "FILESYSTEM"
	case KindCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Error is the error type used throughout the pipeline. Source names the
// component or adapter that produced it; StatusCode is set only for
// KindHTTPStatus.
type Error struct {
	Kind       Kind
	Source     string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Source, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind.
func New(kind Kind, source, message string) *Error {
	return &Error{Kind: kind, Source: source, Message: message}
}

// Wrap creates an Error of the given kind with an underlying cause.
func Wrap(kind Kind, source, message string, cause error) *Error {
	return &Error{Kind: kind, Source: source, Message: message, Cause: cause}
}

// NewInvalidIdentifier reports that no identifier could be derived.
func NewInvalidIdentifier(filename string) *Error {
	return New(KindInvalidIdentifier, "avid", fmt.Sprintf("no identifier in %q", filename))
}

// NewNetwork reports a transport failure.
func NewNetwork(source string, cause error) *Error {
	return Wrap(KindNetwork, source, "network request failed", cause)
}

// NewHTTPStatus reports a definitive non-retryable status.
func NewHTTPStatus(source string, code int) *Error {
	return &Error{
		Kind:       KindHTTPStatus,
		Source:     source,
		Message:    fmt.Sprintf("HTTP %d", code),
		StatusCode: code,
	}
}

// NewNotFound reports a soft 404.
func NewNotFound(source, id string) *Error {
	return New(KindNotFound, source, fmt.Sprintf("no record for %s", id))
}

// NewParseFailure reports a response missing required fields.
func NewParseFailure(source, message string) *Error {
	return New(KindParseFailure, source, message)
}

// NewAllSourcesExhausted reports that every ranked source failed.
func NewAllSourcesExhausted(id string) *Error {
	return New(KindAllSourcesExhausted, "registry", fmt.Sprintf("all sources failed for %s", id))
}

// NewFilesystem reports a placement or sidecar write failure.
func NewFilesystem(message string, cause error) *Error {
	return Wrap(KindFilesystem, "organizer", message, cause)
}

// NewCancelled reports a coordinator-level abort.
func NewCancelled() *Error {
	return New(KindCancelled, "processor", "cancelled")
}

// KindOf returns the Kind of err. The second return is false when err is
// not a pipeline Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindNetwork, false
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Recoverable reports whether the registry may recover from err by
// advancing to the next source. Parser and filesystem errors
// short-circuit the file instead.
func Recoverable(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return true
	}
	switch k {
	case KindNetwork, KindHTTPStatus, KindNotFound, KindParseFailure:
		return true
	default:
		return false
	}
}

// NeedsHardenedFetch reports whether an error looks like a CloudFlare
// challenge, in which case the gateway may retry through the hardened
// browser backend.
func NeedsHardenedFetch(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"cloudflare", "403", "cf-ray", "just a moment"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
