package syndication

import (
	"errors"
	"fmt"
)

// Kind classifies a syndication failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindRemoteRejected
	KindNetwork
	KindProtocolUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindNetwork:
		return "network_error"
	case KindProtocolUnsupported:
		return "protocol_unsupported"
	default:
		return "unknown"
	}
}

// Sentinels for use with errors.Is.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrRemoteRejected      = &Error{Kind: KindRemoteRejected}
	ErrNetwork             = &Error{Kind: KindNetwork}
	ErrProtocolUnsupported = &Error{Kind: KindProtocolUnsupported}
)

// Error is a classified syndication failure.
type Error struct {
	Kind    Kind
	Op      string
	Message string

	// StatusCode and Body are set when the remote answered.
	StatusCode int
	Body       []byte

	Err error
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError builds an Error of the given kind around err.
func WrapError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so callers can compare against
// the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is classified as KindNotFound.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
