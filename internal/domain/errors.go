package domain

import (
	"errors"
	"fmt"
)

// ErrorKind tags an operation failure so the transport layer can map it to a
// status family without string matching.
type ErrorKind int

const (
	// KindUnauthorized means the token could not be resolved to a user.
	KindUnauthorized ErrorKind = iota
	// KindForbidden means a valid user lacks permission (not the quiz owner).
	KindForbidden
	// KindNotFound means an unknown session, player, quiz or question id.
	KindNotFound
	// KindInvalidState means the action or query is not legal in the
	// session's current lifecycle state.
	KindInvalidState
	// KindInvalidInput means a malformed parameter.
	KindInvalidInput
	// KindConflict means a duplicate player name within the session.
	KindConflict
	// KindResourceExhausted means the active-session cap was hit.
	KindResourceExhausted
)

// Error is the tagged failure every core operation returns. Operations either
// succeed fully or return one of these before mutating anything.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is lets errors.Is match against the kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrResourceExhausted = &Error{Kind: KindResourceExhausted}
)

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func ResourceExhausted(format string, args ...any) *Error {
	return &Error{Kind: KindResourceExhausted, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from any error produced by the core.
// Unknown errors are reported as KindInvalidInput.
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInvalidInput
}
