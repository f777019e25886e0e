// internal/app/lifecycle/errors.go
package lifecycle

import (
	"errors"
	"strings"
)

// Kind classifies a lifecycle failure. Transports map kinds to their own
// status codes.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindPreconditionFailed  Kind = "precondition_failed"
	KindConflict            Kind = "conflict"
	KindForbidden           Kind = "forbidden"
	KindInvalidState        Kind = "invalid_state"
	KindNotFound            Kind = "not_found"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
)

// Error is the typed failure returned by every Service operation.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrConflict) match any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrPreconditionFailed  = &Error{Kind: KindPreconditionFailed}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrInvalidState        = &Error{Kind: KindInvalidState}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
)

// KindOf returns the kind of err, or "" when err is not a lifecycle error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newErr(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}
