// Package apperr classifies service failures so the transport layer can map
// them to status codes without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable failure class.
type Kind string

const (
	KindUnknown        Kind = "UNKNOWN"
	KindNotFound       Kind = "NOT_FOUND"
	KindInvalidState   Kind = "INVALID_STATE"
	KindInvalidRound   Kind = "INVALID_ROUND"
	KindInvalidTarget  Kind = "INVALID_TARGET"
	KindDuplicateTitle Kind = "DUPLICATE_TITLE"
	KindDuplicateVote  Kind = "DUPLICATE_VOTE"
	KindStore          Kind = "STORE_FAILURE"
)

// Error carries a kind along with a human-readable message.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf extracts the kind from err, or KindUnknown if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Is lets errors.Is match two apperr errors of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.kind == t.kind
	}
	return false
}
