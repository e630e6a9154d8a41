package db

import (
	"errors"
	"fmt"
)

// Kind classifies every error returned by this package.
// Use errors.Is(err, db.ErrQuery) and friends to branch on it.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	ErrConfig         Kind = "config error"
	ErrConnection     Kind = "connection error"
	ErrQuery          Kind = "query error"
	ErrTypeMismatch   Kind = "type mismatch"
	ErrColumnNotFound Kind = "column not found"
	ErrOutOfRange     Kind = "out of range"
	ErrInvalidState   Kind = "invalid state"
	ErrParamMismatch  Kind = "parameter mismatch"
	ErrInUse          Kind = "connection in use"
	ErrEmptyResult    Kind = "empty result"
	ErrUnsupported    Kind = "unsupported operation"
)

// ErrUnknownBackendType is wrapped by ErrConfig when Create is given a type
// nobody registered.
var ErrUnknownBackendType = errors.New("unknown backend type")

// Error carries the kind, the failing operation and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's Kind so errors.Is(err, ErrQuery) works without the
// caller knowing about *Error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// asQuery re-tags a failure as ErrQuery unless it already carries a kind the
// caller must see unchanged.
func asQuery(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case ErrQuery, ErrParamMismatch, ErrInvalidState, ErrInUse:
			return err
		}
	}
	return newError(ErrQuery, op, err)
}
