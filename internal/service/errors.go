package service

import (
	"errors"
	"fmt"

	"github.com/gurkanbulca/taskpulse/internal/repository"
)

// Kind classifies a service error for the transport layer.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindStorage      Kind = "storage"
)

// Error is returned by every service operation that fails deliberately.
// Message is safe to show to clients; Err is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err. Anything that is not an *Error is a
// storage failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// PublicMessage is the client-facing text for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStorage {
		return e.Message
	}
	return "internal server error"
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error   { return newError(KindNotFound, format, args...) }
func forbidden(format string, args ...any) error  { return newError(KindForbidden, format, args...) }
func validation(format string, args ...any) error { return newError(KindValidation, format, args...) }
func conflict(format string, args ...any) error   { return newError(KindConflict, format, args...) }

func unauthorized(format string, args ...any) error {
	return newError(KindUnauthorized, format, args...)
}

func storage(op string, err error) error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// translate maps repository sentinels onto service kinds. what names the
// entity for the client message.
func translate(err error, what, op string) error {
	var e *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: what + " not found", Err: err}
	case errors.Is(err, repository.ErrDuplicate):
		return &Error{Kind: KindConflict, Message: what + " already exists", Err: err}
	default:
		return storage(op, err)
	}
}
