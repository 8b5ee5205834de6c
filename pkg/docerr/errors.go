// Package docerr defines the error taxonomy shared by the document engine.
//
// Every failure the engine surfaces to its transport layer is a *Error
// carrying a Kind and an HTTP-style status code, so the HTTP adapter can map
// errors to responses without inspecting message text.
package docerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine failure.
type Kind string

const (
	KindInvalidType       Kind = "invalid_type"
	KindInvalidState      Kind = "invalid_state"
	KindInvalidTransition Kind = "invalid_transition"
	KindAccessDenied      Kind = "access_denied"
	KindNotFound          Kind = "not_found"
	KindAlreadyExists     Kind = "already_exists"
	KindUndeletable       Kind = "undeletable"
	KindBadRequest        Kind = "bad_request"
)

// Error is a typed engine error with an HTTP status code.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports kind equality so callers can use errors.Is with sentinel kinds.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Status:  statusFor(kind),
		Message: fmt.Sprintf(format, args...),
	}
}

func statusFor(kind Kind) int {
	switch kind {
	case KindInvalidType, KindInvalidState, KindInvalidTransition, KindBadRequest:
		return http.StatusBadRequest
	case KindAccessDenied:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindUndeletable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// InvalidType reports a document type missing from the registry.
func InvalidType(name string) *Error {
	return New(KindInvalidType, "unknown document type %q", name)
}

// InvalidState reports a stored state that matches no declared state.
func InvalidState(typeName, state string) *Error {
	return New(KindInvalidState, "document type %q has no state %q", typeName, state)
}

// InvalidTransition reports a state change not declared in nextStates.
func InvalidTransition(typeName, from, to string) *Error {
	return New(KindInvalidTransition, "type %q declares no transition from %q to %q", typeName, from, to)
}

// AccessDenied reports a failed gate evaluation.
func AccessDenied(format string, args ...interface{}) *Error {
	return New(KindAccessDenied, format, args...)
}

// NotFound reports a missing document or group.
func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

// AlreadyExists reports a duplicate id on creation or import.
func AlreadyExists(format string, args ...interface{}) *Error {
	return New(KindAlreadyExists, format, args...)
}

// Undeletable reports deletion of a group marked non-deletable.
func Undeletable(groupID string) *Error {
	return New(KindUndeletable, "group %q is not deletable", groupID)
}

// BadRequest reports a malformed client request.
func BadRequest(format string, args ...interface{}) *Error {
	return New(KindBadRequest, format, args...)
}

// StatusOf returns the HTTP status for err, or 500 for untyped errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of err, or "" for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
