package apperror

import (
	"errors"
	"net/http"
)

// Kind enumerates the error categories the gateway knows how to map to HTTP statuses.
type Kind int

const (
	// KindInternal covers anything the service did not classify.
	KindInternal Kind = iota
	// KindInvalidInput marks missing or malformed request data.
	KindInvalidInput
	// KindUnauthorized marks failed credential or session checks.
	KindUnauthorized
	// KindForbidden marks callers acting on documents they do not own or share.
	KindForbidden
	// KindConflict marks uniqueness violations such as duplicate usernames.
	KindConflict
	// KindNotFound marks lookups of records that do not exist.
	KindNotFound
)

var statusByKind = map[Kind]int{
	KindInternal:     http.StatusInternalServerError,
	KindInvalidInput: http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindConflict:     http.StatusConflict,
	KindNotFound:     http.StatusNotFound,
}

// Error is a tagged service error carrying a caller-facing message.
type Error struct {
	kind    Kind
	message string
	err     error
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.err
}

// Kind returns the error category.
func (e *Error) Kind() Kind {
	return e.kind
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, err: cause}
}

// InvalidInput tags missing or malformed request data.
func InvalidInput(message string) *Error {
	return newError(KindInvalidInput, message, nil)
}

// Unauthorized tags failed credential or session verification.
func Unauthorized(message string) *Error {
	return newError(KindUnauthorized, message, nil)
}

// Forbidden tags a caller acting outside its document grants.
func Forbidden(message string) *Error {
	return newError(KindForbidden, message, nil)
}

// Conflict tags uniqueness violations.
func Conflict(message string) *Error {
	return newError(KindConflict, message, nil)
}

// NotFound tags lookups of absent records.
func NotFound(message string) *Error {
	return newError(KindNotFound, message, nil)
}

// Internal wraps an unexpected failure so its text still reaches the caller.
func Internal(message string, cause error) *Error {
	return newError(KindInternal, message, cause)
}

// KindOf classifies an arbitrary error; untagged errors are internal.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind()
	}
	return KindInternal
}

// HTTPStatus resolves an error kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
