package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Validation failures. Surfaced to the caller with a description and never
// retried.
var (
	ErrInvalidAddress    = fmt.Errorf("from must be a valid email address")
	ErrEmptyConversation = fmt.Errorf("conversation is required and must be non-empty")
	ErrMissingText       = fmt.Errorf("text is required")
)

// ErrStorage wraps backend failures. Callers surface it as a generic
// transient failure; the core never auto-retries.
var ErrStorage = fmt.Errorf("storage failure")

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrEmptyConversation) ||
		errors.Is(err, ErrMissingText)
}

// MapToHTTPStatus translates the error taxonomy to a wire status code.
// Unknown conversations are not part of the taxonomy at all: they yield
// empty results, never an error.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
