package api

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError is a single field-level failure in an error response
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the normalized error every API call returns for a non-2xx
// response. Callers should depend on this shape and nothing else; a response
// without a structured body normalizes to {500, "an unexpected error
// occurred"}
type Error struct {
	Status  int          `json:"status"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s (status %d): %s: %s", e.Message, e.Status, e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// IsUnauthorized reports whether err is a normalized 401
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// AsError extracts the normalized API error from err, if it carries one
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
