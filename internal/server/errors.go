package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError is a single field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the error body every endpoint returns on failure. Clients
// depend on this shape and nothing else
type ErrorResponse struct {
	Status  int          `json:"status"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// respondError writes a normalized error body and aborts the request
func respondError(c *gin.Context, status int, message string, fields ...FieldError) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:  status,
		Message: message,
		Errors:  fields,
	})
}

// respondBindingError turns a gin binding failure into a 400 with
// field-level detail when the underlying error is a validation error
func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, verr := range verrs {
			fields = append(fields, FieldError{
				Field:   verr.Field(),
				Message: validationMessage(verr),
			})
		}
		respondError(c, http.StatusBadRequest, "Validation failed", fields...)
		return
	}

	respondError(c, http.StatusBadRequest, "Invalid request body")
}

func validationMessage(verr validator.FieldError) string {
	switch verr.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Too short (minimum " + verr.Param() + " characters)"
	case "max":
		return "Too long (maximum " + verr.Param() + " characters)"
	case "oneof":
		return "Must be one of: " + verr.Param()
	case "strongpw":
		return "Must contain an uppercase letter, a lowercase letter and a digit"
	default:
		return "Invalid value"
	}
}
