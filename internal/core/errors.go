package core

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound covers both a missing bill and a bill owned by someone else.
	ErrNotFound = errors.New("bill not found")
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence is returned when the repository fails on write.
	ErrPersistence = errors.New("operation failed")

	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidStatus = errors.New("invalid status")
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// errOrNil keeps a nil *ValidationError from turning into a non-nil error.
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Owner is the authenticated principal a request acts for. Email is where
// notifications go and may be empty.
type Owner struct {
	ID    string
	Email string
}
