package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidQuery signals a malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrValidation signals a form that failed field validation.
	ErrValidation = errors.New("validation failed")

	// ErrQueryFailed signals that the underlying data source could not answer.
	ErrQueryFailed = errors.New("query failed")
	// ErrQueryTimeout signals that the data source did not answer in time.
	// It also matches ErrQueryFailed.
	ErrQueryTimeout = fmt.Errorf("%w: timed out", ErrQueryFailed)
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotImplemented signals that the configured backend lacks a feature.
	ErrNotImplemented = errors.New("not implemented")
)

// FieldError is a single rejected form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects per-field errors. It unwraps to ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Fields[0].Field, e.Fields[0].Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns the error if any field was rejected, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
