package client

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/bitsync/pkg/api"
)

// Sentinel errors matched by *APIError. Use errors.Is() to check.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidQuery   = errors.New("invalid query")
	ErrValidation     = errors.New("validation failed")
	ErrRateLimited    = errors.New("rate limited")
	ErrNotImplemented = errors.New("not implemented")
	ErrUnauthorized   = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       api.ErrorCode
	Message    string
	Fields     []api.FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bitsync: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is maps the error code onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch e.Code {
	case api.ErrorCodeNotFound:
		return target == ErrNotFound
	case api.ErrorCodeAlreadyExists:
		return target == ErrAlreadyExists
	case api.ErrorCodeBadRequest:
		return target == ErrInvalidQuery
	case api.ErrorCodeValidationFailed:
		return target == ErrInvalidQuery || (target == ErrValidation && len(e.Fields) > 0)
	case api.ErrorCodeRateLimited:
		return target == ErrRateLimited
	case api.ErrorCodeNotImplemented:
		return target == ErrNotImplemented
	case api.ErrorCodeUnauthorized:
		return target == ErrUnauthorized
	default:
		return false
	}
}
