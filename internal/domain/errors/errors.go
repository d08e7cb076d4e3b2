package errors

import (
	"errors"
	"fmt"
)

// Gateway-level error codes carried on failure responses. Bank-native
// decline codes are preserved verbatim by the adapters and are not
// enumerated here.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeProcessingError    = "PROCESSING_ERROR"
)

var (
	// Processor errors
	ErrUnknownBank      = errors.New("unsupported bank")
	ErrBankDisabled     = errors.New("bank is disabled")
	ErrNoProcessors     = errors.New("no processors available")
	ErrProcessorTimeout = errors.New("processor request timeout")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with a machine-readable code and context.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
