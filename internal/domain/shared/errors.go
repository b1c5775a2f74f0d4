package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// IsRetryable reports whether the caller may retry the failed operation
// with backoff. Structural errors are never retryable.
func (e *DomainError) IsRetryable() bool {
	return e.Retryable
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableDomainError creates a domain error the caller may retry
func NewRetryableDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// IsDomainError reports whether err is a domain error with the given code
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewRetryableDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvariantViolation  = NewDomainError("INVARIANT_VIOLATION", "Operation would violate an aggregate invariant")
	ErrExternalService     = NewRetryableDomainError("EXTERNAL_SERVICE", "External collaborator call failed")

	// ErrDataConflict marks an integrity breach that must never occur.
	// It is asserted and surfaced, never silently repaired.
	ErrDataConflict = NewDomainError("DATA_CONFLICT", "Data integrity conflict detected")
)
