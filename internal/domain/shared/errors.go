package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is makes errors.Is match domain errors by code, so a structured
// error such as NewNotFoundError satisfies errors.Is(err, ErrNotFound)
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrClientNotConfigured = NewDomainError("CLIENT_NOT_CONFIGURED", "No client configuration for resource service")
	ErrTooManyIDs          = NewDomainError("TOO_MANY_IDS", "Bulk read exceeds the maximum id batch size")
	ErrInvalidPattern      = NewDomainError("INVALID_PATTERN", "Invoice number pattern is malformed")
	ErrUpstreamFailed      = NewDomainError("UPSTREAM_FAILED", "Resource service read failed")
)

// NewNotFoundError creates a NOT_FOUND error naming the entity and id
func NewNotFoundError(entity, id string) *DomainError {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s with id %s not found", entity, id))
}
