package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	// Per-attempt error types, recoverable via fallback to the next model
	ErrorTypeRateLimit        ErrorType = "rate_limit"
	ErrorTypeModelUnavailable ErrorType = "model_unavailable"
	ErrorTypeTimeout          ErrorType = "timeout"
	ErrorTypeAuthentication   ErrorType = "authentication_error"
	ErrorTypeQuotaExceeded    ErrorType = "quota_exceeded"
	ErrorTypeUnknown          ErrorType = "unknown_error"

	// Call-level error types, terminal for the whole request
	ErrorTypeConfiguration ErrorType = "configuration_error"
	ErrorTypeExhausted     ErrorType = "all_models_exhausted"

	// Infrastructure error types used by the HTTP surface
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is; two domain errors match on their type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	// Configuration errors
	ErrEmptyChain      = NewDomainError(ErrorTypeConfiguration, "chain resolved to an empty model list", nil)
	ErrChainNotFound   = NewDomainError(ErrorTypeConfiguration, "chain not found", nil)
	ErrUnknownModel    = NewDomainError(ErrorTypeConfiguration, "model not present in catalog", nil)
	ErrNilOperation    = NewDomainError(ErrorTypeConfiguration, "operation must not be nil", nil)

	// Terminal routing error
	ErrAllModelsExhausted = NewDomainError(ErrorTypeExhausted, "all models in chain failed", nil)

	// Validation errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidChain = NewDomainError(ErrorTypeValidation, "invalid chain definition", nil)

	// Not found errors
	ErrModelNotFound = NewDomainError(ErrorTypeNotFound, "model not found", nil)

	// Authorization errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)

	// Conflict errors
	ErrChainAlreadyExists = NewDomainError(ErrorTypeConflict, "chain already exists", nil)
)

// GetErrorType extracts the ErrorType from an error, or ErrorTypeInternal
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal
}

// GetErrorDetails extracts structured details from an error, if any
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// IsConfigurationError reports whether err is a configuration error
func IsConfigurationError(err error) bool {
	return GetErrorType(err) == ErrorTypeConfiguration
}

// IsExhaustedError reports whether err is a chain-exhaustion error
func IsExhaustedError(err error) bool {
	return GetErrorType(err) == ErrorTypeExhausted
}

// IsValidationError reports whether err is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsUnauthorizedError reports whether err is an authorization error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsConflictError reports whether err is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError reports whether err is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}
