// Package errors provides domain-specific error types.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for domain errors.
const (
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeInvalidState          = "INVALID_STATE"
	ErrCodeRepositoryUnavailable = "REPOSITORY_UNAVAILABLE"
	ErrCodeAugmentationFailure   = "AUGMENTATION_FAILURE"
	ErrCodeBusinessLookupFailure = "BUSINESS_LOOKUP_FAILURE"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, identifier string) *DomainError {
	return &DomainError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    identifier,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewInvalidStateError creates an error for an unrecognized flow state.
func NewInvalidStateError(state string) *DomainError {
	return &DomainError{
		Code:       ErrCodeInvalidState,
		Message:    "unrecognized flow state",
		Details:    state,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewRepositoryUnavailableError creates an error for a failed durable store call.
func NewRepositoryUnavailableError(operation string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeRepositoryUnavailable,
		Message:    fmt.Sprintf("repository call failed: %s", operation),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewAugmentationFailureError creates an error for a failed generative-text call.
func NewAugmentationFailureError(reason string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeAugmentationFailure,
		Message:    "augmentation failed",
		Details:    reason,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewBusinessLookupFailureError creates an error for a failed business-data lookup.
func NewBusinessLookupFailureError(operation string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeBusinessLookupFailure,
		Message:    fmt.Sprintf("business lookup failed: %s", operation),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeValidation,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeInternal,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsDomainError checks if the error is a domain error.
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error.
func GetDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == ErrCodeNotFound
}

// IsInvalidState checks if the error is an invalid state error.
func IsInvalidState(err error) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == ErrCodeInvalidState
}

// IsRepositoryUnavailable checks if the error is a repository failure.
func IsRepositoryUnavailable(err error) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == ErrCodeRepositoryUnavailable
}

// IsBusinessLookupFailure checks if the error is a business lookup failure.
func IsBusinessLookupFailure(err error) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == ErrCodeBusinessLookupFailure
}
