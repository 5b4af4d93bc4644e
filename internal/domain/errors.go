package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	ErrCodeInitTimeout        = "INIT_TIMEOUT"
	ErrCodeUpstream           = "UPSTREAM_ERROR"
	ErrCodeStorage            = "STORAGE_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyText         = NewDomainError(ErrCodeValidation, "text is empty or whitespace only")
	ErrEmptyQuery        = NewDomainError(ErrCodeValidation, "query is empty")
	ErrInvalidSourceType = NewDomainError(ErrCodeValidation, "invalid document source type")
	ErrMalformedPage     = NewDomainError(ErrCodeValidation, "candidate page is malformed")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrPageNotFound     = NewDomainError(ErrCodeNotFound, "page not found")
)

// Embedding backend errors
var (
	ErrBackendUnavailable = NewDomainError(ErrCodeBackendUnavailable, "no embedding backend available")
	ErrUnknownBackend     = NewDomainError(ErrCodeBackendUnavailable, "unknown embedding backend")
	ErrInitTimeout        = NewDomainError(ErrCodeInitTimeout, "embedding backend initialization timed out")
)

// Remote source errors
var (
	ErrSourceNotConfigured = NewDomainError(ErrCodeUpstream, "remote content source not configured")
)

// NewUpstreamError wraps a non-success response from a remote backend.
func NewUpstreamError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeUpstream, message, err)
}

// NewStorageError wraps a persistence layer failure.
func NewStorageError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeStorage, message, err)
}
