package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeRetrieval     ErrorType = "retrieval"
	ErrorTypeGeneration    ErrorType = "generation"
	ErrorTypeEvaluation    ErrorType = "evaluation"
	ErrorTypeInternal      ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
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

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewConfigurationError creates a configuration error (fatal before any external call)
func NewConfigurationError(message string, err error) *DomainError {
	return &DomainError{Type: ErrorTypeConfiguration, Message: message, Err: err}
}

// NewValidationError creates a validation error
func NewValidationError(message string, err error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: err}
}

// NewRetrievalError creates a retrieval error
func NewRetrievalError(message string, err error) *DomainError {
	return &DomainError{Type: ErrorTypeRetrieval, Message: message, Err: err}
}

// NewGenerationError creates a generation error (per-question failure in a batch)
func NewGenerationError(message string, err error) *DomainError {
	return &DomainError{Type: ErrorTypeGeneration, Message: message, Err: err}
}

// NewEvaluationError creates an evaluation error
func NewEvaluationError(message string, err error) *DomainError {
	return &DomainError{Type: ErrorTypeEvaluation, Message: message, Err: err}
}

// IsType checks whether err is a DomainError of the given type
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}
