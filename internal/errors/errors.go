package errors

import (
	"fmt"
)

// AgiraError is the structured error type for agira-context.
// It provides context for error handling, logging, and user presentation.
type AgiraError struct {
	// Code is the unique error code (e.g. "ERR_402_QUERY_EMPTY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Network, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *AgiraError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AgiraError) Unwrap() error {
	return e.Cause
}

// Is matches AgiraError targets by code, enabling errors.Is.
func (e *AgiraError) Is(target error) bool {
	if t, ok := target.(*AgiraError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *AgiraError) WithDetail(key, value string) *AgiraError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *AgiraError) WithSuggestion(suggestion string) *AgiraError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AgiraError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *AgiraError {
	return &AgiraError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an AgiraError from an existing error.
// The error's message becomes the AgiraError message.
func Wrap(code string, err error) *AgiraError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *AgiraError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// BackendError creates a backend/network-related error.
func BackendError(message string, cause error) *AgiraError {
	return New(ErrCodeBackendUnavailable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *AgiraError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *AgiraError {
	return New(ErrCodeInternal, message, cause)
}

// IsValidation reports whether an error carries a validation code.
// Validation failures are the only errors the retrieval core returns to
// callers; everything environmental degrades in-band.
func IsValidation(err error) bool {
	if ae, ok := err.(*AgiraError); ok {
		return ae.Category == CategoryValidation
	}
	return false
}

// GetCode extracts the error code from an AgiraError.
// Returns empty string if not an AgiraError.
func GetCode(err error) string {
	if ae, ok := err.(*AgiraError); ok {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an AgiraError.
// Returns empty string if not an AgiraError.
func GetCategory(err error) Category {
	if ae, ok := err.(*AgiraError); ok {
		return ae.Category
	}
	return ""
}
