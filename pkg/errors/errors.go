// Package errors provides structured error types for stackhost.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies specific error conditions
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeParse              ErrorCode = "PARSE_ERROR"
	ErrCodeBackend            ErrorCode = "BACKEND_ERROR"
	ErrCodeProvisioning       ErrorCode = "PROVISIONING_ERROR"
	ErrCodeOutputsUnavailable ErrorCode = "OUTPUTS_UNAVAILABLE"
	ErrCodeUnknownOutput      ErrorCode = "UNKNOWN_OUTPUT"
)

// Error is the base error type for stackhost
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Wrap creates a new error wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a single detail to an error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

// ValidationError creates a validation error
func ValidationError(message string, details map[string]interface{}) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: message,
		Details: details,
	}
}

// NotFoundError creates a not found error
func NotFoundError(resourceType, name string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", resourceType, name),
		Details: map[string]interface{}{
			"resource_type": resourceType,
			"name":          name,
		},
	}
}

// ParseError creates a parse error
func ParseError(filePath string, err error) *Error {
	return &Error{
		Code:    ErrCodeParse,
		Message: fmt.Sprintf("failed to parse %s", filePath),
		Cause:   err,
		Details: map[string]interface{}{
			"file": filePath,
		},
	}
}

// BackendError creates a storage backend error
func BackendError(backend string, operation string, err error) *Error {
	return &Error{
		Code:    ErrCodeBackend,
		Message: fmt.Sprintf("backend %s failed during %s", backend, operation),
		Cause:   err,
		Details: map[string]interface{}{
			"backend":   backend,
			"operation": operation,
		},
	}
}

// ProvisioningError creates an error for a failed provisioning step. The
// backend's error is carried as the cause so operators see it verbatim.
func ProvisioningError(stack string, operation string, err error) *Error {
	return &Error{
		Code:    ErrCodeProvisioning,
		Message: fmt.Sprintf("stack %q failed during %s", stack, operation),
		Cause:   err,
		Details: map[string]interface{}{
			"stack":     stack,
			"operation": operation,
		},
	}
}

// OutputsUnavailable creates an error for reading a stack's outputs before
// provisioning has completed.
func OutputsUnavailable(stack string) *Error {
	return &Error{
		Code:    ErrCodeOutputsUnavailable,
		Message: fmt.Sprintf("outputs of stack %q are not available yet", stack),
		Details: map[string]interface{}{
			"stack": stack,
		},
	}
}

// UnknownOutput creates an error for referencing an output name absent from
// a completed output set.
func UnknownOutput(stack, output string) *Error {
	return &Error{
		Code:    ErrCodeUnknownOutput,
		Message: fmt.Sprintf("stack %q has no output named %q", stack, output),
		Details: map[string]interface{}{
			"stack":  stack,
			"output": output,
		},
	}
}

// Is checks if the error (or any error it wraps) matches the given code
func Is(err error, code ErrorCode) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}
