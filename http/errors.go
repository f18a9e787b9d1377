package http

import (
	"errors"
	"fmt"
)

// ClientError represents the failures a remote request can end with
type ClientError interface {
	error
	Type() ErrorType
	Retryable() bool
}

// ErrorType defines the category of client error
type ErrorType string

const (
	TypeConnection        ErrorType = "connection"
	TypeExecution         ErrorType = "execution"
	TypeMalformedResponse ErrorType = "malformed_response"
	TypeValidation        ErrorType = "validation"
)

// maxOutputSnippet bounds the raw output kept on a MalformedResponseError
const maxOutputSnippet = 512

// ConnectionError is returned when the remote host could not be reached or authenticated
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("connection error: %s: %v", e.Addr, e.Err)
	}
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Type() ErrorType { return TypeConnection }

func (e *ConnectionError) Retryable() bool { return true }

func (e *ConnectionError) Unwrap() error { return e.Err }

// ExecutionError is returned when the remote command could not be run to completion
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error: %v", e.Err)
}

func (e *ExecutionError) Type() ErrorType { return TypeExecution }

func (e *ExecutionError) Retryable() bool { return true }

func (e *ExecutionError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when curl's output could not be parsed
type MalformedResponseError struct {
	// Output is the beginning of the raw output
	Output string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Type() ErrorType { return TypeMalformedResponse }

func (e *MalformedResponseError) Retryable() bool { return true }

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ValidationError is returned for requests that can never succeed as given
type ValidationError struct {
	Message string
	Field   string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error: %s", e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ValidationError) Type() ErrorType { return TypeValidation }

func (e *ValidationError) Retryable() bool { return false }

func (e *ValidationError) Unwrap() error { return e.Err }

// NewConnectionError creates a new connection error
func NewConnectionError(addr string, err error) ClientError {
	return &ConnectionError{Addr: addr, Err: err}
}

// NewExecutionError creates a new execution error
func NewExecutionError(err error) ClientError {
	return &ExecutionError{Err: err}
}

// NewMalformedResponseError creates a new malformed response error
func NewMalformedResponseError(err error, output []byte) ClientError {
	snippet := output
	if len(snippet) > maxOutputSnippet {
		snippet = snippet[:maxOutputSnippet]
	}
	return &MalformedResponseError{Output: string(snippet), Err: err}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string, err error) ClientError {
	return &ValidationError{Message: message, Field: field, Err: err}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsRetryable reports whether err is a ClientError that another attempt could fix
func IsRetryable(err error) bool {
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Retryable()
	}
	return false
}

// errorType returns the error's type name, or "" when err is not a ClientError.
func errorType(err error) string {
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return string(clientErr.Type())
	}
	return ""
}
