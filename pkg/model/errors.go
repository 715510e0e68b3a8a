package model

import (
	"fmt"
	"strings"
)

// ErrorCode classifies a configuration error.
type ErrorCode string

const (
	ErrUnknownAlgorithm ErrorCode = "UNKNOWN_ALGORITHM"
	ErrInvalidTrace     ErrorCode = "INVALID_TRACE"
	ErrTooManyProcesses ErrorCode = "TOO_MANY_PROCESSES"
	ErrNameTooLong      ErrorCode = "NAME_TOO_LONG"
	ErrNoProcesses      ErrorCode = "NO_PROCESSES"
	ErrInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrInternal         ErrorCode = "INTERNAL_ERROR"
	ErrUnavailable      ErrorCode = "UNAVAILABLE"
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
)

// ConfigError is raised before dispatch begins when the run cannot be set up.
// It is also the error payload of the status API envelope.
type ConfigError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *ConfigError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.String())
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, "; "))
}

// FieldError describes a problem with one field or trace line.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	switch {
	case f.Line > 0 && f.Field != "":
		return fmt.Sprintf("line %d: %s: %s", f.Line, f.Field, f.Message)
	case f.Line > 0:
		return fmt.Sprintf("line %d: %s", f.Line, f.Message)
	case f.Field != "":
		return f.Field + ": " + f.Message
	}
	return f.Message
}

// NewConfigError creates a ConfigError with optional field details.
func NewConfigError(code ErrorCode, msg string, details ...FieldError) *ConfigError {
	return &ConfigError{Code: code, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND error.
func NewNotFoundError(resource, id string) *ConfigError {
	return &ConfigError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// NewInternalError creates an INTERNAL_ERROR error.
func NewInternalError(msg string) *ConfigError {
	return &ConfigError{Code: ErrInternal, Message: msg}
}

// InvalidTransitionError is returned when a process state transition is invalid.
type InvalidTransitionError struct {
	Process string
	From    ProcessState
	To      ProcessState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid process state transition: %s → %s (process %s)", e.From, e.To, e.Process)
}
