package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Skyward errors.
type ErrorCode string

// Graph error codes
const (
	GRAPH_PARSE_FAILED      ErrorCode = "GRAPH_PARSE_FAILED"
	GRAPH_VALIDATION_FAILED ErrorCode = "GRAPH_VALIDATION_FAILED"
	GRAPH_NO_START_NODE     ErrorCode = "GRAPH_NO_START_NODE"
	GRAPH_DANGLING_EDGE     ErrorCode = "GRAPH_DANGLING_EDGE"
	GRAPH_BAD_CONDITION     ErrorCode = "GRAPH_BAD_CONDITION"
)

// Mission error codes
const (
	MISSION_NOT_FOUND          ErrorCode = "MISSION_NOT_FOUND"
	MISSION_ALREADY_RUNNING    ErrorCode = "MISSION_ALREADY_RUNNING"
	MISSION_INVALID_TRANSITION ErrorCode = "MISSION_INVALID_TRANSITION"
	MISSION_PROGRESS_REGRESSED ErrorCode = "MISSION_PROGRESS_REGRESSED"
)

// Command channel error codes
const (
	CHANNEL_UNAVAILABLE ErrorCode = "CHANNEL_UNAVAILABLE"
	CHANNEL_TIMEOUT     ErrorCode = "CHANNEL_TIMEOUT"
	CHANNEL_BAD_REPLY   ErrorCode = "CHANNEL_BAD_REPLY"
)

// Archive error codes
const (
	ARCHIVE_OPEN_FAILED      ErrorCode = "ARCHIVE_OPEN_FAILED"
	ARCHIVE_MIGRATION_FAILED ErrorCode = "ARCHIVE_MIGRATION_FAILED"
	ARCHIVE_WRITE_FAILED     ErrorCode = "ARCHIVE_WRITE_FAILED"
	ARCHIVE_NOT_FOUND        ErrorCode = "ARCHIVE_NOT_FOUND"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// SkywardError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints.
type SkywardError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *SkywardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *SkywardError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is against sentinel values.
func (e *SkywardError) Is(target error) bool {
	var se *SkywardError
	if errors.As(target, &se) {
		return e.Code == se.Code
	}
	return false
}

// NewError creates a new non-retryable SkywardError.
func NewError(code ErrorCode, message string) *SkywardError {
	return &SkywardError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable SkywardError. Use this for
// transient failures such as channel timeouts.
func NewRetryableError(code ErrorCode, message string) *SkywardError {
	return &SkywardError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a non-retryable SkywardError wrapping an existing error.
func WrapError(code ErrorCode, message string, cause error) *SkywardError {
	return &SkywardError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
