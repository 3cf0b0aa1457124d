package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string         // Machine-readable code: missing_argument, command_failed, etc.
	Message  string         // Human-readable message
	Details  map[string]any // Additional context
	Cause    error          // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches predefined errors by code, so a copy made with WithCause or
// WithMessage still satisfies errors.Is(err, ErrCommandFailed).
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Category == t.Category
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]any) *ExecutionError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Argument errors
	ErrMissingArgument = &ExecutionError{
		Category: ErrCategoryArgument,
		Code:     "missing_argument",
		Message:  "missing required argument",
	}
	ErrInvalidArgument = &ExecutionError{
		Category: ErrCategoryArgument,
		Code:     "invalid_argument",
		Message:  "invalid argument",
	}

	// Device errors
	ErrCommandFailed = &ExecutionError{
		Category: ErrCategoryDevice,
		Code:     "command_failed",
		Message:  "device command failed",
	}
	ErrUnexpectedOutput = &ExecutionError{
		Category: ErrCategoryDevice,
		Code:     "unexpected_output",
		Message:  "unexpected command output",
	}

	// Connection errors
	ErrADBNotFound = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "adb_not_found",
		Message:  "adb not found in PATH; ensure Android SDK platform-tools are installed",
	}
	ErrDeviceNotFound = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "device_not_found",
		Message:  "device not found",
	}

	// App errors
	ErrAppNotInstalled = &ExecutionError{
		Category: ErrCategoryApp,
		Code:     "app_not_installed",
		Message:  "application is not installed",
	}

	// State errors
	ErrSnapshotRequired = &ExecutionError{
		Category: ErrCategoryState,
		Code:     "snapshot_required",
		Message:  "you need to dump the window hierarchy before querying it",
	}

	// Disabled operations
	ErrShellDisabled = &ExecutionError{
		Category: ErrCategoryDisabled,
		Code:     "shell_disabled",
		Message:  "raw shell commands are disabled",
	}

	// Timeout errors
	ErrTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "timeout",
		Message:  "operation timed out",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryDevice
}

// Missing reports a missing required argument by name.
func Missing(name string) *ExecutionError {
	return ErrMissingArgument.
		WithMessage(fmt.Sprintf("%s is required", name)).
		WithDetails(map[string]any{"argument": name})
}

// Invalid reports an argument whose value could not be used.
func Invalid(name, value string, cause error) *ExecutionError {
	return ErrInvalidArgument.
		WithMessage(fmt.Sprintf("invalid %s %q", name, value)).
		WithDetails(map[string]any{"argument": name, "value": value}).
		WithCause(cause)
}
