// Package core holds the error taxonomy shared by the device bridge,
// the inspector and the control server.
package core

// ErrorCategory classifies the type of error so callers can react to it
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryArgument                        // Missing or invalid request argument
	ErrCategoryDevice                          // adb command ran but failed on the device
	ErrCategoryConnection                      // adb missing, device offline or not found
	ErrCategoryApp                             // App not installed or not launchable
	ErrCategoryConfig                          // Invalid configuration
	ErrCategoryState                           // Operation needs state that is not there yet
	ErrCategoryDisabled                        // Operation turned off by configuration
	ErrCategoryTimeout                         // Operation timed out
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryArgument:
		return "invalid_argument"
	case ErrCategoryDevice:
		return "device"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryApp:
		return "app"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryState:
		return "state"
	case ErrCategoryDisabled:
		return "disabled"
	case ErrCategoryTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
