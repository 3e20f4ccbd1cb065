// Package apperr defines the error kinds shared by the lane components and maps them
// to log labels and process exit codes.
package apperr

import (
	"context"
	"errors"
)

var (
	ErrDeviceUnavailable        = errors.New("serial device unavailable")
	ErrReadFailure              = errors.New("serial read failure")
	ErrWriteFailure             = errors.New("serial write failure")
	ErrConfigurationUnsupported = errors.New("configuration unsupported")
	ErrInvalidConfig            = errors.New("invalid configuration")
	ErrNetworkUnreachable       = errors.New("network target unreachable")
	ErrDispatchExhausted        = errors.New("dispatch attempts exhausted")
)

// Exit codes returned by the lane processes.
const (
	ExitOK     = 0
	ExitFatal  = 1
	ExitConfig = 2
)

func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrDeviceUnavailable):
		return "device_unavailable"

	case errors.Is(err, ErrReadFailure):
		return "read_failure"

	case errors.Is(err, ErrWriteFailure):
		return "write_failure"

	case errors.Is(err, ErrConfigurationUnsupported):
		return "configuration_unsupported"

	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"

	case errors.Is(err, ErrNetworkUnreachable):
		return "network_unreachable"

	case errors.Is(err, ErrDispatchExhausted):
		return "dispatch_exhausted"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

// ExitCode maps an error returned by a process runtime to its exit status.
// Cancellation is a requested stop and exits cleanly.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK

	case errors.Is(err, context.Canceled):
		return ExitOK

	case errors.Is(err, ErrConfigurationUnsupported),
		errors.Is(err, ErrInvalidConfig):
		return ExitConfig

	default:
		return ExitFatal
	}
}

// Fatal reports whether the error must stop the process.
// Write failures and exhausted dispatches are absorbed by their components.
func Fatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrWriteFailure),
		errors.Is(err, ErrDispatchExhausted):
		return false
	default:
		return true
	}
}
