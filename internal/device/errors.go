package device

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrUnknownType) {
//	    // handle unknown device type
//	}
var (
	// ErrTypeRegistered is returned when registering a device type that
	// already has a factory.
	ErrTypeRegistered = errors.New("device: type already registered")

	// ErrUnknownType is returned when a device type has no registered factory.
	ErrUnknownType = errors.New("device: unknown type")

	// ErrNotSupported is returned when an operation is gated off by the
	// device's capabilities.
	ErrNotSupported = errors.New("device: operation not supported")
)

// UnknownTypeError reports a type lookup failure along with the types
// the registry does know about, so the log line is actionable.
type UnknownTypeError struct {
	DeviceType string
	Available  []string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("device: unknown type %q (available: %s)",
		e.DeviceType, strings.Join(e.Available, ", "))
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// NotSupportedError reports an operation rejected by capability gating.
type NotSupportedError struct {
	DeviceType string
	Operation  string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("device: %s does not support %s", e.DeviceType, e.Operation)
}

func (e *NotSupportedError) Unwrap() error { return ErrNotSupported }
