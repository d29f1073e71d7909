package coordinator

import "errors"

// Domain errors for the coordinator package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, coordinator.ErrUpdateFailed) {
//	    // mark entities unavailable
//	}
var (
	// ErrUpdateFailed wraps every failure inside a poll cycle, whatever
	// the underlying cause (transport, auth, unknown device type).
	ErrUpdateFailed = errors.New("coordinator: update failed")

	// ErrNoDevice is returned when a command arrives before the first
	// successful poll has created the device model.
	ErrNoDevice = errors.New("coordinator: no device")
)
