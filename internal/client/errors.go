package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for the client package.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, client.ErrConnection) {
//	    // device unreachable, coordinator will retry next cycle
//	}
var (
	// ErrConnection is returned when the device cannot be reached.
	ErrConnection = errors.New("client: connection failed")

	// ErrTimeout is returned when a request times out. It wraps
	// ErrConnection: every timeout is also a connection failure.
	ErrTimeout = fmt.Errorf("%w: request timed out", ErrConnection)

	// ErrAuthentication is returned for HTTP 401/403 responses.
	ErrAuthentication = errors.New("client: authentication failed")

	// ErrAPI is returned for other HTTP error responses (status >= 400).
	ErrAPI = errors.New("client: api error")

	// ErrClosed is returned when using a client after Close().
	ErrClosed = errors.New("client: closed")
)

// APIError describes an HTTP error response from the device.
//
// It unwraps to ErrAuthentication for 401/403 and ErrAPI otherwise,
// so callers can classify with errors.Is without inspecting the code.
type APIError struct {
	// StatusCode is the HTTP status returned by the device.
	StatusCode int

	// Endpoint is the API path that produced the error.
	Endpoint string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("client: api error %d for %s", e.StatusCode, e.Endpoint)
}

// Unwrap classifies the error by status code.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrAuthentication
	}
	return ErrAPI
}

// DeviceError describes an error reported by the device itself in a
// response body, carrying the device-specific error code.
type DeviceError struct {
	// Code is the device-specific error code (e.g. "sensor_fault").
	Code string

	// Message is the human-readable description from the device.
	Message string
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("client: device error: %s", e.Message)
	}
	return fmt.Sprintf("client: device error %s: %s", e.Code, e.Message)
}

// decodeDeviceError extracts a firmware-reported error from an error
// response body. Returns nil when the body carries none.
func decodeDeviceError(raw []byte) *DeviceError {
	if len(raw) == 0 {
		return nil
	}

	var body struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	if body.ErrorCode == "" && body.Message == "" {
		return nil
	}
	return &DeviceError{Code: body.ErrorCode, Message: body.Message}
}
