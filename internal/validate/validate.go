package validate

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Validation constants.
const (
	// maxNameLength is the maximum length for a device name.
	maxNameLength = 100

	// maxHostnameLength is the maximum total length for a hostname (RFC 1035).
	maxHostnameLength = 253

	// maxLabelLength is the maximum length of a single hostname label.
	maxLabelLength = 63

	// minAPIKeyLength is the minimum length for an API key.
	minAPIKeyLength = 8

	// Sensitivity bounds (percent).
	minSensitivity = 0
	maxSensitivity = 100

	// Temperature sanity bounds (Celsius).
	minTemperature = -100.0
	maxTemperature = 100.0

	// Port bounds.
	minPort = 1
	maxPort = 65535
)

var (
	hostnameLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	deviceIDRegex      = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ErrInvalid is the sentinel wrapped by every validation failure.
// Check with errors.Is(err, validate.ErrInvalid).
var ErrInvalid = errors.New("validate: invalid value")

// Error describes a validation failure for a specific field.
type Error struct {
	// Field is the name of the input that failed validation.
	Field string

	// Reason is a human-readable description of the failure.
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("validate: %s: %s", e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalid) to match.
func (e *Error) Unwrap() error {
	return ErrInvalid
}

// newError creates a field-specific validation error.
func newError(field, format string, args ...any) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Host validates a hostname or IP address literal.
//
// Accepts IPv4/IPv6 literals and syntactically valid hostnames
// (alphanumeric/hyphen labels separated by dots, each label at most
// 63 characters). Returns the host unchanged on success.
func Host(host string) (string, error) {
	if host == "" {
		return "", newError("host", "cannot be empty")
	}

	// IP literals are always acceptable
	if net.ParseIP(host) != nil {
		return host, nil
	}

	if len(host) > maxHostnameLength {
		return "", newError("host", "hostname exceeds %d characters", maxHostnameLength)
	}

	for _, label := range strings.Split(host, ".") {
		if len(label) > maxLabelLength {
			return "", newError("host", "hostname label exceeds %d characters", maxLabelLength)
		}
		if !hostnameLabelRegex.MatchString(label) {
			return "", newError("host", "invalid hostname or IP address: %q", host)
		}
	}

	return host, nil
}

// Port validates a TCP port number.
func Port(port int) (int, error) {
	if port < minPort || port > maxPort {
		return 0, newError("port", "must be between %d and %d, got %d", minPort, maxPort, port)
	}
	return port, nil
}

// Sensitivity validates a detection sensitivity value.
//
// The value must coerce to an integer in [0,100]. Out-of-range values are
// rejected here; the lenient clamp used for device commands lives in the
// device layer, not in this strict validator.
func Sensitivity(value any) (int, error) {
	v, ok := toInt(value)
	if !ok {
		return 0, newError("sensitivity", "must be a number, got %T", value)
	}
	if v < minSensitivity || v > maxSensitivity {
		return 0, newError("sensitivity", "must be between %d and %d, got %d", minSensitivity, maxSensitivity, v)
	}
	return v, nil
}

// Distance validates a detection distance in metres.
func Distance(value any) (float64, error) {
	v, ok := toFloat(value)
	if !ok {
		return 0, newError("distance", "must be a number, got %T", value)
	}
	if v < 0 {
		return 0, newError("distance", "must be positive, got %v", v)
	}
	return v, nil
}

// Temperature validates a temperature in Celsius.
//
// Readings outside [-100,100] are treated as sensor faults.
func Temperature(value any) (float64, error) {
	v, ok := toFloat(value)
	if !ok {
		return 0, newError("temperature", "must be a number, got %T", value)
	}
	if v < minTemperature || v > maxTemperature {
		return 0, newError("temperature", "out of reasonable range: %v", v)
	}
	return v, nil
}

// DeviceID validates a device identifier.
func DeviceID(id string) (string, error) {
	if id == "" {
		return "", newError("device_id", "cannot be empty")
	}
	if !deviceIDRegex.MatchString(id) {
		return "", newError("device_id", "contains invalid characters: %q", id)
	}
	return id, nil
}

// DeviceName validates a human-readable device name.
// Leading and trailing whitespace is trimmed from the returned value.
func DeviceName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", newError("name", "cannot be empty")
	}
	if len(name) > maxNameLength {
		return "", newError("name", "too long (max %d chars): %d", maxNameLength, len(name))
	}
	return trimmed, nil
}

// APIKey validates an API key. An empty key is allowed and means
// "no authentication"; a present key must be at least 8 characters.
func APIKey(key string) (string, error) {
	if key == "" {
		return "", nil
	}
	if len(key) < minAPIKeyLength {
		return "", newError("api_key", "too short (min %d characters)", minAPIKeyLength)
	}
	return key, nil
}

// Settings validates a device settings bundle.
//
// Only the keys present in the input are checked; the returned map holds
// just the validated subset. Unknown keys are dropped.
func Settings(settings map[string]any) (map[string]any, error) {
	validated := make(map[string]any, len(settings))

	if raw, ok := settings["sensitivity"]; ok {
		v, err := Sensitivity(raw)
		if err != nil {
			return nil, err
		}
		validated["sensitivity"] = v
	}

	if raw, ok := settings["led"]; ok {
		led, ok := raw.(bool)
		if !ok {
			return nil, newError("led", "must be a boolean, got %T", raw)
		}
		validated["led"] = led
	}

	if raw, ok := settings["led_brightness"]; ok {
		v, ok := toInt(raw)
		if !ok {
			return nil, newError("led_brightness", "must be a number, got %T", raw)
		}
		if v < 0 || v > 255 {
			return nil, newError("led_brightness", "must be between 0 and 255, got %d", v)
		}
		validated["led_brightness"] = v
	}

	if raw, ok := settings["name"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, newError("name", "must be a string, got %T", raw)
		}
		name, err := DeviceName(s)
		if err != nil {
			return nil, err
		}
		validated["name"] = name
	}

	return validated, nil
}

// toInt coerces numeric types (including JSON's float64) to int.
// Fractional floats are rejected.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case float32:
		if n != float32(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// toFloat coerces numeric types to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
