package device

// Wire type strings devices report from /api/device.
const (
	TypePresenceGenOne      = "presence_gen_one"
	TypeTemperatureHumidity = "temperature_humidity_sensor"
)

// DefaultManufacturer is assumed when a device omits one.
const DefaultManufacturer = "Lovi"

// Capabilities describes what a sensor model can measure and which
// settings it accepts. The coordinator gates every command against
// these before anything reaches the network.
type Capabilities struct {
	HasPresence        bool `json:"has_presence"`
	HasMotion          bool `json:"has_motion"`
	HasDistance        bool `json:"has_distance"`
	HasSensitivity     bool `json:"has_sensitivity"`
	HasLED             bool `json:"has_led"`
	HasLEDBrightness   bool `json:"has_led_brightness"`
	HasTemperature     bool `json:"has_temperature"`
	HasHumidity        bool `json:"has_humidity"`
	HasPowerMonitoring bool `json:"has_power_monitoring"`

	// MaxDistance is the detection range ceiling in metres.
	// Zero for models without ranging.
	MaxDistance float64 `json:"max_distance"`

	// SupportedEntities lists the entity kinds a host integration
	// should create for this model ("sensor", "switch", ...).
	// Order carries no meaning.
	SupportedEntities []string `json:"supported_entities"`
}

// Info holds device identity as reported by /api/device.
type Info struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Manufacturer    string `json:"manufacturer"`
	Model           string `json:"model"`
	FirmwareVersion string `json:"firmware_version"`
}

// InfoFromData builds an Info from a decoded /api/device payload.
// Missing fields stay empty; model constructors fill their defaults.
func InfoFromData(data map[string]any) Info {
	return Info{
		ID:              asString(data["id"]),
		Name:            asString(data["name"]),
		Manufacturer:    asString(data["manufacturer"]),
		Model:           asString(data["model"]),
		FirmwareVersion: asString(data["firmware_version"]),
	}
}

// State holds a snapshot of current device readings as a JSON map.
//
// Examples:
//   - Presence: {"presence": true, "distance": 1.5, "sensitivity": 50}
//   - Temp/Humidity: {"temperature": 21.5, "humidity": 48.2}
type State map[string]any

// ClampSensitivity bounds a requested sensitivity to the valid 0-100
// range. Requested settings clamp rather than reject; only wire data
// passes through Update untouched.
func ClampSensitivity(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// Wire payloads arrive as decoded JSON, so numbers are float64 and the
// firmware occasionally sends ints where floats are expected. These
// coercions absorb that.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
