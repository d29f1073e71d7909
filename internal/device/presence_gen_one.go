package device

import "sync"

// PresenceGenOne defaults and limits.
const (
	// MaxDetectionRange is the gen-one radar's range ceiling in metres.
	MaxDetectionRange = 6.0

	// DefaultSensitivity is the factory sensitivity setting.
	DefaultSensitivity = 50

	defaultPresenceName = "Lovi Presence"
	presenceGenOneModel = "Presence Gen One"
)

// PresenceGenOne models the first-generation Lovi mmWave presence
// sensor: radar presence and motion detection with target distance,
// plus an onboard temperature sensor.
type PresenceGenOne struct {
	mu   sync.RWMutex
	info Info

	presence    bool
	motion      bool
	distance    float64
	sensitivity int
	ledEnabled  bool
	temperature *float64
	uptime      int64
}

// NewPresenceGenOne creates a presence sensor model.
// Identity fields missing from info fall back to model defaults.
func NewPresenceGenOne(info Info) *PresenceGenOne {
	if info.Name == "" {
		info.Name = defaultPresenceName
	}
	if info.Manufacturer == "" {
		info.Manufacturer = DefaultManufacturer
	}
	if info.Model == "" {
		info.Model = presenceGenOneModel
	}

	return &PresenceGenOne{
		info:        info,
		sensitivity: DefaultSensitivity,
		ledEnabled:  true,
	}
}

// Type returns the wire type string.
func (d *PresenceGenOne) Type() string { return TypePresenceGenOne }

// Info returns the device identity.
func (d *PresenceGenOne) Info() Info {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.info
}

// Capabilities returns the gen-one capability set.
func (d *PresenceGenOne) Capabilities() Capabilities {
	return Capabilities{
		HasPresence:       true,
		HasMotion:         true,
		HasDistance:       true,
		HasSensitivity:    true,
		HasLED:            true,
		HasTemperature:    true,
		MaxDistance:       MaxDetectionRange,
		SupportedEntities: []string{"binary_sensor", "sensor", "switch", "number"},
	}
}

// Update applies a polled /api/status reading.
func (d *PresenceGenOne) Update(data map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if v, ok := asBool(data["presence"]); ok {
		d.presence = v
	}
	if v, ok := asBool(data["motion"]); ok {
		d.motion = v
	}
	if v, ok := asFloat(data["distance"]); ok {
		d.distance = v
	}
	if v, ok := asInt(data["sensitivity"]); ok {
		d.sensitivity = v
	}
	// The firmware reports "led"; "led_enabled" is kept for snapshots
	// fed back through Update.
	if v, ok := asBool(data["led"]); ok {
		d.ledEnabled = v
	}
	if v, ok := asBool(data["led_enabled"]); ok {
		d.ledEnabled = v
	}
	if v, ok := asFloat(data["temperature"]); ok {
		d.temperature = &v
	}
	if v, ok := asInt(data["uptime"]); ok {
		d.uptime = int64(v)
	}
}

// State returns a snapshot of current readings.
// Temperature is omitted until the first reading carrying one.
func (d *PresenceGenOne) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := State{
		"presence":    d.presence,
		"motion":      d.motion,
		"distance":    d.distance,
		"sensitivity": d.sensitivity,
		"led_enabled": d.ledEnabled,
		"uptime":      d.uptime,
	}
	if d.temperature != nil {
		s["temperature"] = *d.temperature
	}
	return s
}

// Presence reports whether a target is currently detected.
func (d *PresenceGenOne) Presence() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.presence
}

// Motion reports whether the target is moving.
func (d *PresenceGenOne) Motion() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.motion
}

// Distance returns the target distance in metres.
func (d *PresenceGenOne) Distance() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.distance
}

// Sensitivity returns the current radar sensitivity (0-100).
func (d *PresenceGenOne) Sensitivity() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sensitivity
}

// LEDEnabled reports whether the status LED is on.
func (d *PresenceGenOne) LEDEnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ledEnabled
}

// Temperature returns the onboard temperature reading in Celsius.
// The second return is false before the first reading arrives.
func (d *PresenceGenOne) Temperature() (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.temperature == nil {
		return 0, false
	}
	return *d.temperature, true
}

// Uptime returns the device uptime in seconds.
func (d *PresenceGenOne) Uptime() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.uptime
}

// SetSensitivity sets the local radar sensitivity, clamped to 0-100,
// and returns the applied value. The caller is responsible for pushing
// the setting to the device.
func (d *PresenceGenOne) SetSensitivity(value int) int {
	value = ClampSensitivity(value)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sensitivity = value
	return value
}

// SetLED sets the local status LED state. The caller is responsible
// for pushing the setting to the device.
func (d *PresenceGenOne) SetLED(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ledEnabled = enabled
}
