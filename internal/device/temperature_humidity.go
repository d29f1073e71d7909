package device

import "sync"

const (
	defaultTempHumidityName = "Lovi Temp/Humidity"
	tempHumidityModel       = "Temp/Humidity Sensor"
)

// TemperatureHumidity models the Lovi temperature and humidity sensor.
// No radar: presence, motion, and distance capabilities are absent.
type TemperatureHumidity struct {
	mu   sync.RWMutex
	info Info

	temperature *float64
	humidity    *float64
	ledEnabled  bool
	uptime      int64
}

// NewTemperatureHumidity creates a temperature/humidity sensor model.
// Identity fields missing from info fall back to model defaults.
func NewTemperatureHumidity(info Info) *TemperatureHumidity {
	if info.Name == "" {
		info.Name = defaultTempHumidityName
	}
	if info.Manufacturer == "" {
		info.Manufacturer = DefaultManufacturer
	}
	if info.Model == "" {
		info.Model = tempHumidityModel
	}

	return &TemperatureHumidity{
		info:       info,
		ledEnabled: true,
	}
}

// Type returns the wire type string.
func (d *TemperatureHumidity) Type() string { return TypeTemperatureHumidity }

// Info returns the device identity.
func (d *TemperatureHumidity) Info() Info {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.info
}

// Capabilities returns the temp/humidity capability set.
func (d *TemperatureHumidity) Capabilities() Capabilities {
	return Capabilities{
		HasLED:            true,
		HasTemperature:    true,
		HasHumidity:       true,
		SupportedEntities: []string{"sensor", "switch"},
	}
}

// Update applies a polled /api/status reading.
func (d *TemperatureHumidity) Update(data map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if v, ok := asFloat(data["temperature"]); ok {
		d.temperature = &v
	}
	if v, ok := asFloat(data["humidity"]); ok {
		d.humidity = &v
	}
	// The firmware reports "led"; "led_enabled" is kept for snapshots
	// fed back through Update.
	if v, ok := asBool(data["led"]); ok {
		d.ledEnabled = v
	}
	if v, ok := asBool(data["led_enabled"]); ok {
		d.ledEnabled = v
	}
	if v, ok := asInt(data["uptime"]); ok {
		d.uptime = int64(v)
	}
}

// State returns a snapshot of current readings.
// Readings are omitted until the first poll carrying them.
func (d *TemperatureHumidity) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := State{
		"led_enabled": d.ledEnabled,
		"uptime":      d.uptime,
	}
	if d.temperature != nil {
		s["temperature"] = *d.temperature
	}
	if d.humidity != nil {
		s["humidity"] = *d.humidity
	}
	return s
}

// Temperature returns the temperature reading in Celsius.
// The second return is false before the first reading arrives.
func (d *TemperatureHumidity) Temperature() (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.temperature == nil {
		return 0, false
	}
	return *d.temperature, true
}

// Humidity returns the relative humidity percentage.
// The second return is false before the first reading arrives.
func (d *TemperatureHumidity) Humidity() (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.humidity == nil {
		return 0, false
	}
	return *d.humidity, true
}

// LEDEnabled reports whether the status LED is on.
func (d *TemperatureHumidity) LEDEnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ledEnabled
}

// Uptime returns the device uptime in seconds.
func (d *TemperatureHumidity) Uptime() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.uptime
}

// SetLED sets the local status LED state. The caller is responsible
// for pushing the setting to the device.
func (d *TemperatureHumidity) SetLED(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ledEnabled = enabled
}
