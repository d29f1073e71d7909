package device

import "testing"

func TestTemperatureHumidityDefaults(t *testing.T) {
	d := NewTemperatureHumidity(Info{ID: "lovi-greenhouse"})

	info := d.Info()
	if info.Name != "Lovi Temp/Humidity" {
		t.Errorf("Name = %q, want Lovi Temp/Humidity", info.Name)
	}
	if info.Manufacturer != DefaultManufacturer {
		t.Errorf("Manufacturer = %q, want %q", info.Manufacturer, DefaultManufacturer)
	}
	if !d.LEDEnabled() {
		t.Error("LEDEnabled() = false, want true by default")
	}

	if _, ok := d.Temperature(); ok {
		t.Error("Temperature() reported a reading before the first poll")
	}
	if _, ok := d.Humidity(); ok {
		t.Error("Humidity() reported a reading before the first poll")
	}
}

func TestTemperatureHumidityUpdate(t *testing.T) {
	d := NewTemperatureHumidity(Info{ID: "lovi-greenhouse"})

	d.Update(map[string]any{
		"temperature": 21.5,
		"humidity":    48.2,
		"led_enabled": false,
		"uptime":      float64(7200),
	})

	temp, ok := d.Temperature()
	if !ok || temp != 21.5 {
		t.Errorf("Temperature() = %v, %v, want 21.5, true", temp, ok)
	}
	humidity, ok := d.Humidity()
	if !ok || humidity != 48.2 {
		t.Errorf("Humidity() = %v, %v, want 48.2, true", humidity, ok)
	}
	if d.LEDEnabled() {
		t.Error("LEDEnabled() = true, want false after reading")
	}
	if got := d.Uptime(); got != 7200 {
		t.Errorf("Uptime() = %d, want 7200", got)
	}
}

func TestTemperatureHumidityUpdateLEDWireKey(t *testing.T) {
	d := NewTemperatureHumidity(Info{ID: "lovi-bathroom"})

	d.Update(map[string]any{"led": false})
	if d.LEDEnabled() {
		t.Error(`LEDEnabled() = true after Update({"led": false})`)
	}
}

func TestTemperatureHumidityState(t *testing.T) {
	d := NewTemperatureHumidity(Info{ID: "lovi-greenhouse"})

	s := d.State()
	if _, present := s["temperature"]; present {
		t.Error("State() includes temperature before the first reading")
	}
	if _, present := s["humidity"]; present {
		t.Error("State() includes humidity before the first reading")
	}

	d.Update(map[string]any{"temperature": 19.5, "humidity": 55.0})
	s = d.State()
	if temp, ok := s["temperature"].(float64); !ok || temp != 19.5 {
		t.Errorf("State()[temperature] = %v, want 19.5", s["temperature"])
	}
	if humidity, ok := s["humidity"].(float64); !ok || humidity != 55.0 {
		t.Errorf("State()[humidity] = %v, want 55.0", s["humidity"])
	}
}

func TestTemperatureHumiditySetLED(t *testing.T) {
	d := NewTemperatureHumidity(Info{ID: "lovi-greenhouse"})

	d.SetLED(false)
	if d.LEDEnabled() {
		t.Error("LEDEnabled() = true after SetLED(false)")
	}
	d.SetLED(true)
	if !d.LEDEnabled() {
		t.Error("LEDEnabled() = false after SetLED(true)")
	}
}
