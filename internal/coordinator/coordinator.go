package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lovi-home/lovi-core/internal/device"
)

// DefaultPollInterval is how often the device is polled.
const DefaultPollInterval = 30 * time.Second

// Logger defines the logging interface used by the Coordinator.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DeviceAPI is the slice of the HTTP client the coordinator needs.
type DeviceAPI interface {
	// Data fetches the current sensor readings.
	Data(ctx context.Context) (map[string]any, error)

	// DeviceInfo fetches device identity and self-reported type.
	DeviceInfo(ctx context.Context) (map[string]any, error)

	// SetSettings pushes a settings bundle to the device.
	SetSettings(ctx context.Context, settings map[string]any) (map[string]any, error)

	// Reboot restarts the device.
	Reboot(ctx context.Context) error

	// FactoryReset restores factory defaults on the device.
	FactoryReset(ctx context.Context) error
}

// StatePublisher publishes state snapshots, typically to MQTT.
type StatePublisher interface {
	PublishState(deviceID string, state device.State) error
	PublishAvailability(deviceID string, online bool) error
}

// ReadingWriter records numeric readings, typically to InfluxDB.
type ReadingWriter interface {
	WriteReading(deviceID, measurement string, value float64)
}

// Config holds coordinator configuration.
type Config struct {
	// API is the device HTTP client. Required.
	API DeviceAPI

	// Registry maps device types to models. Required.
	Registry *device.Registry

	// DeviceID is the configured identifier, used when the device does
	// not report one.
	DeviceID string

	// DeviceType overrides the device's self-reported type. When both
	// are absent the gen-one presence sensor is assumed.
	DeviceType string

	// Interval is the poll interval. Default: 30s.
	Interval time.Duration

	// History records state snapshots locally. Optional.
	History device.StateHistoryRepository

	// Publisher pushes state to the message bus. Optional.
	Publisher StatePublisher

	// TSDB records numeric readings. Optional.
	TSDB ReadingWriter

	// Metrics exposes poll and reading gauges. Optional.
	Metrics *Metrics
}

// Coordinator polls one device and fans its state out to the
// configured sinks.
type Coordinator struct {
	api        DeviceAPI
	registry   *device.Registry
	deviceID   string
	deviceType string
	interval   time.Duration

	history   device.StateHistoryRepository
	publisher StatePublisher
	tsdb      ReadingWriter
	metrics   *Metrics

	mu         sync.RWMutex
	dev        device.Device
	available  bool
	lastUpdate time.Time

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// New creates a coordinator. Call Start to begin polling, or drive
// cycles manually with Refresh.
func New(cfg Config) (*Coordinator, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("coordinator: API is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("coordinator: Registry is required")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Coordinator{
		api:        cfg.API,
		registry:   cfg.Registry,
		deviceID:   cfg.DeviceID,
		deviceType: cfg.DeviceType,
		interval:   interval,
		history:    cfg.History,
		publisher:  cfg.Publisher,
		tsdb:       cfg.TSDB,
		metrics:    cfg.Metrics,
		done:       make(chan struct{}),
		logger:     noopLogger{},
	}, nil
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// Start begins periodic polling. An initial refresh runs immediately.
// Call Stop to shut down.
func (c *Coordinator) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.pollLoop(ctx)
}

// Stop gracefully stops polling and publishes a final offline
// availability message. Safe to call multiple times.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.wg.Wait()

		if c.publisher != nil {
			//nolint:errcheck // Best-effort during shutdown
			c.publisher.PublishAvailability(c.DeviceID(), false)
		}
	})
}

// pollLoop runs the periodic refresh.
func (c *Coordinator) pollLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("initial refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("refresh failed", "error", err)
			}
		}
	}
}

// Refresh runs one poll cycle: fetch readings, lazily create the
// device model on the first success, apply the reading, and fan the
// snapshot out to the configured sinks.
//
// Every failure is wrapped in ErrUpdateFailed; a later success clears
// the unavailable state on its own.
func (c *Coordinator) Refresh(ctx context.Context) error {
	data, err := c.api.Data(ctx)
	if err != nil {
		return c.fail(fmt.Errorf("%w: fetching readings: %w", ErrUpdateFailed, err))
	}

	d, err := c.ensureDevice(ctx)
	if err != nil {
		return c.fail(err)
	}

	d.Update(data)
	state := d.State()
	now := time.Now().UTC()

	c.mu.Lock()
	wasAvailable := c.available
	c.available = true
	c.lastUpdate = now
	c.mu.Unlock()

	if !wasAvailable {
		c.logger.Info("device available", "id", d.Info().ID)
	}
	c.fanOut(ctx, d, state, device.StateHistorySourcePoll)

	if c.metrics != nil {
		c.metrics.RecordPoll(d.Info().ID, true)
		c.metrics.RecordState(d.Info().ID, state)
	}

	c.logger.Debug("refresh complete", "id", d.Info().ID)
	return nil
}

// ensureDevice returns the device model, creating it from discovery
// data on the first successful poll.
func (c *Coordinator) ensureDevice(ctx context.Context) (device.Device, error) {
	c.mu.RLock()
	d := c.dev
	c.mu.RUnlock()
	if d != nil {
		return d, nil
	}

	info := device.Info{ID: c.deviceID}
	deviceType := c.deviceType

	raw, err := c.api.DeviceInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching device info: %w", ErrUpdateFailed, err)
	}

	reported := device.InfoFromData(raw)
	if reported.ID != "" {
		info.ID = reported.ID
	}
	info.Name = reported.Name
	info.Manufacturer = reported.Manufacturer
	info.Model = reported.Model
	info.FirmwareVersion = reported.FirmwareVersion

	if t, ok := raw["type"].(string); ok && t != "" && deviceType == "" {
		deviceType = t
	}
	if deviceType == "" {
		// Pre-discovery firmware never reports a type.
		deviceType = device.TypePresenceGenOne
	}

	d, err = c.registry.Create(deviceType, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}

	c.mu.Lock()
	c.dev = d
	c.mu.Unlock()

	c.logger.Info("device model created",
		"id", info.ID,
		"type", deviceType,
		"firmware", info.FirmwareVersion,
	)
	return d, nil
}

// fail marks the device unavailable and reports the cycle error.
func (c *Coordinator) fail(err error) error {
	c.mu.Lock()
	wasAvailable := c.available
	c.available = false
	id := c.deviceID
	if c.dev != nil {
		id = c.dev.Info().ID
	}
	c.mu.Unlock()

	if wasAvailable {
		c.logger.Warn("device unavailable", "id", id, "error", err)
		if c.publisher != nil {
			if pubErr := c.publisher.PublishAvailability(id, false); pubErr != nil {
				c.logger.Warn("publishing availability failed", "id", id, "error", pubErr)
			}
		}
	}
	if c.metrics != nil {
		c.metrics.RecordPoll(id, false)
	}
	return err
}

// fanOut pushes a state snapshot to the optional sinks. Sink failures
// are logged, never fatal to the cycle.
func (c *Coordinator) fanOut(ctx context.Context, d device.Device, state device.State, source string) {
	id := d.Info().ID

	if c.history != nil {
		if err := c.history.RecordStateChange(ctx, id, state, source); err != nil {
			c.logger.Warn("recording state history failed", "id", id, "error", err)
		}
	}
	if c.publisher != nil {
		if err := c.publisher.PublishState(id, state); err != nil {
			c.logger.Warn("publishing state failed", "id", id, "error", err)
		}
		if err := c.publisher.PublishAvailability(id, true); err != nil {
			c.logger.Warn("publishing availability failed", "id", id, "error", err)
		}
	}
	if c.tsdb != nil {
		for key, value := range state {
			switch v := value.(type) {
			case float64:
				c.tsdb.WriteReading(id, key, v)
			case int:
				c.tsdb.WriteReading(id, key, float64(v))
			case int64:
				c.tsdb.WriteReading(id, key, float64(v))
			case bool:
				n := 0.0
				if v {
					n = 1.0
				}
				c.tsdb.WriteReading(id, key, n)
			}
		}
	}
}

// Device returns the device model.
// Returns ErrNoDevice before the first successful poll.
func (c *Coordinator) Device() (device.Device, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dev == nil {
		return nil, ErrNoDevice
	}
	return c.dev, nil
}

// DeviceID returns the effective device identifier: the self-reported
// one once known, otherwise the configured one.
func (c *Coordinator) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dev != nil {
		return c.dev.Info().ID
	}
	return c.deviceID
}

// DeviceType returns the effective device type: the created model's
// type once known, otherwise the configured override. Empty before the
// first successful poll when no override is configured.
func (c *Coordinator) DeviceType() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dev != nil {
		return c.dev.Type()
	}
	return c.deviceType
}

// Available reports whether the last poll cycle succeeded.
func (c *Coordinator) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// LastUpdate returns the time of the last successful poll (UTC).
func (c *Coordinator) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdate
}

// State returns the current state snapshot.
// Returns ErrNoDevice before the first successful poll.
func (c *Coordinator) State() (device.State, error) {
	d, err := c.Device()
	if err != nil {
		return nil, err
	}
	return d.State(), nil
}

// SetSensitivity forwards a sensitivity setting to the device.
// Out-of-range values clamp to [0,100] rather than reject.
//
// The capability gate runs first, so unsupported commands never reach
// the network. The device pushes back the validated value on success;
// the local model mirrors it without waiting for the next poll.
func (c *Coordinator) SetSensitivity(ctx context.Context, value int) error {
	d, err := c.Device()
	if err != nil {
		return err
	}
	if !d.Capabilities().HasSensitivity {
		return &device.NotSupportedError{DeviceType: d.Type(), Operation: "set_sensitivity"}
	}

	value = device.ClampSensitivity(value)
	if _, err := c.api.SetSettings(ctx, map[string]any{"sensitivity": value}); err != nil {
		return err
	}

	if setter, ok := d.(interface{ SetSensitivity(int) int }); ok {
		setter.SetSensitivity(value)
	}
	c.recordCommand(ctx, d)

	c.logger.Info("sensitivity set", "id", d.Info().ID, "value", value)
	return nil
}

// SetLED forwards a status LED setting to the device.
func (c *Coordinator) SetLED(ctx context.Context, enabled bool) error {
	d, err := c.Device()
	if err != nil {
		return err
	}
	if !d.Capabilities().HasLED {
		return &device.NotSupportedError{DeviceType: d.Type(), Operation: "set_led"}
	}

	if _, err := c.api.SetSettings(ctx, map[string]any{"led": enabled}); err != nil {
		return err
	}

	if setter, ok := d.(interface{ SetLED(bool) }); ok {
		setter.SetLED(enabled)
	}
	c.recordCommand(ctx, d)

	c.logger.Info("led set", "id", d.Info().ID, "enabled", enabled)
	return nil
}

// SetLEDBrightness forwards a status LED brightness setting (0-255)
// to the device.
func (c *Coordinator) SetLEDBrightness(ctx context.Context, value int) error {
	d, err := c.Device()
	if err != nil {
		return err
	}
	if !d.Capabilities().HasLEDBrightness {
		return &device.NotSupportedError{DeviceType: d.Type(), Operation: "set_led_brightness"}
	}

	if _, err := c.api.SetSettings(ctx, map[string]any{"led_brightness": value}); err != nil {
		return err
	}

	if setter, ok := d.(interface{ SetLEDBrightness(int) int }); ok {
		setter.SetLEDBrightness(value)
	}
	c.recordCommand(ctx, d)

	c.logger.Info("led brightness set", "id", d.Info().ID, "value", value)
	return nil
}

// SetSettings forwards a raw settings bundle to the device.
// The client validates the bundle before it leaves the host.
func (c *Coordinator) SetSettings(ctx context.Context, settings map[string]any) error {
	d, err := c.Device()
	if err != nil {
		return err
	}

	if _, err := c.api.SetSettings(ctx, settings); err != nil {
		return err
	}

	d.Update(settings)
	c.recordCommand(ctx, d)

	c.logger.Info("settings applied", "id", d.Info().ID)
	return nil
}

// Reboot restarts the device. The model survives the reboot; the next
// poll repopulates readings.
func (c *Coordinator) Reboot(ctx context.Context) error {
	d, err := c.Device()
	if err != nil {
		return err
	}

	if err := c.api.Reboot(ctx); err != nil {
		return err
	}

	c.logger.Info("device rebooting", "id", d.Info().ID)
	return nil
}

// FactoryReset restores factory defaults on the device and discards the
// local model. The next poll rebuilds it from whatever the unit reports.
func (c *Coordinator) FactoryReset(ctx context.Context) error {
	d, err := c.Device()
	if err != nil {
		return err
	}
	id := d.Info().ID

	if err := c.api.FactoryReset(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.dev = nil
	c.available = false
	c.mu.Unlock()

	if c.publisher != nil {
		if perr := c.publisher.PublishAvailability(id, false); perr != nil {
			c.logger.Warn("availability publish failed", "id", id, "error", perr)
		}
	}

	c.logger.Info("device factory reset", "id", id)
	return nil
}

// recordCommand persists a post-command snapshot so the audit trail
// shows commands as well as polls.
func (c *Coordinator) recordCommand(ctx context.Context, d device.Device) {
	c.fanOut(ctx, d, d.State(), device.StateHistorySourceCommand)

	if c.metrics != nil {
		c.metrics.RecordState(d.Info().ID, d.State())
	}
}
