package device

import (
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
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

// Factory constructs a Device from its discovery identity.
type Factory func(info Info) Device

// Registry maps wire type strings to device factories.
//
// The built-in models are registered via RegisterDefaults; integrators
// can add or override factories for custom firmware. All public methods
// are thread-safe.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    Logger
}

// NewRegistry creates an empty device type registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RegisterDefaults registers the built-in sensor models.
func (r *Registry) RegisterDefaults() {
	// Built-ins never collide on a fresh registry; Replace keeps this
	// idempotent when called twice.
	r.Replace(TypePresenceGenOne, func(info Info) Device {
		return NewPresenceGenOne(info)
	})
	r.Replace(TypeTemperatureHumidity, func(info Info) Device {
		return NewTemperatureHumidity(info)
	})
}

// Register adds a factory for a device type.
// Returns ErrTypeRegistered if the type already has one; use Replace
// to override deliberately.
func (r *Registry) Register(deviceType string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[deviceType]; exists {
		return ErrTypeRegistered
	}
	r.factories[deviceType] = factory

	r.logger.Info("device type registered", "type", deviceType)
	return nil
}

// Replace sets the factory for a device type, overriding any existing one.
func (r *Registry) Replace(deviceType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, existed := r.factories[deviceType]; existed {
		r.logger.Warn("device type factory replaced", "type", deviceType)
	}
	r.factories[deviceType] = factory
}

// Unregister removes a device type.
// Returns an UnknownTypeError if no factory exists for deviceType.
func (r *Registry) Unregister(deviceType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[deviceType]; !exists {
		return &UnknownTypeError{
			DeviceType: deviceType,
			Available:  r.typeNamesLocked(),
		}
	}
	delete(r.factories, deviceType)

	r.logger.Info("device type unregistered", "type", deviceType)
	return nil
}

// Create builds a device of the given type.
// Returns an UnknownTypeError listing registered types if no factory
// exists for deviceType.
func (r *Registry) Create(deviceType string, info Info) (Device, error) {
	r.mu.RLock()
	factory, ok := r.factories[deviceType]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownTypeError{
			DeviceType: deviceType,
			Available:  r.SupportedTypes(),
		}
	}

	d := factory(info)
	r.logger.Debug("device created", "type", deviceType, "id", d.Info().ID)
	return d, nil
}

// Capabilities returns the capability set for a device type without
// keeping the constructed model.
func (r *Registry) Capabilities(deviceType string) (Capabilities, error) {
	d, err := r.Create(deviceType, Info{})
	if err != nil {
		return Capabilities{}, err
	}
	return d.Capabilities(), nil
}

// SupportedTypes returns all registered type strings, sorted.
func (r *Registry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.typeNamesLocked()
}

// typeNamesLocked returns the sorted type strings.
// Callers must hold r.mu.
func (r *Registry) typeNamesLocked() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsSupported reports whether a device type has a registered factory.
func (r *Registry) IsSupported(deviceType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[deviceType]
	return ok
}

// Count returns the number of registered device types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Clear removes all registered device types.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]Factory)
	r.logger.Info("device registry cleared")
}
