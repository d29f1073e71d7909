package device

// Device is the in-memory model of a physical Lovi sensor.
//
// Implementations hold the last known readings and settings; the
// coordinator feeds them polled data via Update and publishes the
// State snapshots. All methods must be safe for concurrent use.
type Device interface {
	// Type returns the wire type string ("presence_gen_one").
	Type() string

	// Info returns the device identity.
	Info() Info

	// Capabilities returns the model's capability set.
	Capabilities() Capabilities

	// Update applies a polled reading from /api/status. Keys the model
	// does not know are ignored; known keys with missing or mistyped
	// values leave the previous reading in place, so an empty payload
	// is a no-op. Wire values are applied as-is; only the local
	// setters clamp.
	Update(data map[string]any)

	// State returns a snapshot of current readings and settings for
	// publishing. The returned map is owned by the caller.
	State() State
}
