// Package device models Lovi sensors and provides the type registry
// used to construct them from discovery data.
//
// # Architecture
//
//	┌──────────────────┐   Create("presence_gen_one")   ┌──────────────────┐
//	│     Registry     │ ─────────────────────────────▶ │  PresenceGenOne  │
//	│   (factories)    │                                │    (Device)      │
//	└──────────────────┘                                └──────────────────┘
//	         ▲                                                   │
//	         │ RegisterDefaults()                                │ Update(data)
//	         │                                                   ▼
//	   built-in models                                  polled wire readings
//
// Each physical sensor model is a concrete type implementing Device.
// The Registry maps wire type strings to factory functions so the
// coordinator can build the right model from the device's self-reported
// type. Devices are in-memory models of remote hardware: Update applies
// a polled reading, State snapshots current values for publishing, and
// setters apply locally-clamped configuration.
//
// Persistence of state snapshots lives in StateHistoryRepository; the
// SQLite implementation backs the history endpoint of the REST API.
//
// All exported types are safe for concurrent use.
package device
