// Package coordinator drives the poll cycle for a single Lovi device.
//
// # Architecture
//
//	┌───────────────┐   Refresh()   ┌────────────┐   GET /api/status   ┌──────────┐
//	│  Coordinator  │ ────────────▶ │ DeviceAPI  │ ──────────────────▶ │ firmware │
//	│  (poll loop)  │               │ (client)   │                     └──────────┘
//	└───────┬───────┘               └────────────┘
//	        │ state snapshot
//	        ├──────────▶ StatePublisher   (MQTT, retained)
//	        ├──────────▶ HistoryRecorder  (SQLite audit trail)
//	        ├──────────▶ ReadingWriter    (InfluxDB time series)
//	        └──────────▶ Metrics          (Prometheus gauges)
//
// The coordinator owns the device model: it is created lazily on the
// first successful poll from the device's self-reported type, fed each
// polled reading, and consulted for capability gating before any
// command is forwarded. Every failure inside a poll cycle is normalised
// to ErrUpdateFailed so callers have a single error to branch on.
//
// Start launches the periodic loop; Stop shuts it down and is safe to
// call multiple times. All public methods are thread-safe.
package coordinator
