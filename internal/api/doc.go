// Package api implements the HTTP REST API for Lovi Core.
//
// This package provides:
//   - REST endpoints for device state, history, settings, and commands
//   - Prometheus metrics exposition on /metrics
//   - Optional API-key authentication on mutating endpoints
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server sits between user interfaces (Home Assistant, dashboards,
// scripts) and the per-device coordinators. Reads are served from the
// coordinators' in-memory models; commands are forwarded to the sensors
// over their local HTTP APIs.
//
//	UI / Home Assistant → api → coordinator → client → sensor firmware
//
// # Security
//
// When api.api_key is set in config.yaml, mutating endpoints require a
// matching X-API-Key header. Read endpoints stay open for dashboards
// and health probes.
//
// # Graceful Degradation
//
// The server operates without MQTT or InfluxDB. History endpoints return
// 503 when the local history store is not configured.
package api
