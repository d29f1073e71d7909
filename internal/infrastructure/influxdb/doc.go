// Package influxdb provides InfluxDB connectivity for Lovi Core.
//
// It wraps the official influxdb-client-go v2 library with Lovi Core-specific
// patterns for connection management, reading storage, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for sensor readings:
// presence, motion, distance, temperature, humidity, and device uptime.
// Grafana dashboards and long-term occupancy analysis read from the
// same bucket.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "lovi",
//	    Bucket: "readings",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record a sensor reading
//	client.WriteReading("lovi-hallway", "temperature", 21.5)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for short poll intervals across many sensors.
package influxdb
