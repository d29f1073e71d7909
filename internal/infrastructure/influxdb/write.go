package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names used by the reading writers.
const (
	// measurementReadings holds per-device sensor readings.
	measurementReadings = "sensor_readings"
)

// WriteReading records a single sensor reading.
//
// This is the primary method for recording device telemetry. Boolean
// readings (presence, motion) are recorded as 0/1 by the caller.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Unique identifier for the device (e.g., "lovi-hallway")
//   - reading: The reading name (e.g., "temperature", "distance")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteReading("lovi-hallway", "temperature", 21.5)
//	client.WriteReading("lovi-hallway", "presence", 1)
func (c *Client) WriteReading(deviceID string, reading string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		measurementReadings,
		map[string]string{
			"device_id": deviceID,
			"reading":   reading,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the reading helper, such as
// daemon statistics.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("daemon_stats",
//	    map[string]string{"host": "lovi-core-01"},
//	    map[string]interface{}{"poll_failures": 3, "devices": 5})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
