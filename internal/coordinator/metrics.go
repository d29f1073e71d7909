package coordinator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lovi-home/lovi-core/internal/device"
)

// Metrics exposes poll health and sensor readings as Prometheus
// metrics, labelled by device id.
type Metrics struct {
	polls        *prometheus.CounterVec
	pollFailures *prometheus.CounterVec
	available    *prometheus.GaugeVec
	lastSuccess  *prometheus.GaugeVec

	presence    *prometheus.GaugeVec
	motion      *prometheus.GaugeVec
	distance    *prometheus.GaugeVec
	sensitivity *prometheus.GaugeVec
	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	uptime      *prometheus.GaugeVec
}

// NewMetrics creates the coordinator metric set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	labels := []string{"device_id"}

	m := &Metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lovi_polls_total",
			Help: "Total poll cycles attempted",
		}, labels),
		pollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lovi_poll_failures_total",
			Help: "Poll cycles that failed",
		}, labels),
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovi_device_available",
			Help: "Device availability (1=available, 0=unavailable)",
		}, labels),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovi_last_success_timestamp_seconds",
			Help: "Last successful poll timestamp (epoch seconds)",
		}, labels),
		presence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovi_presence",
			Help: "Presence detected (1=detected, 0=clear)",
		}, labels),
		motion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovi_motion",
			Help: "Motion detected (1=moving, 0=still)",
		}, labels),
		distance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovi_distance_metres",
			Help: "Target distance (metres)",
		}, labels),
		sensitivity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovi_sensitivity",
			Help: "Radar sensitivity setting (0-100)",
		}, labels),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovi_temperature_celsius",
			Help: "Temperature (celsius)",
		}, labels),
		humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovi_humidity_percent",
			Help: "Relative humidity (%)",
		}, labels),
		uptime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovi_device_uptime_seconds",
			Help: "Device uptime (seconds)",
		}, labels),
	}

	reg.MustRegister(
		m.polls, m.pollFailures, m.available, m.lastSuccess,
		m.presence, m.motion, m.distance, m.sensitivity,
		m.temperature, m.humidity, m.uptime,
	)
	return m
}

// RecordPoll counts a poll cycle and updates availability.
func (m *Metrics) RecordPoll(deviceID string, success bool) {
	m.polls.WithLabelValues(deviceID).Inc()
	if success {
		m.available.WithLabelValues(deviceID).Set(1)
		m.lastSuccess.WithLabelValues(deviceID).Set(float64(time.Now().Unix()))
		return
	}
	m.pollFailures.WithLabelValues(deviceID).Inc()
	m.available.WithLabelValues(deviceID).Set(0)
}

// RecordState pushes a state snapshot into the reading gauges.
// Keys absent from the snapshot leave their gauges untouched.
func (m *Metrics) RecordState(deviceID string, state device.State) {
	setBool := func(g *prometheus.GaugeVec, key string) {
		if v, ok := state[key].(bool); ok {
			n := 0.0
			if v {
				n = 1.0
			}
			g.WithLabelValues(deviceID).Set(n)
		}
	}
	setNumber := func(g *prometheus.GaugeVec, key string) {
		switch v := state[key].(type) {
		case float64:
			g.WithLabelValues(deviceID).Set(v)
		case int:
			g.WithLabelValues(deviceID).Set(float64(v))
		case int64:
			g.WithLabelValues(deviceID).Set(float64(v))
		}
	}

	setBool(m.presence, "presence")
	setBool(m.motion, "motion")
	setNumber(m.distance, "distance")
	setNumber(m.sensitivity, "sensitivity")
	setNumber(m.temperature, "temperature")
	setNumber(m.humidity, "humidity")
	setNumber(m.uptime, "uptime")
}
