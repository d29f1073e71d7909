package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/lovi-home/lovi-core/internal/device"
)

// Availability payloads. Plain strings rather than JSON so Home Assistant
// availability templates can consume them directly.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Publisher publishes device state and availability over an MQTT client.
//
// State snapshots and availability are both retained so late subscribers
// immediately see the current picture.
type Publisher struct {
	client *Client
	topics Topics
}

// NewPublisher wraps an MQTT client as a device state publisher.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishState publishes a retained JSON state snapshot for a device.
//
// Topic: lovi/state/{device_id}
func (p *Publisher) PublishState(deviceID string, state device.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encoding state for %s: %w", ErrPublishFailed, deviceID, err)
	}
	return p.client.PublishRetained(p.topics.DeviceState(deviceID), payload)
}

// PublishAvailability publishes a retained availability marker for a device.
//
// Topic: lovi/availability/{device_id}
func (p *Publisher) PublishAvailability(deviceID string, online bool) error {
	payload := PayloadOffline
	if online {
		payload = PayloadOnline
	}
	return p.client.PublishRetained(p.topics.DeviceAvailability(deviceID), []byte(payload))
}
