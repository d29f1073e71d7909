package client

import (
	"context"

	"github.com/lovi-home/lovi-core/internal/validate"
)

// Well-known device API endpoints.
const (
	// EndpointStatus serves the current sensor readings.
	EndpointStatus = "/api/status"

	// EndpointDevice serves device identity and capabilities.
	EndpointDevice = "/api/device"

	// EndpointSettings accepts configuration updates.
	EndpointSettings = "/api/settings"

	// EndpointReboot restarts the device.
	EndpointReboot = "/api/reboot"

	// EndpointFactoryReset restores factory defaults.
	EndpointFactoryReset = "/api/factory_reset"
)

// Data fetches the current sensor readings.
func (c *Client) Data(ctx context.Context) (map[string]any, error) {
	return c.Get(ctx, EndpointStatus)
}

// DeviceInfo fetches device identity and capabilities.
func (c *Client) DeviceInfo(ctx context.Context) (map[string]any, error) {
	return c.Get(ctx, EndpointDevice)
}

// SetSettings pushes a settings bundle to the device.
//
// The bundle is validated locally first; an invalid bundle never
// reaches the network.
func (c *Client) SetSettings(ctx context.Context, settings map[string]any) (map[string]any, error) {
	validated, err := validate.Settings(settings)
	if err != nil {
		return nil, err
	}
	return c.Post(ctx, EndpointSettings, validated)
}

// Reboot restarts the device.
func (c *Client) Reboot(ctx context.Context) error {
	_, err := c.Post(ctx, EndpointReboot, nil)
	return err
}

// FactoryReset restores the device to factory defaults.
//
// Destructive: wipes stored WiFi credentials and settings.
func (c *Client) FactoryReset(ctx context.Context) error {
	_, err := c.Post(ctx, EndpointFactoryReset, nil)
	return err
}
