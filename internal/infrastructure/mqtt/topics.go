package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the Lovi MQTT hierarchy.
//
// All device topics use the flat scheme: lovi/{category}/{device_id}
// This matches what Home Assistant and the dashboards subscribe to.
const (
	// TopicPrefix is the base for all Lovi topics.
	TopicPrefix = "lovi"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "lovi/system"
)

// Topics provides builders for Lovi MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("lovi-hallway")
//	// Returns: "lovi/state/lovi-hallway"
type Topics struct{}

// DeviceState returns the topic for canonical device state snapshots.
//
// Example: lovi/state/lovi-hallway
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// DeviceAvailability returns the topic for device online/offline status.
//
// Example: lovi/availability/lovi-hallway
func (Topics) DeviceAvailability(deviceID string) string {
	return fmt.Sprintf("%s/availability/%s", TopicPrefix, deviceID)
}

// DeviceCommand returns the topic for commands to a device.
//
// Example: lovi/command/lovi-hallway
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, deviceID)
}

// SystemStatus returns the daemon status topic.
// Carries the LWT so subscribers can detect an unclean shutdown.
//
// Example: lovi/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceStates returns a pattern matching every device state topic.
//
// Pattern: lovi/state/+
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/state/+", TopicPrefix)
}

// AllDeviceAvailability returns a pattern matching every availability topic.
//
// Pattern: lovi/availability/+
func (Topics) AllDeviceAvailability() string {
	return fmt.Sprintf("%s/availability/+", TopicPrefix)
}

// AllDeviceCommands returns a pattern matching commands for every device.
//
// Pattern: lovi/command/+
func (Topics) AllDeviceCommands() string {
	return fmt.Sprintf("%s/command/+", TopicPrefix)
}

// AllTopics returns a pattern matching all Lovi topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: lovi/#
func (Topics) AllTopics() string {
	return "lovi/#"
}

// CommandDeviceID extracts the device ID from a command topic.
// Returns false if the topic is not a well-formed command topic.
func CommandDeviceID(topic string) (string, bool) {
	prefix := TopicPrefix + "/command/"
	id, ok := strings.CutPrefix(topic, prefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
