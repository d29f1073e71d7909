// Package mqtt provides MQTT client connectivity for Lovi Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Lovi Core publishes device state and availability to MQTT so that
// Home Assistant, dashboards, and automation rules can consume them
// without talking to the sensors directly.
//
//	Lovi sensors ↔ Lovi Core ↔ MQTT Broker ↔ Home Assistant / dashboards
//
// Topic hierarchy (see topics.go for builders):
//
//	lovi/state/{device_id}         retained state snapshots
//	lovi/availability/{device_id}  retained "online"/"offline"
//	lovi/command/{device_id}       inbound commands to a device
//	lovi/system/status             daemon status, carries the LWT
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to commands for all devices
//	err = client.Subscribe(mqtt.Topics{}.AllDeviceCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a retained state snapshot
//	pub := mqtt.NewPublisher(client)
//	pub.PublishState("lovi-hallway", map[string]any{"presence": true})
package mqtt
