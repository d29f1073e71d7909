package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lovi-home/lovi-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "lovi-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// newDisconnectedClient builds a client that has never connected.
// Validation paths and connection-state checks can be exercised
// without a running broker.
func newDisconnectedClient(t *testing.T) *Client {
	t.Helper()

	cfg := testConfig()
	opts := buildClientOptions(cfg)
	return &Client{
		cfg:           cfg,
		options:       opts,
		client:        pahomqtt.NewClient(opts),
		subscriptions: make(map[string]subscription),
	}
}

// =============================================================================
// Topic Builders
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		build    func() string
		expected string
	}{
		{
			name: "DeviceState",
			build: func() string {
				return Topics{}.DeviceState("lovi-hallway")
			},
			expected: "lovi/state/lovi-hallway",
		},
		{
			name: "DeviceAvailability",
			build: func() string {
				return Topics{}.DeviceAvailability("lovi-hallway")
			},
			expected: "lovi/availability/lovi-hallway",
		},
		{
			name: "DeviceCommand",
			build: func() string {
				return Topics{}.DeviceCommand("lovi-office")
			},
			expected: "lovi/command/lovi-office",
		},
		{
			name: "SystemStatus",
			build: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "lovi/system/status",
		},
		{
			name: "AllDeviceStates",
			build: func() string {
				return Topics{}.AllDeviceStates()
			},
			expected: "lovi/state/+",
		},
		{
			name: "AllDeviceAvailability",
			build: func() string {
				return Topics{}.AllDeviceAvailability()
			},
			expected: "lovi/availability/+",
		},
		{
			name: "AllDeviceCommands",
			build: func() string {
				return Topics{}.AllDeviceCommands()
			},
			expected: "lovi/command/+",
		},
		{
			name: "AllTopics",
			build: func() string {
				return Topics{}.AllTopics()
			},
			expected: "lovi/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCommandDeviceID(t *testing.T) {
	tests := []struct {
		name   string
		topic  string
		wantID string
		wantOK bool
	}{
		{name: "valid", topic: "lovi/command/lovi-hallway", wantID: "lovi-hallway", wantOK: true},
		{name: "wrong prefix", topic: "lovi/state/lovi-hallway", wantOK: false},
		{name: "empty id", topic: "lovi/command/", wantOK: false},
		{name: "nested segments", topic: "lovi/command/lovi-hallway/extra", wantOK: false},
		{name: "unrelated topic", topic: "homeassistant/status", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := CommandDeviceID(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("CommandDeviceID(%q) ok = %v, want %v", tt.topic, ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("CommandDeviceID(%q) = %q, want %q", tt.topic, id, tt.wantID)
			}
		})
	}
}

// =============================================================================
// Client Options
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "lovi"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("Servers count = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "lovi-test" {
		t.Errorf("ClientID = %q, want lovi-test", opts.ClientID)
	}
	if opts.Username != "lovi" {
		t.Errorf("Username = %q, want lovi", opts.Username)
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("broker scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig = nil, want configured")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "lovi-test")

	if opts.WillTopic != "lovi/system/status" {
		t.Errorf("WillTopic = %q, want lovi/system/status", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}
	if opts.WillQos != 1 {
		t.Errorf("WillQos = %d, want 1", opts.WillQos)
	}
	payload := string(opts.WillPayload)
	if !strings.Contains(payload, `"status":"offline"`) {
		t.Errorf("will payload missing offline status: %s", payload)
	}
	if !strings.Contains(payload, `"client_id":"lovi-test"`) {
		t.Errorf("will payload missing client id: %s", payload)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("lovi-test")
	if !strings.Contains(online, `"status":"online"`) {
		t.Errorf("online payload = %s", online)
	}

	offline := buildOfflinePayload("lovi-test")
	if !strings.Contains(offline, `"status":"offline"`) {
		t.Errorf("offline payload = %s", offline)
	}
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload missing reason: %s", offline)
	}
}

// =============================================================================
// Validation (no broker required)
// =============================================================================

func TestPublishValidation(t *testing.T) {
	client := newDisconnectedClient(t)

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 1, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: "lovi/state/x", qos: 3, wantErr: ErrInvalidQoS},
		{name: "oversized payload", topic: "lovi/state/x", qos: 1, payload: make([]byte, maxPayloadSize+1), wantErr: ErrPublishFailed},
		{name: "disconnected", topic: "lovi/state/x", qos: 1, payload: []byte("{}"), wantErr: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := newDisconnectedClient(t)
	handler := func(topic string, payload []byte) error { return nil }

	if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want %v", err, ErrInvalidTopic)
	}
	if err := client.Subscribe("lovi/command/+", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("invalid qos error = %v, want %v", err, ErrInvalidQoS)
	}
	if err := client.Subscribe("lovi/command/+", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v, want %v", err, ErrSubscribeFailed)
	}
	if err := client.Subscribe("lovi/command/+", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v, want %v", err, ErrNotConnected)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes, want 0", client.SubscriptionCount())
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := newDisconnectedClient(t)

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want %v", err, ErrInvalidTopic)
	}
	if err := client.Unsubscribe("lovi/command/+"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v, want %v", err, ErrNotConnected)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := newDisconnectedClient(t)

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want %v", err, ErrNotConnected)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := newDisconnectedClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.HealthCheck(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// Publisher
// =============================================================================

func TestPublisherDisconnected(t *testing.T) {
	pub := NewPublisher(newDisconnectedClient(t))

	err := pub.PublishState("lovi-hallway", map[string]any{"presence": true})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishState() error = %v, want %v", err, ErrNotConnected)
	}

	err = pub.PublishAvailability("lovi-hallway", true)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishAvailability() error = %v, want %v", err, ErrNotConnected)
	}
}

func TestPublisherStateEncoding(t *testing.T) {
	pub := NewPublisher(newDisconnectedClient(t))

	// A channel cannot be encoded as JSON. The encoding error must
	// surface before any broker interaction.
	err := pub.PublishState("lovi-hallway", map[string]any{"bad": make(chan int)})
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishState() error = %v, want %v", err, ErrPublishFailed)
	}
}

// mockLogger implements Logger for testing.
type mockLogger struct {
	errors []string
	warns  []string
	mu     sync.Mutex
}

func (l *mockLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func TestCallbacksAndLogger(t *testing.T) {
	client := newDisconnectedClient(t)

	client.SetOnConnect(func() {})
	client.SetOnDisconnect(func(err error) {})

	logger := &mockLogger{}
	client.SetLogger(logger)
	if client.getLogger() == nil {
		t.Error("getLogger() = nil after SetLogger()")
	}

	client.SetLogger(nil)
	if client.getLogger() != nil {
		t.Error("getLogger() should be nil after SetLogger(nil)")
	}
}
