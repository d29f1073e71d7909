package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lovi-home/lovi-core/internal/coordinator"
	"github.com/lovi-home/lovi-core/internal/device"
	"github.com/lovi-home/lovi-core/internal/infrastructure/config"
	"github.com/lovi-home/lovi-core/internal/infrastructure/logging"
)

// fakeDeviceAPI is a scriptable stand-in for the sensor HTTP client.
type fakeDeviceAPI struct {
	mu sync.Mutex

	data map[string]any
	info map[string]any

	lastSettings  map[string]any
	settingsCalls int
	rebootCalls   int
	resetCalls    int
}

func (f *fakeDeviceAPI) Data(context.Context) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, nil
}

func (f *fakeDeviceAPI) DeviceInfo(context.Context) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info, nil
}

func (f *fakeDeviceAPI) SetSettings(_ context.Context, settings map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settingsCalls++
	f.lastSettings = settings
	return map[string]any{"status": "ok"}, nil
}

func (f *fakeDeviceAPI) Reboot(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebootCalls++
	return nil
}

func (f *fakeDeviceAPI) FactoryReset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	return nil
}

// fakeHistory is an in-memory state history store.
type fakeHistory struct {
	mu      sync.Mutex
	entries []device.StateHistoryEntry
}

func (h *fakeHistory) RecordStateChange(_ context.Context, deviceID string, state device.State, source string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, device.StateHistoryEntry{
		ID:        int64(len(h.entries) + 1),
		DeviceID:  deviceID,
		State:     state,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (h *fakeHistory) GetHistory(_ context.Context, deviceID string, limit int) ([]device.StateHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []device.StateHistoryEntry
	for i := len(h.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if h.entries[i].DeviceID == deviceID {
			out = append(out, h.entries[i])
		}
	}
	return out, nil
}

// testFixture bundles the server under test with its fakes.
type testFixture struct {
	server  *Server
	ts      *httptest.Server
	hallway *fakeDeviceAPI
	history *fakeHistory
}

// newTestFixture builds a server with two configured devices:
// lovi-hallway (polled once, model populated) and lovi-office (never polled).
func newTestFixture(t *testing.T, cfg config.APIConfig) *testFixture {
	t.Helper()

	registry := device.NewRegistry()
	registry.RegisterDefaults()

	hallwayAPI := &fakeDeviceAPI{
		data: map[string]any{
			"presence":    true,
			"distance":    1.5,
			"sensitivity": float64(50),
		},
		info: map[string]any{
			"id":   "lovi-hallway",
			"name": "Hallway Radar",
			"type": device.TypePresenceGenOne,
		},
	}
	history := &fakeHistory{}

	hallway, err := coordinator.New(coordinator.Config{
		API:      hallwayAPI,
		Registry: registry,
		DeviceID: "lovi-hallway",
		History:  history,
	})
	if err != nil {
		t.Fatalf("coordinator.New() error = %v", err)
	}
	if err := hallway.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	office, err := coordinator.New(coordinator.Config{
		API:      &fakeDeviceAPI{},
		Registry: registry,
		DeviceID: "lovi-office",
	})
	if err != nil {
		t.Fatalf("coordinator.New() error = %v", err)
	}

	server, err := New(Deps{
		Config: cfg,
		Logger: logging.Default(),
		Coordinators: map[string]*coordinator.Coordinator{
			"lovi-hallway": hallway,
			"lovi-office":  office,
		},
		History: history,
		Metrics: prometheus.NewRegistry(),
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(server.buildRouter())
	t.Cleanup(ts.Close)

	return &testFixture{
		server:  server,
		ts:      ts,
		hallway: hallwayAPI,
		history: history,
	}
}

func (f *testFixture) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(f.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func (f *testFixture) send(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	return body
}

// =============================================================================
// Health and System
// =============================================================================

func TestHealthz(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, err := http.Get(f.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.get(t, "/api/v1/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestSystemStats(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.get(t, "/api/v1/system")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	devices, ok := body["devices"].(map[string]any)
	if !ok {
		t.Fatalf("devices field missing: %v", body)
	}
	if devices["total"] != float64(2) {
		t.Errorf("devices.total = %v, want 2", devices["total"])
	}
	if devices["available"] != float64(1) {
		t.Errorf("devices.available = %v, want 1", devices["available"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, err := http.Get(f.ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, err := http.Get(f.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

// =============================================================================
// Device Reads
// =============================================================================

func TestListDevices(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.get(t, "/api/v1/devices")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", body["count"])
	}

	devices := body["devices"].([]any)
	first := devices[0].(map[string]any)
	if first["id"] != "lovi-hallway" {
		t.Errorf("first device id = %v, want lovi-hallway (sorted)", first["id"])
	}
	if first["available"] != true {
		t.Errorf("hallway available = %v, want true", first["available"])
	}
	if first["name"] != "Hallway Radar" {
		t.Errorf("hallway name = %v, want Hallway Radar", first["name"])
	}

	second := devices[1].(map[string]any)
	if second["id"] != "lovi-office" {
		t.Errorf("second device id = %v, want lovi-office", second["id"])
	}
	if second["available"] != false {
		t.Errorf("office available = %v, want false", second["available"])
	}
}

func TestGetDevice(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.get(t, "/api/v1/devices/lovi-hallway")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["type"] != device.TypePresenceGenOne {
		t.Errorf("type = %v, want %v", body["type"], device.TypePresenceGenOne)
	}
	caps, ok := body["capabilities"].(map[string]any)
	if !ok {
		t.Fatalf("capabilities missing: %v", body)
	}
	if caps["has_presence"] != true {
		t.Errorf("has_presence = %v, want true", caps["has_presence"])
	}
}

func TestGetDeviceNotFound(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.get(t, "/api/v1/devices/lovi-garage")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body["code"] != ErrCodeNotFound {
		t.Errorf("code = %v, want %v", body["code"], ErrCodeNotFound)
	}
}

func TestGetDeviceState(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.get(t, "/api/v1/devices/lovi-hallway/state")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	state := body["state"].(map[string]any)
	if state["presence"] != true {
		t.Errorf("presence = %v, want true", state["presence"])
	}
}

func TestGetDeviceStateBeforePoll(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.get(t, "/api/v1/devices/lovi-office/state")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if body["code"] != ErrCodeUnavailable {
		t.Errorf("code = %v, want %v", body["code"], ErrCodeUnavailable)
	}
}

func TestGetDeviceHistory(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.get(t, "/api/v1/devices/lovi-hallway/history")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1 (refresh snapshot)", body["count"])
	}
}

func TestGetDeviceHistoryInvalidLimit(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, _ := f.get(t, "/api/v1/devices/lovi-hallway/history?limit=nope")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	resp, _ = f.get(t, "/api/v1/devices/lovi-hallway/history?limit=-1")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", resp.StatusCode)
	}
}

// =============================================================================
// Device Commands
// =============================================================================

func TestSetDeviceSettings(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.send(t, http.MethodPut, "/api/v1/devices/lovi-hallway/settings",
		map[string]any{"sensitivity": 80}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", resp.StatusCode, body)
	}

	f.hallway.mu.Lock()
	sent := f.hallway.lastSettings
	f.hallway.mu.Unlock()
	if fmt.Sprintf("%v", sent["sensitivity"]) != "80" {
		t.Errorf("sent sensitivity = %v, want 80", sent["sensitivity"])
	}
}

func TestSetDeviceSettingsEmptyBody(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, _ := f.send(t, http.MethodPut, "/api/v1/devices/lovi-hallway/settings",
		map[string]any{}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSetDeviceSettingsBeforePoll(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.send(t, http.MethodPut, "/api/v1/devices/lovi-office/settings",
		map[string]any{"sensitivity": 80}, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503: %v", resp.StatusCode, body)
	}
}

func TestRebootDevice(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	resp, body := f.send(t, http.MethodPost, "/api/v1/devices/lovi-hallway/reboot", nil, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %v", resp.StatusCode, body)
	}

	f.hallway.mu.Lock()
	reboots := f.hallway.rebootCalls
	f.hallway.mu.Unlock()
	if reboots != 1 {
		t.Errorf("reboot calls = %d, want 1", reboots)
	}
}

func TestRefreshDevice(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	f.hallway.mu.Lock()
	f.hallway.data = map[string]any{"presence": false, "distance": 0.0}
	f.hallway.mu.Unlock()

	resp, body := f.send(t, http.MethodPost, "/api/v1/devices/lovi-hallway/refresh", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", resp.StatusCode, body)
	}
	state := body["state"].(map[string]any)
	if state["presence"] != false {
		t.Errorf("presence after refresh = %v, want false", state["presence"])
	}
}

func TestFactoryReset(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{})

	// Wrong confirmation string is rejected before the device is touched.
	resp, _ := f.send(t, http.MethodPost, "/api/v1/devices/lovi-hallway/factory_reset",
		map[string]any{"confirm": "yes please"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	f.hallway.mu.Lock()
	resets := f.hallway.resetCalls
	f.hallway.mu.Unlock()
	if resets != 0 {
		t.Fatalf("reset calls = %d before confirmation, want 0", resets)
	}

	resp, body := f.send(t, http.MethodPost, "/api/v1/devices/lovi-hallway/factory_reset",
		map[string]any{"confirm": "FACTORY RESET"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", resp.StatusCode, body)
	}

	// Model is discarded; state reads now report not-yet-polled.
	resp, _ = f.get(t, "/api/v1/devices/lovi-hallway/state")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("state after reset status = %d, want 503", resp.StatusCode)
	}
}

// =============================================================================
// Authentication
// =============================================================================

func TestAuthMiddleware(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{APIKey: "secret-key"})

	// Reads stay open.
	resp, _ := f.get(t, "/api/v1/devices/lovi-hallway/state")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("read status = %d, want 200", resp.StatusCode)
	}

	// Mutations without the key are rejected.
	resp, body := f.send(t, http.MethodPost, "/api/v1/devices/lovi-hallway/reboot", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no-key status = %d, want 401: %v", resp.StatusCode, body)
	}

	// Wrong key is rejected.
	resp, _ = f.send(t, http.MethodPost, "/api/v1/devices/lovi-hallway/reboot", nil,
		map[string]string{"X-API-Key": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong-key status = %d, want 401", resp.StatusCode)
	}

	// Correct key passes.
	resp, _ = f.send(t, http.MethodPost, "/api/v1/devices/lovi-hallway/reboot", nil,
		map[string]string{"X-API-Key": "secret-key"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("with-key status = %d, want 202", resp.StatusCode)
	}
}

func TestServerLifecycle(t *testing.T) {
	f := newTestFixture(t, config.APIConfig{Host: "127.0.0.1", Port: 0})

	if err := f.server.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should report not started")
	}

	if err := f.server.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.server.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() after Start error = %v", err)
	}
	if err := f.server.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
