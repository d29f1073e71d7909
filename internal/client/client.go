package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/lovi-home/lovi-core/internal/validate"
)

// Default client configuration.
const (
	// DefaultTimeout is the per-attempt request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the number of attempts for transient failures.
	DefaultMaxRetries = 3

	// DefaultBackoffFactor is the exponential backoff base: the wait before
	// retry n is backoffFactor^n backoff units (1s, 2s, 4s, ...).
	DefaultBackoffFactor = 2.0
)

// Logger defines the logging interface used by the Client.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Credentials holds device authentication material.
//
// At most one mechanism is used per request: a token takes precedence
// over an API key. Both empty means unauthenticated requests.
type Credentials struct {
	// APIKey is sent as the X-API-Key header.
	APIKey string

	// Token is sent as an Authorization: Bearer header.
	Token string
}

// Config contains client configuration options.
type Config struct {
	// Host is the device IP address or hostname.
	Host string

	// Port is the device API port (default 80).
	Port int

	// Credentials are optional authentication credentials.
	Credentials Credentials

	// UseTLS selects https instead of http. Most Lovi devices serve
	// plain http on the local network.
	UseTLS bool

	// Timeout is the per-attempt request timeout. Default: 10s.
	Timeout time.Duration

	// MaxRetries is the number of attempts for transient failures.
	// Default: 3.
	MaxRetries int

	// BackoffFactor is the exponential backoff base. Default: 2.
	BackoffFactor float64

	// BackoffUnit scales backoff waits. Default: 1s. Tests shorten it.
	BackoffUnit time.Duration
}

// Client is an HTTP API client for a single Lovi device.
//
// The underlying network session is acquired lazily on first use and
// released by Close(). All methods are safe for concurrent use.
type Client struct {
	host          string
	port          int
	baseURL       string
	creds         Credentials
	timeout       time.Duration
	maxRetries    int
	backoffFactor float64
	backoffUnit   time.Duration

	mu      sync.Mutex
	session *http.Client
	closed  bool

	logger Logger
}

// New creates a client for the device at cfg.Host:cfg.Port.
//
// Host, port, and API key are validated up front; connection failures
// only surface on the first request.
func New(cfg Config) (*Client, error) {
	host, err := validate.Host(cfg.Host)
	if err != nil {
		return nil, err
	}
	port, err := validate.Port(cfg.Port)
	if err != nil {
		return nil, err
	}
	if _, err := validate.APIKey(cfg.Credentials.APIKey); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	backoffFactor := cfg.BackoffFactor
	if backoffFactor <= 0 {
		backoffFactor = DefaultBackoffFactor
	}
	backoffUnit := cfg.BackoffUnit
	if backoffUnit <= 0 {
		backoffUnit = time.Second
	}

	scheme := "http"
	if cfg.UseTLS {
		scheme = "https"
	}

	return &Client{
		host:          host,
		port:          port,
		baseURL:       fmt.Sprintf("%s://%s:%d", scheme, host, port),
		creds:         cfg.Credentials,
		timeout:       timeout,
		maxRetries:    maxRetries,
		backoffFactor: backoffFactor,
		backoffUnit:   backoffUnit,
		logger:        noopLogger{},
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Host returns the configured device host.
func (c *Client) Host() string { return c.host }

// Port returns the configured device port.
func (c *Client) Port() int { return c.port }

// BaseURL returns the base URL requests are issued against.
func (c *Client) BaseURL() string { return c.baseURL }

// acquireSession returns the network session, creating it on first use.
func (c *Client) acquireSession() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.session == nil {
		// Per-attempt timeouts are enforced via request contexts, not
		// http.Client.Timeout, so cancellation aborts backoff too.
		c.session = &http.Client{}
	}
	return c.session, nil
}

// Close releases the network session.
//
// The client cannot be used after Close; callers doing short-lived
// validation (e.g. during discovery) must ensure Close runs, typically
// via defer.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.CloseIdleConnections()
		c.session = nil
	}
	c.closed = true
}

// headers returns the request headers including authentication.
// A token takes precedence over an API key.
func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")

	switch {
	case c.creds.Token != "":
		h.Set("Authorization", "Bearer "+c.creds.Token)
	case c.creds.APIKey != "":
		h.Set("X-API-Key", c.creds.APIKey)
	}

	return h
}

// Request makes an authenticated request to the device API.
//
// Transient failures (timeouts, connection errors) are retried up to the
// configured attempt count with exponential backoff. API-level errors
// (HTTP >= 400) fail immediately and are never retried.
//
// Parameters:
//   - ctx: Context for cancellation; aborts in-flight requests and
//     pending backoff sleeps
//   - method: HTTP method (GET, POST, ...)
//   - endpoint: API endpoint path (e.g. "/api/status")
//   - body: Request body, or nil
//
// Returns:
//   - map[string]any: Decoded JSON response
//   - error: ErrTimeout/ErrConnection after exhausted retries,
//     ErrAuthentication for 401/403, *APIError for other >= 400
func (c *Client) Request(ctx context.Context, method, endpoint string, body map[string]any) (map[string]any, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying request",
				"endpoint", endpoint,
				"attempt", attempt+1,
				"host", c.host,
			)
			if err := c.backoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		result, err := c.do(ctx, method, endpoint, payload)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}

	// All attempts exhausted on transient failures.
	if errors.Is(lastErr, ErrTimeout) {
		return nil, fmt.Errorf("%w: request to %s timed out after %d attempts",
			ErrTimeout, endpoint, c.maxRetries)
	}
	return nil, fmt.Errorf("%w: failed to connect to %s:%d for %s after %d attempts: %w",
		ErrConnection, c.host, c.port, endpoint, c.maxRetries, lastErr)
}

// do performs a single request attempt.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) (map[string]any, error) {
	session, err := c.acquireSession()
	if err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", endpoint, err)
	}
	req.Header = c.headers()

	resp, err := session.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-side close, nothing actionable

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response from %s: %w", ErrConnection, endpoint, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
		if devErr := decodeDeviceError(raw); devErr != nil {
			return nil, fmt.Errorf("%w: %w", apiErr, devErr)
		}
		return nil, apiErr
	}

	result := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("decoding response from %s: %w", endpoint, err)
		}
	}
	return result, nil
}

// classifyTransportError maps a transport failure to the error taxonomy.
//
// Parent-context cancellation is surfaced as-is so an unloading host
// never sees it dressed up as a device failure.
func (c *Client) classifyTransportError(ctx context.Context, endpoint string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s", ErrTimeout, endpoint)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, endpoint)
	}
	return fmt.Errorf("%w: %s: %w", ErrConnection, endpoint, err)
}

// retryable reports whether a failure is transient.
// Only timeouts and connection-layer failures are retried.
func retryable(err error) bool {
	return errors.Is(err, ErrConnection)
}

// backoff waits backoffFactor^n backoff units, honouring cancellation.
func (c *Client) backoff(ctx context.Context, n int) error {
	wait := time.Duration(math.Pow(c.backoffFactor, float64(n)) * float64(c.backoffUnit))

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get makes a GET request to the endpoint.
func (c *Client) Get(ctx context.Context, endpoint string) (map[string]any, error) {
	return c.Request(ctx, http.MethodGet, endpoint, nil)
}

// Post makes a POST request to the endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, body map[string]any) (map[string]any, error) {
	return c.Request(ctx, http.MethodPost, endpoint, body)
}

// Put makes a PUT request to the endpoint.
func (c *Client) Put(ctx context.Context, endpoint string, body map[string]any) (map[string]any, error) {
	return c.Request(ctx, http.MethodPut, endpoint, body)
}

// Delete makes a DELETE request to the endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string) (map[string]any, error) {
	return c.Request(ctx, http.MethodDelete, endpoint, nil)
}
