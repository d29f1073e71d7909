// Package client provides the HTTP API client for Lovi devices.
//
// Lovi sensors expose a small JSON API on the local network (default port
// 80). The client handles authentication, per-attempt timeouts, and retry
// with exponential backoff for transient connection failures.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────┐
//	│                        Client                            │
//	│                                                          │
//	│  Request(ctx, method, endpoint, body)                    │
//	│    │                                                     │
//	│    ├─ attach auth headers (Bearer token / X-API-Key)     │
//	│    ├─ per-attempt timeout                                │
//	│    ├─ retry timeouts + connection failures with          │
//	│    │  exponential backoff (1s, 2s, 4s, ...)              │
//	│    └─ classify responses:                                │
//	│         401/403        → ErrAuthentication               │
//	│         other ≥400     → *APIError (no retry)            │
//	│         exhausted      → ErrTimeout / ErrConnection      │
//	└──────────────────────────────────────────────────────────┘
//
// # Usage
//
//	c, err := client.New(client.Config{
//	    Host:        "192.168.1.50",
//	    Port:        80,
//	    Credentials: client.Credentials{APIKey: "device-api-key"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	status, err := c.Data(ctx)          // GET /api/status
//	info, err := c.DeviceInfo(ctx)      // GET /api/device
//	_, err = c.SetSettings(ctx, map[string]any{"sensitivity": 75})
//
// API-level errors (HTTP ≥400) are never retried; only timeouts and
// low-level connection failures are. Short-lived clients created during
// discovery must be released with Close().
package client
