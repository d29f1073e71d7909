package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lovi-home/lovi-core/internal/client"
	"github.com/lovi-home/lovi-core/internal/coordinator"
	"github.com/lovi-home/lovi-core/internal/device"
	"github.com/lovi-home/lovi-core/internal/validate"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// DeviceSummary is the list-view representation of a device.
type DeviceSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Type       string `json:"type,omitempty"`
	Available  bool   `json:"available"`
	LastUpdate string `json:"last_update,omitempty"`
}

// DeviceDetail is the full representation of a device.
type DeviceDetail struct {
	ID           string               `json:"id"`
	Available    bool                 `json:"available"`
	LastUpdate   string               `json:"last_update,omitempty"`
	Info         *device.Info         `json:"info,omitempty"`
	Type         string               `json:"type,omitempty"`
	Capabilities *device.Capabilities `json:"capabilities,omitempty"`
}

// coordinatorFor resolves the {id} route parameter to a coordinator.
// Writes a 404 response and returns nil when the device is not configured.
func (s *Server) coordinatorFor(w http.ResponseWriter, r *http.Request) *coordinator.Coordinator {
	id := chi.URLParam(r, "id")
	c, ok := s.coordinators[id]
	if !ok {
		writeNotFound(w, "device not found")
		return nil
	}
	return c
}

// handleListDevices returns a summary of every configured device.
// Devices that have not completed a poll yet appear with identity fields
// empty and available=false.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	ids := make([]string, 0, len(s.coordinators))
	for id := range s.coordinators {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summaries := make([]DeviceSummary, 0, len(ids))
	for _, id := range ids {
		c := s.coordinators[id]
		summary := DeviceSummary{
			ID:        id,
			Available: c.Available(),
		}
		if last := c.LastUpdate(); !last.IsZero() {
			summary.LastUpdate = last.UTC().Format(time.RFC3339)
		}
		if d, err := c.Device(); err == nil {
			summary.Name = d.Info().Name
			summary.Type = d.Type()
		}
		summaries = append(summaries, summary)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": summaries,
		"count":   len(summaries),
	})
}

// handleGetDevice returns identity and capabilities for a single device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	c := s.coordinatorFor(w, r)
	if c == nil {
		return
	}

	detail := DeviceDetail{
		ID:        c.DeviceID(),
		Available: c.Available(),
	}
	if last := c.LastUpdate(); !last.IsZero() {
		detail.LastUpdate = last.UTC().Format(time.RFC3339)
	}
	if d, err := c.Device(); err == nil {
		info := d.Info()
		caps := d.Capabilities()
		detail.Info = &info
		detail.Type = d.Type()
		detail.Capabilities = &caps
	}

	writeJSON(w, http.StatusOK, detail)
}

// handleGetDeviceState returns the latest state snapshot.
func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	c := s.coordinatorFor(w, r)
	if c == nil {
		return
	}

	state, err := c.State()
	if err != nil {
		writeServiceUnavailable(w, "device has not been polled yet")
		return
	}

	resp := map[string]any{
		"device_id": c.DeviceID(),
		"available": c.Available(),
		"state":     state,
	}
	if last := c.LastUpdate(); !last.IsZero() {
		resp["last_update"] = last.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetDeviceHistory returns recorded state snapshots for a device.
//
// Query parameters:
//   - limit: maximum entries to return (default 50, max 200)
//   - since: RFC3339 timestamp; only entries after this time are returned
func (s *Server) handleGetDeviceHistory(w http.ResponseWriter, r *http.Request) {
	c := s.coordinatorFor(w, r)
	if c == nil {
		return
	}

	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	since, err := parseSinceParam(r.URL.Query().Get("since"))
	if err != nil {
		writeBadRequest(w, "invalid since timestamp")
		return
	}

	if s.history == nil {
		writeServiceUnavailable(w, "state history unavailable")
		return
	}

	entries, err := s.history.GetHistory(r.Context(), c.DeviceID(), limit)
	if err != nil {
		writeInternalError(w, "failed to load device history")
		return
	}

	if !since.IsZero() {
		filtered := entries[:0]
		for _, entry := range entries {
			if entry.CreatedAt.After(since) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": c.DeviceID(),
		"history":   entries,
		"count":     len(entries),
	})
}

// handleSetDeviceSettings forwards a settings bundle to the device.
func (s *Server) handleSetDeviceSettings(w http.ResponseWriter, r *http.Request) {
	c := s.coordinatorFor(w, r)
	if c == nil {
		return
	}

	var settings map[string]any
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(settings) == 0 {
		writeBadRequest(w, "settings body cannot be empty")
		return
	}

	if err := c.SetSettings(r.Context(), settings); err != nil {
		writeCommandError(w, err)
		return
	}

	state, _ := c.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": c.DeviceID(),
		"status":    "applied",
		"state":     state,
	})
}

// handleRefreshDevice forces an immediate poll cycle.
func (s *Server) handleRefreshDevice(w http.ResponseWriter, r *http.Request) {
	c := s.coordinatorFor(w, r)
	if c == nil {
		return
	}

	if err := c.Refresh(r.Context()); err != nil {
		writeCommandError(w, err)
		return
	}

	state, _ := c.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": c.DeviceID(),
		"available": c.Available(),
		"state":     state,
	})
}

// handleRebootDevice restarts the device firmware.
func (s *Server) handleRebootDevice(w http.ResponseWriter, r *http.Request) {
	c := s.coordinatorFor(w, r)
	if c == nil {
		return
	}

	if err := c.Reboot(r.Context()); err != nil {
		writeCommandError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"device_id": c.DeviceID(),
		"status":    "rebooting",
	})
}

// FactoryResetRequest guards the factory reset endpoint.
type FactoryResetRequest struct {
	Confirm string `json:"confirm"`
}

// handleFactoryReset wipes the device back to factory defaults.
//
// This is a destructive operation; the request must include an exact
// confirmation string as a safety guard.
func (s *Server) handleFactoryReset(w http.ResponseWriter, r *http.Request) {
	c := s.coordinatorFor(w, r)
	if c == nil {
		return
	}

	var req FactoryResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Confirm != "FACTORY RESET" {
		writeBadRequest(w, `confirm field must be exactly "FACTORY RESET"`)
		return
	}

	if err := c.FactoryReset(r.Context()); err != nil {
		writeCommandError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": c.DeviceID(),
		"status":    "reset",
	})
}

// writeCommandError maps device command failures to HTTP responses.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coordinator.ErrNoDevice):
		writeServiceUnavailable(w, "device has not been polled yet")
	case errors.Is(err, validate.ErrInvalid):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, device.ErrNotSupported):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, client.ErrAuthentication):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "device rejected credentials")
	case errors.Is(err, client.ErrConnection), errors.Is(err, client.ErrAPI),
		errors.Is(err, coordinator.ErrUpdateFailed):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}

// parseHistoryLimit parses the limit query parameter.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, nil
}

// parseSinceParam parses the optional since query parameter.
func parseSinceParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
