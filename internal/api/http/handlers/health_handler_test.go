package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/persistence"
)

type stubMonitor struct {
	running bool
}

func (s stubMonitor) Running() bool { return s.running }

func readyDependencies(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	if deps, ok := body["dependencies"].(map[string]any); ok {
		return resp.StatusCode, deps
	}
	errEnvelope, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope in unready response")
	deps, ok := errEnvelope["details"].(map[string]any)
	require.True(t, ok)
	return resp.StatusCode, deps
}

func TestHealthReady_ReportsMonitorRunning(t *testing.T) {
	h := NewHealthHandler("sla-engine", "test", &persistence.Postgres{}, &persistence.Redis{}, stubMonitor{running: true})

	status, deps := readyDependencies(t, h)
	// backing stores are unreachable here, so the probe still reports unready
	require.Equal(t, fiber.StatusServiceUnavailable, status)
	require.Equal(t, "ok", deps["monitor"])
}

func TestHealthReady_ReportsMonitorStopped(t *testing.T) {
	h := NewHealthHandler("sla-engine", "test", &persistence.Postgres{}, &persistence.Redis{}, stubMonitor{running: false})

	status, deps := readyDependencies(t, h)
	require.Equal(t, fiber.StatusServiceUnavailable, status)
	require.Equal(t, "stopped", deps["monitor"])
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler("sla-engine", "test", &persistence.Postgres{}, &persistence.Redis{}, stubMonitor{running: true})
	app := fiber.New()
	app.Get("/health/live", h.Live)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
