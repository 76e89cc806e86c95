package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/rollcall-api/internal/config"
	"github.com/noah-isme/rollcall-api/internal/handler"
)

type healthEnvelope struct {
	Success bool                   `json:"success"`
	Data    handler.HealthResponse `json:"data"`
}

func runHealth(t *testing.T, h fiber.Handler) (int, healthEnvelope) {
	t.Helper()

	app := fiber.New()
	app.Get("/v1/health", h)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}

	var payload healthEnvelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "Rollcall API", AppEnv: "test"}
	up := func(context.Context) error { return nil }

	status, payload := runHealth(t, handler.HealthCheck(cfg, up, map[string]handler.Pinger{
		"redis": func(context.Context) error { return errors.New("connection refused") },
		"nats":  up,
	}))

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.Equal(t, "up", payload.Data.Dependencies["database"])
	assert.Equal(t, "degraded", payload.Data.Dependencies["redis"])
	assert.Equal(t, "up", payload.Data.Dependencies["nats"])
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}

func TestHealthCheckDatabaseDown(t *testing.T) {
	cfg := config.Config{AppName: "Rollcall API", AppEnv: "test"}

	status, payload := runHealth(t, handler.HealthCheck(cfg, func(context.Context) error {
		return errors.New("dial tcp: timeout")
	}, nil))

	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.False(t, payload.Success)
	assert.Equal(t, "unavailable", payload.Data.Status)
	assert.Equal(t, "down", payload.Data.Dependencies["database"])
}
