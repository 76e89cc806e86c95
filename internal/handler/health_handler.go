package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/rollcall-api/internal/config"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

// HealthCheck returns a handler that reports application health. The service
// stays "ok" while optional dependencies are degraded; only a failing
// database marks it unavailable.
func HealthCheck(cfg config.Config, database Pinger, optional map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		payload := HealthResponse{
			Status:       "ok",
			Timestamp:    time.Now().UTC(),
			Service:      cfg.AppName,
			Environment:  cfg.AppEnv,
			Dependencies: map[string]string{},
		}

		if database != nil {
			if err := database(ctx); err != nil {
				payload.Status = "unavailable"
				payload.Dependencies["database"] = "down"
				return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
					Success: false,
					Data:    payload,
					Message: "database unreachable",
				})
			}
			payload.Dependencies["database"] = "up"
		}

		for name, ping := range optional {
			if ping == nil {
				continue
			}
			if err := ping(ctx); err != nil {
				payload.Dependencies[name] = "degraded"
				continue
			}
			payload.Dependencies[name] = "up"
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
