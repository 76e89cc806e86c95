package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/config"
	"github.com/noah-isme/rollcall-api/internal/handler"
	"github.com/noah-isme/rollcall-api/internal/middleware"
	"github.com/noah-isme/rollcall-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	ClassHandler      *handler.ClassHandler
	AttendanceHandler *handler.AttendanceHandler
	PostHandler       *handler.PostHandler
	MarkHandler       *handler.MarkHandler
	ActivityHandler   *handler.ActivityHandler
	Tokens            *auth.TokenManager
	Health            fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	health := deps.Health
	if health == nil {
		health = handler.HealthCheck(cfg, nil, nil)
	}
	app.Get("/health", health)
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", health)

	guards := handler.Guards{
		Faculty: middleware.RequireRole(auth.RoleFaculty),
		Student: middleware.RequireStudent(),
	}
	if deps.Tokens != nil {
		guards.Session = middleware.Session(middleware.SessionConfig{
			Tokens:       deps.Tokens,
			SecureCookie: cfg.SecureCookies(),
		})
	}
	if cfg.SigninRateLimit > 0 {
		guards.Signin = middleware.RateLimit("signin", cfg.SigninRateLimit, time.Minute)
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api, guards)
	}
	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(api, guards)
	}
	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(api, guards)
	}
	if deps.PostHandler != nil {
		deps.PostHandler.Register(api, guards)
	}
	if deps.MarkHandler != nil {
		deps.MarkHandler.Register(api, guards)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api, guards)
	}
}
