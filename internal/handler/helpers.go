package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/middleware"
	"github.com/noah-isme/rollcall-api/internal/service"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

const (
	msgInvalidJSON        = "Invalid JSON format in payload"
	msgValidationFailed   = "validation failed"
	msgServiceUnavailable = "service unavailable, try again later"
)

// Guards are the middleware a handler mounts in front of its routes. Nil
// guards are skipped.
type Guards struct {
	Session fiber.Handler
	Faculty fiber.Handler
	Student fiber.Handler
	Signin  fiber.Handler
}

func chain(handlers ...fiber.Handler) []fiber.Handler {
	chained := make([]fiber.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			chained = append(chained, h)
		}
	}
	return chained
}

func principalFromContext(c *fiber.Ctx) auth.Principal {
	principal, _ := middleware.PrincipalFromContext(c)
	return principal
}

func parseIDParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, &service.ValidationError{Fields: map[string]string{key: "must be a positive integer"}}
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, &service.ValidationError{Fields: map[string]string{key: "must be a non-negative integer"}}
	}
	return parsed, nil
}

var errInvalidJSON = errors.New(msgInvalidJSON)

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidJSON
	}
	return nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError maps service errors onto the response envelope. Unexpected
// errors are logged and never echoed to the client.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	if errors.Is(err, errInvalidJSON) {
		return utils.Fail(c, fiber.StatusBadRequest, msgInvalidJSON, nil)
	}
	if details := utils.ValidationDetails(err); details != nil {
		return utils.Fail(c, fiber.StatusBadRequest, msgValidationFailed, details)
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return utils.Fail(c, fiber.StatusBadRequest, msgValidationFailed, validationErr.Fields)
	}

	switch {
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrPasswordChangeRequired):
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, auth.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, err.Error(), nil)
	case errors.Is(err, service.ErrClassNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrMarkNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrFacultyNotFound),
		errors.Is(err, service.ErrMemberNotFound):
		return utils.Fail(c, fiber.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrEmailTaken):
		return utils.Fail(c, fiber.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrDocumentTooLarge):
		return utils.Fail(c, fiber.StatusRequestEntityTooLarge, err.Error(), nil)
	case errors.Is(err, service.ErrDocumentTypeNotAllowed):
		return utils.Fail(c, fiber.StatusUnsupportedMediaType, err.Error(), nil)
	case errors.Is(err, service.ErrStorageUnavailable):
		return utils.Fail(c, fiber.StatusServiceUnavailable, err.Error(), nil)
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return utils.Fail(c, fiber.StatusServiceUnavailable, msgServiceUnavailable, nil)
}
