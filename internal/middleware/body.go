package middleware

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/rollcall-api/internal/utils"
)

// JSONBody rejects malformed JSON payloads on write requests before they
// reach a handler. Multipart and empty bodies pass through.
func JSONBody() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return c.Next()
		}

		body := bytes.TrimSpace(c.Body())
		if len(body) == 0 || !c.Is("json") {
			return c.Next()
		}
		if !json.Valid(body) {
			return utils.Fail(c, fiber.StatusBadRequest, "Invalid JSON format in payload", nil)
		}
		return c.Next()
	}
}
