package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

// RequireRole lets the request through only when the session role is one of
// roles. It must run after Session.
func RequireRole(roles ...auth.Role) fiber.Handler {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return utils.Fail(c, fiber.StatusUnauthorized, "unauthorized, sign in again", nil)
		}
		if _, ok := allowed[principal.Role]; !ok {
			return utils.Fail(c, fiber.StatusForbidden, auth.ErrForbidden.Error(), nil)
		}
		return c.Next()
	}
}

// RequireStudent allows students and incharges.
func RequireStudent() fiber.Handler {
	return RequireRole(auth.RoleStudent, auth.RoleIncharge)
}
