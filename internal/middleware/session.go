package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "jwt"

const principalKey = "principal"

// SessionConfig configures the session guard.
type SessionConfig struct {
	Tokens       *auth.TokenManager
	SecureCookie bool
}

// Session authenticates the request from the jwt cookie, falling back to a
// bearer token when the cookie is absent or fails to verify. A cookie that
// does not verify is cleared; without a valid token the request ends with 401.
func Session(cfg SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			principal auth.Principal
			err       = auth.ErrUnauthorized
		)
		cookie := strings.TrimSpace(c.Cookies(SessionCookie))
		if cookie != "" {
			principal, err = cfg.Tokens.Verify(cookie)
			if err != nil {
				ClearSessionCookie(c, cfg.SecureCookie)
			}
		}
		if err != nil {
			if token := bearerToken(c); token != "" {
				principal, err = cfg.Tokens.Verify(token)
			}
		}
		if err != nil {
			if cookie == "" {
				ClearSessionCookie(c, cfg.SecureCookie)
			}
			return utils.Fail(c, fiber.StatusUnauthorized, "unauthorized, sign in again", nil)
		}

		c.Locals(principalKey, principal)
		c.Locals("user_id", principal.ID)
		c.Locals("user_role", string(principal.Role))
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	const bearer = "bearer "
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(authorization) > len(bearer) && strings.EqualFold(authorization[:len(bearer)], bearer) {
		return strings.TrimSpace(authorization[len(bearer):])
	}
	return ""
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(c *fiber.Ctx) (auth.Principal, bool) {
	if c == nil {
		return auth.Principal{}, false
	}
	principal, ok := c.Locals(principalKey).(auth.Principal)
	if !ok || !principal.Valid() {
		return auth.Principal{}, false
	}
	return principal, true
}

// SetSessionCookie stores the session token as an httpOnly strict cookie.
func SetSessionCookie(c *fiber.Ctx, token string, expiresAt time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
