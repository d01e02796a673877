package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "user"

// AuthMiddleware creates a middleware that validates bearer tokens
func AuthMiddleware(verifier *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
				"code":  "unauthorized",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format. Use: Bearer <token>",
				"code":  "unauthorized",
			})
		}

		principal, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
				"code":  "unauthorized",
			})
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// Anonymous lets every request through as the given principal. Used when no
// JWT secret is configured.
func Anonymous(p Principal) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := p
		c.Locals(principalKey, &principal)
		return c.Next()
	}
}

// RequireRole creates a middleware that checks if user has required role
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := CurrentUser(c)
		if principal == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
				"code":  "unauthorized",
			})
		}

		for _, role := range roles {
			if principal.Role == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
			"code":  "forbidden",
		})
	}
}

// CurrentUser returns the principal stored by the auth middleware
func CurrentUser(c *fiber.Ctx) *Principal {
	principal, _ := c.Locals(principalKey).(*Principal)
	return principal
}
