package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireUser ensures an authenticated account of any role.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}

// RequireScanner ensures the caller may operate a check-in station.
func RequireScanner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.User.CanScan() {
			return fiber.NewError(http.StatusForbidden, "staff role required")
		}
		return c.Next()
	}
}
