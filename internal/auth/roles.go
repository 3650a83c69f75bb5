package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequirePermission ensures the caller's role holds perm.
func RequirePermission(perms *Permissions, perm Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !perms.Has(principal.Role(), perm) {
			return apperrors.NewForbidden("insufficient permissions")
		}
		return c.Next()
	}
}
