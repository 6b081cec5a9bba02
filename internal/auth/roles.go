package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/authz"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// RequirePermission gates a route on the access-control policy.
func RequirePermission(action authz.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !authz.Can(principal.Role, action) {
			return apperrors.NewForbidden("insufficient permissions")
		}
		return c.Next()
	}
}
