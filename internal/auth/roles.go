package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/Ignatius32/asistencia-informatica-crub/pkg/util"
)

// RequireUser ensures a requester account is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok || actor.User == nil {
			return apperrors.NewForbidden("user account required")
		}
		return c.Next()
	}
}

// RequireTechnician ensures a technician is authenticated.
func RequireTechnician() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok || actor.Technician == nil {
			return apperrors.NewForbidden("technician account required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures an administrator is authenticated.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok || !actor.IsAdmin() {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}

// RequireAdminOrChief ensures the actor manages areas: either an
// administrator or an area chief.
func RequireAdminOrChief() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok || (!actor.IsAdmin() && !actor.IsChief()) {
			return apperrors.NewForbidden("admin or area chief required")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures the caller is authenticated (user or technician).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ActorFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
