package auth

import (
	"github.com/gofiber/fiber/v2"

	helper "marathon_backend/internals/helpers"
)

// RoleMiddlewareWithCustomError rejects roles outside allowedRoles with the given message.
// Must run after AuthMiddleware or AdminMiddleware.
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(helper.LocalsRole).(string)
		if !ok {
			return helper.Unauthorized("missing role information")
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		if customForbiddenMessage == "" {
			customForbiddenMessage = "you are not authorized to access this resource"
		}
		return helper.Forbidden(customForbiddenMessage)
	}
}

func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}
