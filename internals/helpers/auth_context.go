package helper

import (
	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middlewares.
const (
	LocalsUserID = "user_id"
	LocalsRole   = "role"
)

func GetUserID(c *fiber.Ctx) (uint, error) {
	switch v := c.Locals(LocalsUserID).(type) {
	case uint:
		if v > 0 {
			return v, nil
		}
	}
	return 0, Unauthorized("authentication required")
}

func IsAdmin(c *fiber.Ctx) bool {
	r, _ := c.Locals(LocalsRole).(string)
	return r == RoleAdmin
}
