package auth

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marathon_backend/internals/configs"
	authRepo "marathon_backend/internals/features/users/auth/repository"
	authService "marathon_backend/internals/features/users/auth/service"
	helper "marathon_backend/internals/helpers"
)

// AuthMiddleware requires a valid access token that has not been revoked.
// Sets Locals user_id (uint) and role.
func AuthMiddleware(secret string, db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, secret, db, log); err != nil {
			return err
		}
		return c.Next()
	}
}

// AdminMiddleware accepts an admin JWT, or Basic auth with ADMIN_MOBILE:ADMIN_PASSWORD.
func AdminMiddleware(cfg configs.AuthConfig, db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, pass, ok := basicCredentials(c.Get(fiber.HeaderAuthorization)); ok {
			if cfg.AdminMobile == "" || cfg.AdminPassword == "" ||
				!authService.CheckAdminCredentials(cfg, user, pass) {
				return helper.Unauthorized("invalid admin credentials")
			}
			c.Locals(helper.LocalsRole, helper.RoleAdmin)
			return c.Next()
		}
		if err := authenticate(c, cfg.JWTSecret, db, log); err != nil {
			return err
		}
		if !helper.IsAdmin(c) {
			return helper.Forbidden("admin access required")
		}
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, secret string, db *gorm.DB, log *zap.Logger) error {
	raw := helper.GetRawAccessToken(c)
	if raw == "" {
		return helper.Unauthorized("authentication required")
	}

	claims, err := helper.ParseToken(secret, raw)
	if err != nil {
		return helper.Unauthorized("invalid or expired token")
	}

	if db != nil && c.Locals("token_checked") == nil {
		revoked, err := authRepo.IsTokenBlacklisted(c.UserContext(), db, raw)
		if err != nil {
			log.Error("blacklist lookup failed", zap.Error(err))
			return err
		}
		if revoked {
			return helper.Unauthorized("token has been revoked")
		}
		c.Locals("token_checked", true)
	}

	if helper.ClaimRole(claims) == helper.RoleAdmin {
		c.Locals(helper.LocalsRole, helper.RoleAdmin)
		return nil
	}
	userID, err := helper.ClaimUserID(claims)
	if err != nil || userID == 0 {
		return helper.Unauthorized("invalid token subject")
	}
	c.Locals(helper.LocalsUserID, userID)
	c.Locals(helper.LocalsRole, helper.RoleUser)
	return nil
}

func basicCredentials(header string) (string, string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Basic") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return "", "", false
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	return user, pass, ok
}
