package auth

import (
	"encoding/base64"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"marathon_backend/internals/configs"
	helper "marathon_backend/internals/helpers"
)

const secret = "test-secret"

func token(t *testing.T, userID uint, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := helper.IssueToken(secret, userID, role, ttl)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func do(t *testing.T, app *fiber.App, auth string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	log := zaptest.NewLogger(t)
	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler(log)})
	var seen uint
	app.Get("/", AuthMiddleware(secret, nil, log), OnlyRoles("", helper.RoleUser), func(c *fiber.Ctx) error {
		id, err := helper.GetUserID(c)
		if err != nil {
			return err
		}
		seen = id
		return c.SendStatus(fiber.StatusNoContent)
	})

	cases := []struct {
		name string
		auth string
		want int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", fiber.StatusUnauthorized},
		{"expired", "Bearer " + token(t, 5, helper.RoleUser, -time.Minute), fiber.StatusUnauthorized},
		{"admin on user route", "Bearer " + token(t, 0, helper.RoleAdmin, time.Hour), fiber.StatusForbidden},
		{"user", "Bearer " + token(t, 5, helper.RoleUser, time.Hour), fiber.StatusNoContent},
	}
	for _, c := range cases {
		if got := do(t, app, c.auth); got != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, got, c.want)
		}
	}
	if seen != 5 {
		t.Fatalf("user id in locals = %d, want 5", seen)
	}
}

func TestAdminMiddleware(t *testing.T) {
	log := zaptest.NewLogger(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := configs.AuthConfig{JWTSecret: secret, AdminMobile: "9000000000", AdminPassword: string(hash)}

	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler(log)})
	app.Get("/", AdminMiddleware(cfg, nil, log), func(c *fiber.Ctx) error {
		if !helper.IsAdmin(c) {
			return fiber.ErrTeapot
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	cases := []struct {
		name string
		auth string
		want int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"basic ok", basic("9000000000", "letmein"), fiber.StatusNoContent},
		{"basic wrong password", basic("9000000000", "nope"), fiber.StatusUnauthorized},
		{"basic wrong mobile", basic("9111111111", "letmein"), fiber.StatusUnauthorized},
		{"admin jwt", "Bearer " + token(t, 0, helper.RoleAdmin, time.Hour), fiber.StatusNoContent},
		{"user jwt", "Bearer " + token(t, 3, helper.RoleUser, time.Hour), fiber.StatusForbidden},
	}
	for _, c := range cases {
		if got := do(t, app, c.auth); got != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestAdminBasicDisabledWithoutCredentials(t *testing.T) {
	log := zaptest.NewLogger(t)
	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler(log)})
	app.Get("/", AdminMiddleware(configs.AuthConfig{JWTSecret: secret}, nil, log), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	if got := do(t, app, basic("", "")); got != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", got)
	}
}
