package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "marathon_backend/internals/helpers"
)

func newLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// Global limiter for ordinary endpoints.
func GlobalRateLimiter() fiber.Handler {
	return newLimiter(100, 1*time.Minute, "too many requests, try again later")
}

// OTP send: strict, each hit costs a paid message
func OTPRateLimiter() fiber.Handler {
	return newLimiter(3, 5*time.Minute, "too many code requests, wait a few minutes")
}

// Login and OTP verification
func LoginRateLimiter() fiber.Handler {
	return newLimiter(5, 1*time.Minute, "too many login attempts, try again shortly")
}

// Registration and order creation
func RegisterRateLimiter() fiber.Handler {
	return newLimiter(10, 1*time.Minute, "too many registrations, slow down")
}
