package route

import (
	"github.com/gofiber/fiber/v2"

	controller "marathon_backend/internals/features/users/auth/controller"
	rateLimiter "marathon_backend/internals/middlewares"
)

// AuthRoutes: r = /api/auth
func AuthRoutes(r fiber.Router, ac *controller.AuthController, auth fiber.Handler) {
	r.Post("/send-otp", rateLimiter.OTPRateLimiter(), ac.SendOTP)
	r.Post("/verify-otp", rateLimiter.LoginRateLimiter(), ac.VerifyOTP)
	r.Post("/admin/login", rateLimiter.LoginRateLimiter(), ac.AdminLogin)

	r.Get("/me", auth, ac.Me)
	r.Post("/logout", auth, ac.Logout)
}
