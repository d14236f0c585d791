package route

import (
	"github.com/gofiber/fiber/v2"

	participantController "marathon_backend/internals/features/events/participants/controller"
	rateLimiter "marathon_backend/internals/middlewares"
)

// UserParticipantRoutes: r = /api/participants, already behind AuthMiddleware
func UserParticipantRoutes(r fiber.Router, h *participantController.ParticipantController) {
	r.Post("/register", rateLimiter.RegisterRateLimiter(), h.Register)
	r.Get("/mine", h.Mine)
	r.Get("/:id", h.Get)
}
