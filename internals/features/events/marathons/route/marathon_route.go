package route

import (
	"github.com/gofiber/fiber/v2"

	marathonController "marathon_backend/internals/features/events/marathons/controller"
)

// PublicMarathonRoutes: r = /api/marathons
func PublicMarathonRoutes(r fiber.Router, h *marathonController.MarathonController) {
	r.Get("/", h.List)
	r.Get("/:id", h.Get)
}

// AdminMarathonRoutes: r = /api/admin
func AdminMarathonRoutes(r fiber.Router, h *marathonController.MarathonController) {
	g := r.Group("/marathons")
	g.Post("/", h.Create)
	g.Put("/:id", h.Update)
	g.Delete("/:id", h.Delete)
}
