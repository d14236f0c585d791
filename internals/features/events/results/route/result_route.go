package route

import (
	"github.com/gofiber/fiber/v2"

	resultController "marathon_backend/internals/features/events/results/controller"
)

// PublicResultRoutes: r = /api/results
func PublicResultRoutes(r fiber.Router, h *resultController.ResultController) {
	r.Get("/", h.List)
	r.Get("/:id", h.Get)
}

// AdminResultRoutes: r = /api/admin
func AdminResultRoutes(r fiber.Router, h *resultController.ResultController) {
	g := r.Group("/results")
	g.Post("/", h.Create)
	g.Post("/bulk", h.BulkCreate)
	g.Put("/:id", h.Update)
	g.Delete("/:id", h.Delete)
	g.Post("/:id/photo", h.UploadPhoto)
}
