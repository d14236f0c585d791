package route

import (
	"github.com/gofiber/fiber/v2"

	adminController "marathon_backend/internals/features/admin/controller"
)

// AdminRoutes: r = /api/admin (already behind AdminMiddleware)
func AdminRoutes(r fiber.Router, h *adminController.AdminController) {
	r.Get("/participants", h.ListParticipants)
	r.Delete("/participants/:id", h.DeleteParticipant)

	reports := r.Group("/reports")
	reports.Get("/tshirt-sizes", h.TshirtSizes)
	reports.Get("/payments", h.PaymentStats)

	r.Post("/exports/sheets", h.ExportSheets)
}
