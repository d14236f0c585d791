package controller

import (
	"github.com/gofiber/fiber/v2"

	dto "marathon_backend/internals/features/admin/dto"
	service "marathon_backend/internals/features/admin/service"
	participantDTO "marathon_backend/internals/features/events/participants/dto"
	helper "marathon_backend/internals/helpers"
)

type AdminController struct {
	Svc *service.AdminService
}

func NewAdminController(svc *service.AdminService) *AdminController {
	return &AdminController{Svc: svc}
}

// GET /api/admin/participants
func (h *AdminController) ListParticipants(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 200)
	rows, total, err := h.Svc.ListParticipants(c.UserContext(), dto.ParseParticipantFilter(c), p)
	if err != nil {
		return err
	}
	pg := helper.BuildPagination(total, p, len(rows))
	return helper.JsonList(c, "participants", participantDTO.FromModels(rows), &pg)
}

// DELETE /api/admin/participants/:id
func (h *AdminController) DeleteParticipant(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return helper.Validation("invalid participant id")
	}
	if err := h.Svc.DeleteParticipant(c.UserContext(), uint(id)); err != nil {
		return err
	}
	return helper.JsonDeleted(c, "participant deleted", fiber.Map{"participant_id": id})
}

// GET /api/admin/reports/tshirt-sizes?marathonId=
func (h *AdminController) TshirtSizes(c *fiber.Ctx) error {
	out, err := h.Svc.TshirtSizeReport(c.UserContext(), marathonID(c))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "tshirt sizes", out)
}

// GET /api/admin/reports/payments?marathonId=
func (h *AdminController) PaymentStats(c *fiber.Ctx) error {
	out, err := h.Svc.PaymentStats(c.UserContext(), marathonID(c))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "payment stats", out)
}

// POST /api/admin/exports/sheets
func (h *AdminController) ExportSheets(c *fiber.Ctx) error {
	out, err := h.Svc.ExportPaidToSheet(c.UserContext())
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "exported", out)
}

func marathonID(c *fiber.Ctx) uint {
	if id := c.QueryInt("marathonId"); id > 0 {
		return uint(id)
	}
	return 0
}
