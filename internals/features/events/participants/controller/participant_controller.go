package controller

import (
	"github.com/gofiber/fiber/v2"

	dto "marathon_backend/internals/features/events/participants/dto"
	"marathon_backend/internals/features/events/participants/service"
	helper "marathon_backend/internals/helpers"
)

type ParticipantController struct {
	Svc *service.RegistrationService
}

func NewParticipantController(svc *service.RegistrationService) *ParticipantController {
	return &ParticipantController{Svc: svc}
}

// POST /api/participants/register
func (h *ParticipantController) Register(c *fiber.Ctx) error {
	userID, err := helper.GetUserID(c)
	if err != nil {
		return err
	}
	var req dto.BulkRegisterRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	rows, err := h.Svc.Register(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "participants registered", dto.FromModels(rows))
}

// GET /api/participants/mine
func (h *ParticipantController) Mine(c *fiber.Ctx) error {
	userID, err := helper.GetUserID(c)
	if err != nil {
		return err
	}
	rows, err := h.Svc.Mine(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return helper.JsonList(c, "participants", dto.FromModels(rows), nil)
}

// GET /api/participants/:id
func (h *ParticipantController) Get(c *fiber.Ctx) error {
	userID, err := helper.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return helper.Validation("invalid participant id")
	}
	p, err := h.Svc.Get(c.UserContext(), userID, uint(id))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "participant", dto.FromModel(p))
}
