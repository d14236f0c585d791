package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	dto "marathon_backend/internals/features/events/marathons/dto"
	model "marathon_backend/internals/features/events/marathons/model"
	helper "marathon_backend/internals/helpers"
)

type MarathonController struct {
	DB *gorm.DB
}

func NewMarathonController(db *gorm.DB) *MarathonController {
	return &MarathonController{DB: db}
}

/* =======================================================================
   Public
======================================================================= */

// GET /api/marathons?date=YYYY-MM-DD&location=&q=&page=&per_page=
func (h *MarathonController) List(c *fiber.Ctx) error {
	q := h.DB.WithContext(c.UserContext()).Model(&model.MarathonModel{})

	if d := strings.TrimSpace(c.Query("date")); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			return helper.Validation("date must be YYYY-MM-DD")
		}
		q = q.Where("marathon_date = ?", day)
	}
	if loc := strings.TrimSpace(c.Query("location")); loc != "" {
		q = q.Where("marathon_location ILIKE ?", "%"+loc+"%")
	}
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		q = q.Where("marathon_name ILIKE ?", "%"+s+"%")
	}

	p := helper.ResolvePaging(c, 20, 100)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return err
	}
	var rows []model.MarathonModel
	if err := q.Order("marathon_date ASC NULLS LAST, marathon_id ASC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return err
	}

	out := make([]dto.MarathonResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromModel(&rows[i]))
	}
	pg := helper.BuildPagination(total, p, len(out))
	return helper.JsonList(c, "marathons", out, &pg)
}

// GET /api/marathons/:id
func (h *MarathonController) Get(c *fiber.Ctx) error {
	m, err := h.find(c)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "marathon", dto.FromModel(m))
}

/* =======================================================================
   Admin
======================================================================= */

// POST /api/admin/marathons
func (h *MarathonController) Create(c *fiber.Ctx) error {
	var req dto.CreateMarathonRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	m, err := req.ToModel()
	if err != nil {
		return err
	}
	if err := h.DB.WithContext(c.UserContext()).Create(m).Error; err != nil {
		return err
	}
	return helper.JsonCreated(c, "marathon created", dto.FromModel(m))
}

// PUT /api/admin/marathons/:id
func (h *MarathonController) Update(c *fiber.Ctx) error {
	m, err := h.find(c)
	if err != nil {
		return err
	}
	var req dto.UpdateMarathonRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	updates, err := req.Updates()
	if err != nil {
		return err
	}
	if len(updates) > 0 {
		if err := h.DB.WithContext(c.UserContext()).Model(m).Updates(updates).Error; err != nil {
			return err
		}
	}
	if err := h.DB.WithContext(c.UserContext()).First(m, m.MarathonID).Error; err != nil {
		return err
	}
	return helper.JsonUpdated(c, "marathon updated", dto.FromModel(m))
}

// DELETE /api/admin/marathons/:id
// Marathons with participants cannot be removed (FK RESTRICT).
func (h *MarathonController) Delete(c *fiber.Ctx) error {
	m, err := h.find(c)
	if err != nil {
		return err
	}
	if err := h.DB.WithContext(c.UserContext()).Delete(m).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return helper.Conflict("MARATHON_IN_USE", "marathon %d still has participants", m.MarathonID)
		}
		return err
	}
	return helper.JsonDeleted(c, "marathon deleted", fiber.Map{"marathon_id": m.MarathonID})
}

func (h *MarathonController) find(c *fiber.Ctx) (*model.MarathonModel, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, helper.Validation("invalid marathon id")
	}
	var m model.MarathonModel
	if err := h.DB.WithContext(c.UserContext()).First(&m, "marathon_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NotFound("marathon %d not found", id)
		}
		return nil, err
	}
	return &m, nil
}
