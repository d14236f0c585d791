package controller

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	marathonModel "marathon_backend/internals/features/events/marathons/model"
	dto "marathon_backend/internals/features/events/results/dto"
	model "marathon_backend/internals/features/events/results/model"
	helper "marathon_backend/internals/helpers"
)

const maxPhotoBytes = 8 << 20

type ResultController struct {
	DB        *gorm.DB
	UploadDir string
	Log       *zap.Logger
}

func NewResultController(db *gorm.DB, uploadDir string, log *zap.Logger) *ResultController {
	return &ResultController{DB: db, UploadDir: uploadDir, Log: log.Named("results")}
}

// GET /api/results?marathonId=&category=&gender=&position=
func (h *ResultController) List(c *fiber.Ctx) error {
	q := h.DB.WithContext(c.UserContext()).Preload("Marathon")
	if id := c.QueryInt("marathonId"); id > 0 {
		q = q.Where("result_marathon_id = ?", id)
	}
	for param, col := range map[string]string{
		"category": "result_category",
		"gender":   "result_gender",
		"position": "result_position",
	} {
		if v := strings.TrimSpace(c.Query(param)); v != "" {
			q = q.Where(col+" = ?", v)
		}
	}
	var rows []model.ResultModel
	if err := q.Order("result_marathon_id ASC, result_category ASC, result_gender ASC, result_position ASC").
		Find(&rows).Error; err != nil {
		return err
	}
	return helper.JsonList(c, "results", rows, nil)
}

// GET /api/results/:id
func (h *ResultController) Get(c *fiber.Ctx) error {
	r, err := h.find(c, true)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "result", r)
}

// POST /api/admin/results
func (h *ResultController) Create(c *fiber.Ctx) error {
	var req dto.ResultRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.ensureMarathons(c, req.MarathonID); err != nil {
		return err
	}
	m := req.ToModel()
	if err := h.DB.WithContext(c.UserContext()).Omit("Marathon").Create(m).Error; err != nil {
		return err
	}
	return helper.JsonCreated(c, "result created", m)
}

// POST /api/admin/results/bulk
func (h *ResultController) BulkCreate(c *fiber.Ctx) error {
	var req dto.BulkResultRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	ids := make([]uint, 0, len(req.Results))
	rows := make([]*model.ResultModel, 0, len(req.Results))
	for _, r := range req.Results {
		ids = append(ids, r.MarathonID)
		rows = append(rows, r.ToModel())
	}
	if err := h.ensureMarathons(c, ids...); err != nil {
		return err
	}
	if err := h.DB.WithContext(c.UserContext()).Omit("Marathon").CreateInBatches(rows, 100).Error; err != nil {
		return err
	}
	return helper.JsonCreated(c, "results created", rows)
}

// PUT /api/admin/results/:id
func (h *ResultController) Update(c *fiber.Ctx) error {
	r, err := h.find(c, false)
	if err != nil {
		return err
	}
	var req dto.UpdateResultRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	if u := req.Updates(); len(u) > 0 {
		if err := h.DB.WithContext(c.UserContext()).Model(r).Updates(u).Error; err != nil {
			return err
		}
	}
	if err := h.DB.WithContext(c.UserContext()).First(r, r.ResultID).Error; err != nil {
		return err
	}
	return helper.JsonUpdated(c, "result updated", r)
}

// DELETE /api/admin/results/:id
func (h *ResultController) Delete(c *fiber.Ctx) error {
	r, err := h.find(c, false)
	if err != nil {
		return err
	}
	if err := h.DB.WithContext(c.UserContext()).Delete(r).Error; err != nil {
		return err
	}
	if r.ResultImage != nil {
		if err := helper.RemoveUpload(h.UploadDir, *r.ResultImage); err != nil {
			h.Log.Warn("remove result photo failed", zap.Error(err))
		}
	}
	return helper.JsonDeleted(c, "result deleted", fiber.Map{"result_id": r.ResultID})
}

// POST /api/admin/results/:id/photo  (multipart field "image")
func (h *ResultController) UploadPhoto(c *fiber.Ctx) error {
	r, err := h.find(c, false)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return helper.Validation("image file is required")
	}
	if fh.Size > maxPhotoBytes {
		return helper.Validation("image must be at most 8MB")
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	webpData, err := helper.ConvertToWebP(data, fh.Filename, helper.DefaultWebPOptions)
	if err != nil {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "unsupported image format (use jpg/png/webp)")
	}
	rel, err := helper.SaveUpload(h.UploadDir, "results", ".webp", webpData)
	if err != nil {
		return err
	}

	old := r.ResultImage
	if err := h.DB.WithContext(c.UserContext()).Model(r).Update("result_image", rel).Error; err != nil {
		_ = helper.RemoveUpload(h.UploadDir, rel)
		return err
	}
	if old != nil {
		if err := helper.RemoveUpload(h.UploadDir, *old); err != nil {
			h.Log.Warn("remove old result photo failed", zap.Error(err))
		}
	}
	r.ResultImage = &rel
	return helper.JsonUpdated(c, "photo uploaded", fiber.Map{
		"result_id": r.ResultID,
		"image":     rel,
		"url":       "/uploads/" + rel,
	})
}

func (h *ResultController) find(c *fiber.Ctx, withMarathon bool) (*model.ResultModel, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, helper.Validation("invalid result id")
	}
	q := h.DB.WithContext(c.UserContext())
	if withMarathon {
		q = q.Preload("Marathon")
	}
	var r model.ResultModel
	if err := q.First(&r, "result_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NotFound("result %d not found", id)
		}
		return nil, err
	}
	return &r, nil
}

func (h *ResultController) ensureMarathons(c *fiber.Ctx, ids ...uint) error {
	uniq := map[uint]struct{}{}
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	want := make([]uint, 0, len(uniq))
	for id := range uniq {
		want = append(want, id)
	}
	var found int64
	if err := h.DB.WithContext(c.UserContext()).Model(&marathonModel.MarathonModel{}).
		Where("marathon_id IN ?", want).Count(&found).Error; err != nil {
		return err
	}
	if int(found) != len(want) {
		return helper.NotFound("marathon not found")
	}
	return nil
}
