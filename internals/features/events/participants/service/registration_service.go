package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	marathonModel "marathon_backend/internals/features/events/marathons/model"
	dto "marathon_backend/internals/features/events/participants/dto"
	model "marathon_backend/internals/features/events/participants/model"
	helper "marathon_backend/internals/helpers"
)

type RegistrationService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewRegistrationService(db *gorm.DB, log *zap.Logger) *RegistrationService {
	return &RegistrationService{db: db, log: log.Named("registration"), now: time.Now}
}

// Register creates every participant in one transaction. Participants start unpaid and without a bib.
func (s *RegistrationService) Register(ctx context.Context, userID uint, req dto.BulkRegisterRequest) ([]model.ParticipantModel, error) {
	now := s.now()
	out := make([]model.ParticipantModel, 0, len(req.Registrations))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		marathons := map[uint]*marathonModel.MarathonModel{}
		for i, item := range req.Registrations {
			m, ok := marathons[item.MarathonID]
			if !ok {
				var row marathonModel.MarathonModel
				if err := tx.First(&row, "marathon_id = ?", item.MarathonID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return helper.NotFound("marathon %d not found", item.MarathonID)
					}
					return err
				}
				m = &row
				marathons[item.MarathonID] = m
			}

			details, err := item.Details.ToModel(now)
			if err != nil {
				if ae, ok := err.(*helper.AppError); ok {
					ae.Message = "registrations[" + strconv.Itoa(i) + "]: " + ae.Message
				}
				return err
			}
			if err := tx.Create(details).Error; err != nil {
				return err
			}

			p := model.ParticipantModel{
				ParticipantDetailsID:    details.ParticipantDetailsID,
				ParticipantMarathonID:   item.MarathonID,
				ParticipantMarathonType: model.MarathonType(item.MarathonType),
				ParticipantUserID:       userID,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			p.Details = details
			p.Marathon = m
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("participants registered", zap.Uint("user_id", userID), zap.Int("count", len(out)))
	return out, nil
}

func (s *RegistrationService) Mine(ctx context.Context, userID uint) ([]model.ParticipantModel, error) {
	var rows []model.ParticipantModel
	err := s.db.WithContext(ctx).
		Preload("Details").
		Preload("Marathon").
		Where("participant_user_id = ?", userID).
		Order("participant_id DESC").
		Find(&rows).Error
	return rows, err
}

// Get is owner-scoped; other users' participants look missing.
func (s *RegistrationService) Get(ctx context.Context, userID, participantID uint) (*model.ParticipantModel, error) {
	var p model.ParticipantModel
	err := s.db.WithContext(ctx).
		Preload("Details").
		Preload("Marathon").
		Where("participant_id = ? AND participant_user_id = ?", participantID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.NotFound("participant %d not found", participantID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
