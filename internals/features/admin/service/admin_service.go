package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dto "marathon_backend/internals/features/admin/dto"
	participantModel "marathon_backend/internals/features/events/participants/model"
	paymentModel "marathon_backend/internals/features/finance/payments/model"
	helper "marathon_backend/internals/helpers"
)

// SheetWriter is the spreadsheet side of the export.
type SheetWriter interface {
	SpreadsheetID() string
	Replace(ctx context.Context, header []interface{}, rows [][]interface{}) (string, error)
}

type AdminService struct {
	db    *gorm.DB
	sheet SheetWriter
	log   *zap.Logger
}

// NewAdminService: sheet may be nil when the export is not configured.
func NewAdminService(db *gorm.DB, sheet SheetWriter, log *zap.Logger) *AdminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{db: db, sheet: sheet, log: log.Named("admin")}
}

func (s *AdminService) filtered(ctx context.Context, f dto.ParticipantFilter) *gorm.DB {
	q := s.db.WithContext(ctx).
		Model(&participantModel.ParticipantModel{}).
		Joins("JOIN participant_details pd ON pd.participant_details_id = participants.participant_details_id").
		Joins("JOIN marathons m ON m.marathon_id = participants.participant_marathon_id")

	if len(f.MarathonIDs) > 0 {
		q = q.Where("participants.participant_marathon_id = ANY(?)", pq.Array(f.MarathonIDs))
	}
	if len(f.MarathonTypes) > 0 {
		q = q.Where("participants.participant_marathon_type = ANY(?)", pq.Array(f.MarathonTypes))
	}
	if len(f.Genders) > 0 {
		q = q.Where("pd.participant_details_gender = ANY(?)", pq.Array(f.Genders))
	}
	if len(f.Cities) > 0 {
		q = q.Where("pd.participant_details_city = ANY(?)", pq.Array(f.Cities))
	}
	if len(f.States) > 0 {
		q = q.Where("pd.participant_details_state = ANY(?)", pq.Array(f.States))
	}
	if len(f.TshirtSizes) > 0 {
		q = q.Where("pd.participant_details_tshirt_size = ANY(?)", pq.Array(f.TshirtSizes))
	}
	if f.MarathonName != "" {
		q = q.Where("m.marathon_name ILIKE ?", "%"+f.MarathonName+"%")
	}
	if f.IsPaymentCompleted != nil {
		q = q.Where("participants.participant_is_payment_completed = ?", *f.IsPaymentCompleted)
	}
	return q
}

func (s *AdminService) ListParticipants(ctx context.Context, f dto.ParticipantFilter, p helper.Paging) ([]participantModel.ParticipantModel, int64, error) {
	var total int64
	if err := s.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []participantModel.ParticipantModel
	err := s.filtered(ctx, f).
		Select("participants.*").
		Preload("Details").
		Preload("Marathon").
		Order("participants.participant_id DESC").
		Offset(p.Offset).
		Limit(p.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// TshirtSizeReport counts paid participants per size; every size is present, zero or not.
func (s *AdminService) TshirtSizeReport(ctx context.Context, marathonID uint) ([]dto.TshirtSizeCount, error) {
	q := s.db.WithContext(ctx).
		Table("participants").
		Select("pd.participant_details_tshirt_size AS tshirt_size, COUNT(*) AS total").
		Joins("JOIN participant_details pd ON pd.participant_details_id = participants.participant_details_id").
		Where("participants.participant_is_payment_completed = ?", true)
	if marathonID > 0 {
		q = q.Where("participants.participant_marathon_id = ?", marathonID)
	}
	var counted []dto.TshirtSizeCount
	if err := q.Group("pd.participant_details_tshirt_size").Scan(&counted).Error; err != nil {
		return nil, err
	}

	bySize := make(map[string]int64, len(counted))
	for _, c := range counted {
		bySize[c.TshirtSize] = c.Total
	}
	out := make([]dto.TshirtSizeCount, 0, len(participantModel.TshirtSizes))
	for _, size := range participantModel.TshirtSizes {
		out = append(out, dto.TshirtSizeCount{TshirtSize: string(size), Total: bySize[string(size)]})
	}
	return out, nil
}

func (s *AdminService) PaymentStats(ctx context.Context, marathonID uint) (dto.PaymentStats, error) {
	var st dto.PaymentStats

	cq := s.db.WithContext(ctx).Table("participants").
		Select(`COUNT(*) AS total_participants,
			COUNT(*) FILTER (WHERE participant_is_payment_completed) AS paid_participants`)
	if marathonID > 0 {
		cq = cq.Where("participant_marathon_id = ?", marathonID)
	}
	if err := cq.Scan(&st).Error; err != nil {
		return st, err
	}
	st.PendingParticipants = st.TotalParticipants - st.PaidParticipants

	rq := s.db.WithContext(ctx).Table("payments").
		Select("COALESCE(SUM(payments.payment_amount_minor), 0)").
		Where("payments.payment_status = ?", paymentModel.PaymentStatusSuccess)
	if marathonID > 0 {
		rq = rq.Joins("JOIN participants ON participants.participant_id = payments.payment_participant_id").
			Where("participants.participant_marathon_id = ?", marathonID)
	}
	if err := rq.Scan(&st.RevenueMinor).Error; err != nil {
		return st, err
	}
	st.Revenue = helper.FormatMinor(st.RevenueMinor)
	return st, nil
}

// DeleteParticipant removes the participant, its details and (by cascade) its payment rows.
// A bib held by the participant becomes free for the next allocation.
func (s *AdminService) DeleteParticipant(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p participantModel.ParticipantModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "participant_id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.NotFound("participant %d not found", id)
		}
		if err != nil {
			return err
		}

		if err := tx.Delete(&participantModel.ParticipantModel{}, "participant_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&participantModel.ParticipantDetailsModel{}, "participant_details_id = ?", p.ParticipantDetailsID).Error; err != nil {
			return err
		}

		fields := []zap.Field{zap.Uint("participant_id", id)}
		if p.HasBib() {
			fields = append(fields, zap.String("released_bib", *p.ParticipantBibNumber))
		}
		s.log.Info("participant deleted", fields...)
		return nil
	})
}

var exportHeader = []interface{}{
	"Participant ID", "Bib", "Marathon", "Category", "Full Name", "Email", "Contact",
	"Gender", "Age", "City", "State", "T-Shirt", "Blood Group", "Running Group", "Registered At",
}

// ExportPaidToSheet replaces the configured tab with all paid participants.
func (s *AdminService) ExportPaidToSheet(ctx context.Context) (dto.ExportResult, error) {
	if s.sheet == nil {
		return dto.ExportResult{}, helper.Conflict("SHEETS_NOT_CONFIGURED", "google sheets export is not configured")
	}

	var paid []participantModel.ParticipantModel
	err := s.db.WithContext(ctx).
		Preload("Details").
		Preload("Marathon").
		Where("participant_is_payment_completed = ?", true).
		Order("participant_marathon_id ASC, participant_bib_number ASC").
		Find(&paid).Error
	if err != nil {
		return dto.ExportResult{}, err
	}

	rows := make([][]interface{}, 0, len(paid))
	for i := range paid {
		rows = append(rows, exportRow(&paid[i]))
	}
	rng, err := s.sheet.Replace(ctx, exportHeader, rows)
	if err != nil {
		return dto.ExportResult{}, helper.Upstream("google sheets export failed", err)
	}
	s.log.Info("sheets export done", zap.Int("rows", len(rows)), zap.String("range", rng))
	return dto.ExportResult{SpreadsheetID: s.sheet.SpreadsheetID(), Range: rng, Rows: len(rows)}, nil
}

func exportRow(p *participantModel.ParticipantModel) []interface{} {
	row := []interface{}{strconv.FormatUint(uint64(p.ParticipantID), 10), str(p.ParticipantBibNumber), "", string(p.ParticipantMarathonType)}
	if p.Marathon != nil {
		row[2] = p.Marathon.MarathonName
	}
	d := p.Details
	if d == nil {
		d = &participantModel.ParticipantDetailsModel{}
	}
	age := ""
	if d.ParticipantDetailsAge != nil {
		age = strconv.Itoa(*d.ParticipantDetailsAge)
	}
	return append(row,
		d.ParticipantDetailsFullName,
		str(d.ParticipantDetailsEmail),
		d.ParticipantDetailsContactNumber,
		string(d.ParticipantDetailsGender),
		age,
		str(d.ParticipantDetailsCity),
		str(d.ParticipantDetailsState),
		string(d.ParticipantDetailsTshirtSize),
		str(d.ParticipantDetailsBloodGroup),
		str(d.ParticipantDetailsRunningGroup),
		p.ParticipantCreatedAt.Format(time.RFC3339),
	)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
