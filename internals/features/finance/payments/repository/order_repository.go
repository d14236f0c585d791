package repository

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	marathonModel "marathon_backend/internals/features/events/marathons/model"
	participantModel "marathon_backend/internals/features/events/participants/model"
	"marathon_backend/internals/features/finance/payments/bib"
	model "marathon_backend/internals/features/finance/payments/model"
)

// OrderStore is the durable record of payment orders.
type OrderStore interface {
	// LoadOrder returns every line of the order with participant, details and marathon.
	LoadOrder(ctx context.Context, orderID string) ([]model.Payment, error)
	// InTx runs fn in one transaction; any error rolls everything back.
	InTx(ctx context.Context, fn func(tx OrderTx) error) error
	MarkNotified(ctx context.Context, participantIDs []uint) error
}

// OrderTx is the write side, valid only inside InTx.
type OrderTx interface {
	// LockOrder locks all lines of the order (FOR UPDATE).
	LockOrder(ctx context.Context, orderID string) ([]model.Payment, error)
	// SettleOrder moves every Pending line of the order to status.
	SettleOrder(ctx context.Context, orderID string, status model.PaymentStatus, transactionID *string) (int64, error)
	// LockParticipants locks the participants (ordered by id) and loads their marathon.
	LockParticipants(ctx context.Context, ids []uint) ([]participantModel.ParticipantModel, error)
	MarkPaid(ctx context.Context, participantID uint) error
	AssignBib(ctx context.Context, participantID uint, bibNumber string) error
	CreatePayments(ctx context.Context, rows []model.Payment) error
	Bibs() bib.Store
}

/* =======================================================================
   gorm implementation
======================================================================= */

type GormOrderStore struct {
	DB *gorm.DB
}

func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{DB: db}
}

func (s *GormOrderStore) LoadOrder(ctx context.Context, orderID string) ([]model.Payment, error) {
	var rows []model.Payment
	err := s.DB.WithContext(ctx).
		Preload("Participant").
		Preload("Participant.Details").
		Preload("Participant.Marathon").
		Where("payment_order_id = ?", orderID).
		Order("payment_id ASC").
		Find(&rows).Error
	return rows, err
}

func (s *GormOrderStore) InTx(ctx context.Context, fn func(tx OrderTx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormOrderTx{tx: tx})
	})
}

func (s *GormOrderStore) MarkNotified(ctx context.Context, participantIDs []uint) error {
	if len(participantIDs) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).
		Model(&participantModel.ParticipantModel{}).
		Where("participant_id IN ?", participantIDs).
		UpdateColumn("participant_is_notified", true).Error
}

type gormOrderTx struct {
	tx *gorm.DB
}

func (t *gormOrderTx) LockOrder(ctx context.Context, orderID string) ([]model.Payment, error) {
	var rows []model.Payment
	err := t.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_order_id = ?", orderID).
		Order("payment_id ASC").
		Find(&rows).Error
	return rows, err
}

func (t *gormOrderTx) SettleOrder(ctx context.Context, orderID string, status model.PaymentStatus, transactionID *string) (int64, error) {
	updates := map[string]any{
		"payment_status":     status,
		"payment_updated_at": gorm.Expr("NOW()"),
	}
	if transactionID != nil && *transactionID != "" {
		updates["payment_transaction_id"] = *transactionID
	}
	res := t.tx.WithContext(ctx).
		Model(&model.Payment{}).
		Where("payment_order_id = ? AND payment_status = ?", orderID, model.PaymentStatusPending).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (t *gormOrderTx) LockParticipants(ctx context.Context, ids []uint) ([]participantModel.ParticipantModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var rows []participantModel.ParticipantModel
	if err := t.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("participant_id IN ?", sorted).
		Order("participant_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	// marathon rows are read without locks
	marathonIDs := make([]uint, 0, len(rows))
	for _, p := range rows {
		marathonIDs = append(marathonIDs, p.ParticipantMarathonID)
	}
	if len(marathonIDs) > 0 {
		var ms []marathonModel.MarathonModel
		if err := t.tx.WithContext(ctx).
			Where("marathon_id IN ?", marathonIDs).
			Find(&ms).Error; err != nil {
			return nil, err
		}
		byID := make(map[uint]*marathonModel.MarathonModel, len(ms))
		for i := range ms {
			byID[ms[i].MarathonID] = &ms[i]
		}
		for i := range rows {
			rows[i].Marathon = byID[rows[i].ParticipantMarathonID]
		}
	}
	return rows, nil
}

func (t *gormOrderTx) MarkPaid(ctx context.Context, participantID uint) error {
	return t.tx.WithContext(ctx).Exec(`
		UPDATE participants
		SET participant_is_payment_completed = true, participant_updated_at = NOW()
		WHERE participant_id = ?
	`, participantID).Error
}

func (t *gormOrderTx) AssignBib(ctx context.Context, participantID uint, bibNumber string) error {
	err := t.tx.WithContext(ctx).Exec(`
		UPDATE participants
		SET participant_bib_number = ?, participant_updated_at = NOW()
		WHERE participant_id = ?
	`, bibNumber, participantID).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return bib.ErrBibTaken
	}
	return err
}

func (t *gormOrderTx) CreatePayments(ctx context.Context, rows []model.Payment) error {
	if len(rows) == 0 {
		return nil
	}
	return t.tx.WithContext(ctx).Omit(clause.Associations).Create(&rows).Error
}

func (t *gormOrderTx) Bibs() bib.Store {
	return bib.NewGormStore(t.tx)
}
