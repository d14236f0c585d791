package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	model "marathon_backend/internals/features/finance/payments/model"
)

type GatewayEventFilter struct {
	OrderID string
	Status  string
	Trigger string
	Offset  int
	Limit   int
}

type GatewayEventRepository struct {
	DB *gorm.DB
}

func NewGatewayEventRepository(db *gorm.DB) *GatewayEventRepository {
	return &GatewayEventRepository{DB: db}
}

func (r *GatewayEventRepository) Record(ctx context.Context, ev *model.PaymentGatewayEvent) error {
	return r.DB.WithContext(ctx).Create(ev).Error
}

func (r *GatewayEventRepository) Finish(ctx context.Context, id uint, status model.GatewayEventStatus, result *model.PaymentStatus, errMsg string) error {
	if id == 0 {
		return nil
	}
	now := time.Now()
	updates := map[string]any{
		"gateway_event_status":       status,
		"gateway_event_processed_at": now,
	}
	if result != nil {
		updates["gateway_event_result_status"] = *result
	}
	if errMsg != "" {
		updates["gateway_event_error"] = errMsg
	}
	return r.DB.WithContext(ctx).
		Model(&model.PaymentGatewayEvent{}).
		Where("gateway_event_id = ?", id).
		Updates(updates).Error
}

func (r *GatewayEventRepository) List(ctx context.Context, f GatewayEventFilter) ([]model.PaymentGatewayEvent, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.PaymentGatewayEvent{})
	if f.OrderID != "" {
		q = q.Where("gateway_event_order_id = ?", f.OrderID)
	}
	if f.Status != "" {
		q = q.Where("gateway_event_status = ?", f.Status)
	}
	if f.Trigger != "" {
		q = q.Where("gateway_event_trigger = ?", f.Trigger)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.PaymentGatewayEvent
	if err := q.Order("gateway_event_received_at DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
