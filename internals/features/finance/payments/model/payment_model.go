package model

import (
	"time"

	participantModel "marathon_backend/internals/features/events/participants/model"
)

/*
  payments = one line per participant per order.
  An order is the set of rows sharing payment_order_id; they settle together.
*/

type Payment struct {
	PaymentID uint `gorm:"column:payment_id;primaryKey;autoIncrement" json:"payment_id"`

	PaymentTransactionID *string `gorm:"column:payment_transaction_id;size:100" json:"payment_transaction_id"`
	PaymentOrderID       string  `gorm:"column:payment_order_id;size:100;not null;index:idx_payments_order_id" json:"payment_order_id"`

	PaymentParticipantID uint `gorm:"column:payment_participant_id;not null;index" json:"payment_participant_id"`
	PaymentUserID        uint `gorm:"column:payment_user_id;not null;index" json:"payment_user_id"`

	PaymentAmountMinor int64         `gorm:"column:payment_amount_minor;not null" json:"payment_amount_minor"`
	PaymentStatus      PaymentStatus `gorm:"column:payment_status;size:16;not null;default:Pending;index" json:"payment_status"`

	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`

	Participant *participantModel.ParticipantModel `gorm:"foreignKey:PaymentParticipantID;references:ParticipantID;constraint:OnDelete:CASCADE" json:"participant,omitempty"`
}

func (Payment) TableName() string { return "payments" }
