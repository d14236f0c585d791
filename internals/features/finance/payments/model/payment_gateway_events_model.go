package model

import (
	"time"

	"gorm.io/datatypes"
)

/*
  payment_gateway_events = log of every webhook / redirect hit from the gateway.
  Raw headers and payload are kept for debugging and replay.
*/

type PaymentGatewayEvent struct {
	GatewayEventID uint `gorm:"column:gateway_event_id;primaryKey;autoIncrement" json:"gateway_event_id"`

	GatewayEventProvider GatewayProvider `gorm:"column:gateway_event_provider;size:32;not null" json:"gateway_event_provider"`
	GatewayEventType     *string         `gorm:"column:gateway_event_type;size:100" json:"gateway_event_type"`
	GatewayEventOrderID  *string         `gorm:"column:gateway_event_order_id;size:100;index" json:"gateway_event_order_id"`
	GatewayEventTrigger  string          `gorm:"column:gateway_event_trigger;size:16;not null" json:"gateway_event_trigger"`

	GatewayEventHeaders  datatypes.JSON `gorm:"column:gateway_event_headers;type:jsonb" json:"gateway_event_headers"`
	GatewayEventPayload  datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload"`
	GatewayEventRawQuery *string        `gorm:"column:gateway_event_raw_query" json:"gateway_event_raw_query"`

	GatewayEventStatus       GatewayEventStatus `gorm:"column:gateway_event_status;size:16;not null;default:received;index" json:"gateway_event_status"`
	GatewayEventResultStatus *PaymentStatus     `gorm:"column:gateway_event_result_status;size:16" json:"gateway_event_result_status"`
	GatewayEventError        *string            `gorm:"column:gateway_event_error" json:"gateway_event_error"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null;autoCreateTime" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at"`
}

func (PaymentGatewayEvent) TableName() string { return "payment_gateway_events" }
