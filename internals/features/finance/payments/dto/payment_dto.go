package dto

import (
	"time"

	"gorm.io/datatypes"

	model "marathon_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Orders
========================================================= */

type CreateOrderRequest struct {
	ParticipantIDs []uint `json:"participantIds" validate:"required,min=1,dive,gt=0"`
	// major units as shown to the payer, e.g. 500.00
	Amount float64 `json:"amount" validate:"gt=0"`
}

type WebhookAck struct {
	Status string `json:"status"`
}

/* =========================================================
   Gateway events (admin)
========================================================= */

type PaymentGatewayEventResponse struct {
	GatewayEventID          uint                     `json:"gateway_event_id"`
	GatewayEventProvider    model.GatewayProvider    `json:"gateway_event_provider"`
	GatewayEventType        *string                  `json:"gateway_event_type,omitempty"`
	GatewayEventOrderID     *string                  `json:"gateway_event_order_id,omitempty"`
	GatewayEventTrigger     string                   `json:"gateway_event_trigger"`
	GatewayEventHeaders     datatypes.JSON           `json:"gateway_event_headers,omitempty"`
	GatewayEventPayload     datatypes.JSON           `json:"gateway_event_payload,omitempty"`
	GatewayEventRawQuery    *string                  `json:"gateway_event_raw_query,omitempty"`
	GatewayEventStatus      model.GatewayEventStatus `json:"gateway_event_status"`
	GatewayEventResult      *model.PaymentStatus     `json:"gateway_event_result_status,omitempty"`
	GatewayEventError       *string                  `json:"gateway_event_error,omitempty"`
	GatewayEventReceivedAt  time.Time                `json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time               `json:"gateway_event_processed_at,omitempty"`
}

func FromGatewayEvent(m *model.PaymentGatewayEvent) *PaymentGatewayEventResponse {
	if m == nil {
		return nil
	}
	return &PaymentGatewayEventResponse{
		GatewayEventID:          m.GatewayEventID,
		GatewayEventProvider:    m.GatewayEventProvider,
		GatewayEventType:        m.GatewayEventType,
		GatewayEventOrderID:     m.GatewayEventOrderID,
		GatewayEventTrigger:     m.GatewayEventTrigger,
		GatewayEventHeaders:     m.GatewayEventHeaders,
		GatewayEventPayload:     m.GatewayEventPayload,
		GatewayEventRawQuery:    m.GatewayEventRawQuery,
		GatewayEventStatus:      m.GatewayEventStatus,
		GatewayEventResult:      m.GatewayEventResultStatus,
		GatewayEventError:       m.GatewayEventError,
		GatewayEventReceivedAt:  m.GatewayEventReceivedAt,
		GatewayEventProcessedAt: m.GatewayEventProcessedAt,
	}
}

func FromGatewayEvents(rows []model.PaymentGatewayEvent) []*PaymentGatewayEventResponse {
	out := make([]*PaymentGatewayEventResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromGatewayEvent(&rows[i]))
	}
	return out
}
