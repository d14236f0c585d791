package controller

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	dto "marathon_backend/internals/features/finance/payments/dto"
	"marathon_backend/internals/features/finance/payments/gateway"
	model "marathon_backend/internals/features/finance/payments/model"
	svc "marathon_backend/internals/features/finance/payments/service"
	helper "marathon_backend/internals/helpers"
)

// EventLog persists payment_gateway_events rows.
type EventLog interface {
	Record(ctx context.Context, ev *model.PaymentGatewayEvent) error
	Finish(ctx context.Context, id uint, status model.GatewayEventStatus, result *model.PaymentStatus, errMsg string) error
}

type WebhookController struct {
	Orders   OrderAPI
	Gateway  gateway.Client
	Verifier gateway.Verifier
	Events   EventLog
	Log      *zap.Logger
}

func NewWebhookController(orders OrderAPI, gw gateway.Client, verifier gateway.Verifier, events EventLog, log *zap.Logger) *WebhookController {
	return &WebhookController{Orders: orders, Gateway: gw, Verifier: verifier, Events: events, Log: log.Named("webhook")}
}

// POST /api/payments/webhook
// Authenticated callers always get 200 so the provider does not retry; failures are logged.
func (h *WebhookController) Webhook(c *fiber.Ctx) error {
	ctx := c.UserContext()
	body := append([]byte(nil), c.Body()...)
	headers := lowerHeaders(c)

	ev := newEvent(h.Gateway.Name(), "webhook", nil)
	ev.GatewayEventHeaders = redactedHeaders(headers)
	ev.GatewayEventPayload = asJSON(body)

	if err := h.Verifier.Verify(headers, body); err != nil {
		ev.GatewayEventStatus = model.GatewayEventStatusRejected
		msg := err.Error()
		ev.GatewayEventError = &msg
		h.record(ctx, ev)
		h.Log.Warn("webhook rejected", zap.String("ip", c.IP()), zap.Error(err))
		return helper.JsonError(c, fiber.StatusUnauthorized, "invalid callback credentials")
	}

	n, err := h.Gateway.ParseNotification(body)
	if err != nil {
		ev.GatewayEventStatus = model.GatewayEventStatusIgnored
		msg := err.Error()
		ev.GatewayEventError = &msg
		h.record(ctx, ev)
		h.Log.Warn("webhook payload ignored", zap.Error(err))
		return c.JSON(dto.WebhookAck{Status: "ok"})
	}
	if n.Event != "" {
		ev.GatewayEventType = &n.Event
	}
	ev.GatewayEventOrderID = &n.OrderID
	h.record(ctx, ev)

	res, rerr := h.Orders.Reconcile(ctx, n.OrderID, svc.TriggerWebhook)
	status, result, msg := outcome(res, rerr)
	if rerr != nil {
		h.Log.Error("webhook reconcile failed", zap.String("order_id", n.OrderID), zap.Error(rerr))
	}
	if h.Events != nil {
		if err := h.Events.Finish(ctx, ev.GatewayEventID, status, result, msg); err != nil {
			h.Log.Warn("finish gateway event failed", zap.Error(err))
		}
	}
	return c.JSON(dto.WebhookAck{Status: "ok"})
}

// GET /api/payments/stub/pay?orderId=&result=success|failed
func (h *WebhookController) StubPay(c *fiber.Ctx) error {
	stub, ok := h.Gateway.(*gateway.StubClient)
	if !ok {
		return helper.NotFound("stub checkout is disabled")
	}
	orderID := strings.TrimSpace(c.Query("orderId"))
	st := gateway.StateCompleted
	switch strings.ToLower(c.Query("result", "success")) {
	case "failed", "failure", "fail":
		st = gateway.StateFailed
	case "pending":
		st = gateway.StatePending
	}
	back, ok := stub.Complete(orderID, st)
	if !ok {
		return helper.NotFound("order %s not found", orderID)
	}
	return c.Redirect(back, fiber.StatusFound)
}

func (h *WebhookController) record(ctx context.Context, ev *model.PaymentGatewayEvent) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Record(ctx, ev); err != nil {
		h.Log.Warn("record gateway event failed", zap.Error(err))
	}
}

/* =======================================================================
   Helpers
======================================================================= */

func newEvent(provider, trigger string, orderID *string) *model.PaymentGatewayEvent {
	if provider == "" {
		provider = string(model.GatewayProviderStub)
	}
	return &model.PaymentGatewayEvent{
		GatewayEventProvider: model.GatewayProvider(provider),
		GatewayEventTrigger:  trigger,
		GatewayEventOrderID:  orderID,
		GatewayEventStatus:   model.GatewayEventStatusReceived,
	}
}

func outcome(res *svc.ReconcileResult, err error) (model.GatewayEventStatus, *model.PaymentStatus, string) {
	if err != nil {
		if helper.IsKind(err, helper.KindNotFound) {
			return model.GatewayEventStatusIgnored, nil, err.Error()
		}
		return model.GatewayEventStatusFailed, nil, err.Error()
	}
	st := res.Status
	return model.GatewayEventStatusProcessed, &st, ""
}

func lowerHeaders(c *fiber.Ctx) map[string]string {
	out := map[string]string{}
	for k, v := range c.GetReqHeaders() {
		out[strings.ToLower(k)] = strings.Join(v, ",")
	}
	return out
}

func redactedHeaders(h map[string]string) datatypes.JSON {
	cp := make(map[string]string, len(h))
	for k, v := range h {
		if k == "authorization" || k == "cookie" {
			v = "[redacted]"
		}
		cp[k] = v
	}
	b, _ := sonic.Marshal(cp)
	return datatypes.JSON(b)
}

// asJSON keeps non-JSON bodies as a JSON string so the jsonb column accepts them.
func asJSON(body []byte) datatypes.JSON {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return datatypes.JSON(body)
	}
	b, err := sonic.Marshal(string(body))
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
