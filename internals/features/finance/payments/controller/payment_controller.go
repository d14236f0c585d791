package controller

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"marathon_backend/internals/configs"
	dto "marathon_backend/internals/features/finance/payments/dto"
	model "marathon_backend/internals/features/finance/payments/model"
	svc "marathon_backend/internals/features/finance/payments/service"
	helper "marathon_backend/internals/helpers"
)

// OrderAPI is the part of the order service the HTTP layer uses.
type OrderAPI interface {
	CreateOrder(ctx context.Context, in svc.CreateOrderInput) (*svc.CreateOrderResult, error)
	Status(ctx context.Context, userID uint, orderID string) (*svc.ReconcileResult, error)
	Reconcile(ctx context.Context, orderID string, trigger svc.Trigger) (*svc.ReconcileResult, error)
}

/* =======================================================================
   Controller
======================================================================= */

type PaymentController struct {
	Orders OrderAPI
	Events EventLog
	Cfg    configs.PaymentConfig
	Log    *zap.Logger
}

func NewPaymentController(orders OrderAPI, events EventLog, cfg configs.PaymentConfig, log *zap.Logger) *PaymentController {
	return &PaymentController{Orders: orders, Events: events, Cfg: cfg, Log: log.Named("payments")}
}

// POST /api/payments/orders
func (h *PaymentController) CreateOrder(c *fiber.Ctx) error {
	userID, err := helper.GetUserID(c)
	if err != nil {
		return err
	}
	var req dto.CreateOrderRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.Orders.CreateOrder(c.UserContext(), svc.CreateOrderInput{
		UserID:             userID,
		ParticipantIDs:     req.ParticipantIDs,
		ExpectedTotalMinor: helper.ToMinor(req.Amount),
	})
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "order created", res)
}

// GET /api/payments/status/:orderId
func (h *PaymentController) Status(c *fiber.Ctx) error {
	userID, err := helper.GetUserID(c)
	if err != nil {
		return err
	}
	orderID, _ := url.PathUnescape(c.Params("orderId"))
	res, err := h.Orders.Status(c.UserContext(), userID, orderID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "payment status", res)
}

// GET /api/payments/redirect?orderId=
// The payer lands here from hosted checkout. Query fields only say which order to re-check.
func (h *PaymentController) Redirect(c *fiber.Ctx) error {
	orderID := firstQuery(c, "orderId", "merchantOrderId", "order_id")
	if orderID == "" {
		return helper.Validation("orderId is required")
	}

	ev := newEvent(h.Cfg.Provider, "redirect", &orderID)
	raw := string(c.Request().URI().QueryString())
	ev.GatewayEventRawQuery = &raw
	h.record(c.UserContext(), ev)

	res, err := h.Orders.Reconcile(c.UserContext(), orderID, svc.TriggerRedirect)
	h.finish(c.UserContext(), ev, res, err)

	if h.Cfg.RedirectMode != "redirect" {
		if err != nil {
			return err
		}
		return helper.JsonOK(c, "payment status", res)
	}

	target := h.Cfg.PendingURL
	switch {
	case err != nil && helper.IsKind(err, helper.KindNotFound):
		target = h.Cfg.FailureURL
	case err != nil:
		h.Log.Warn("redirect reconcile failed", zap.String("order_id", orderID), zap.Error(err))
	case res.Status == model.PaymentStatusSuccess:
		target = h.Cfg.SuccessURL
	case res.Status == model.PaymentStatusFailed:
		target = h.Cfg.FailureURL
	}
	return c.Redirect(withOrderID(target, orderID), fiber.StatusFound)
}

func (h *PaymentController) record(ctx context.Context, ev *model.PaymentGatewayEvent) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Record(ctx, ev); err != nil {
		h.Log.Warn("record gateway event failed", zap.Error(err))
	}
}

func (h *PaymentController) finish(ctx context.Context, ev *model.PaymentGatewayEvent, res *svc.ReconcileResult, err error) {
	if h.Events == nil {
		return
	}
	status, result, msg := outcome(res, err)
	if ferr := h.Events.Finish(ctx, ev.GatewayEventID, status, result, msg); ferr != nil {
		h.Log.Warn("finish gateway event failed", zap.Error(ferr))
	}
}

func firstQuery(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	return ""
}

func withOrderID(target, orderID string) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "orderId=" + url.QueryEscape(orderID)
}
