package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	dto "marathon_backend/internals/features/finance/payments/dto"
	model "marathon_backend/internals/features/finance/payments/model"
	"marathon_backend/internals/features/finance/payments/repository"
	svc "marathon_backend/internals/features/finance/payments/service"
	helper "marathon_backend/internals/helpers"
)

var errNoEvents = errors.New("gateway event log not configured")

type EventLister interface {
	List(ctx context.Context, f repository.GatewayEventFilter) ([]model.PaymentGatewayEvent, int64, error)
}

type AdminPaymentController struct {
	Orders OrderAPI
	Events EventLister
}

func NewAdminPaymentController(orders OrderAPI, events EventLister) *AdminPaymentController {
	return &AdminPaymentController{Orders: orders, Events: events}
}

// GET /api/admin/payments/events?order_id=&status=&trigger=&page=&per_page=
func (h *AdminPaymentController) ListEvents(c *fiber.Ctx) error {
	if h.Events == nil {
		return errNoEvents
	}
	p := helper.ResolvePaging(c, 20, 200)
	rows, total, err := h.Events.List(c.UserContext(), repository.GatewayEventFilter{
		OrderID: strings.TrimSpace(c.Query("order_id")),
		Status:  strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Trigger: strings.ToLower(strings.TrimSpace(c.Query("trigger"))),
		Offset:  p.Offset,
		Limit:   p.Limit,
	})
	if err != nil {
		return err
	}
	pg := helper.BuildPagination(total, p, len(rows))
	return helper.JsonList(c, "gateway events", dto.FromGatewayEvents(rows), &pg)
}

// POST /api/admin/payments/:orderId/reconcile
func (h *AdminPaymentController) Reconcile(c *fiber.Ctx) error {
	res, err := h.Orders.Reconcile(c.UserContext(), c.Params("orderId"), svc.TriggerManual)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "order reconciled", res)
}
