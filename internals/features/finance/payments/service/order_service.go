// Package service implements payment orders and their reconciliation against the gateway.
package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	participantModel "marathon_backend/internals/features/events/participants/model"
	"marathon_backend/internals/features/finance/payments/bib"
	"marathon_backend/internals/features/finance/payments/gateway"
	model "marathon_backend/internals/features/finance/payments/model"
	"marathon_backend/internals/features/finance/payments/repository"
	"marathon_backend/internals/features/notifications"
	helper "marathon_backend/internals/helpers"
)

// amountTolerance is one minor unit (0.01).
const amountTolerance int64 = 1

type Notifier interface {
	Dispatch(ctx context.Context, confirmations []notifications.Confirmation) notifications.Report
}

type Deps struct {
	Store          repository.OrderStore
	Gateway        gateway.Client
	Allocator      bib.Allocator
	Notifier       Notifier
	Cache          StatusCache
	Log            *zap.Logger
	GatewayTimeout time.Duration
	PublicBaseURL  string
	OrderPrefix    string
}

type OrderService struct {
	store          repository.OrderStore
	gateway        gateway.Client
	allocator      bib.Allocator
	notifier       Notifier
	cache          StatusCache
	log            *zap.Logger
	gatewayTimeout time.Duration
	publicBaseURL  string
	orderPrefix    string
}

func NewOrderService(d Deps) *OrderService {
	s := &OrderService{
		store:          d.Store,
		gateway:        d.Gateway,
		allocator:      d.Allocator,
		notifier:       d.Notifier,
		cache:          d.Cache,
		log:            d.Log,
		gatewayTimeout: d.GatewayTimeout,
		publicBaseURL:  strings.TrimRight(d.PublicBaseURL, "/"),
		orderPrefix:    d.OrderPrefix,
	}
	if s.cache == nil {
		s.cache = NopStatusCache{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.gatewayTimeout <= 0 {
		s.gatewayTimeout = 10 * time.Second
	}
	if s.orderPrefix == "" {
		s.orderPrefix = "MRN"
	}
	if s.allocator.Width <= 0 {
		s.allocator = bib.NewAllocator(bib.DefaultWidth)
	}
	return s
}

/* =======================================================================
   Create order
======================================================================= */

type CreateOrderInput struct {
	UserID             uint
	ParticipantIDs     []uint
	ExpectedTotalMinor int64
}

type CreateOrderResult struct {
	OrderID     string          `json:"order_id"`
	PaymentURL  string          `json:"payment_url"`
	TotalMinor  int64           `json:"total_amount_minor"`
	TotalAmount string          `json:"total_amount"`
	Payments    []model.Payment `json:"payments"`
}

// CreateOrder writes one Pending payment per participant under a fresh order id,
// then opens a hosted checkout session for the sum. Nothing is written when any
// participant is missing, already paid, or the total disagrees with the caller.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	ids := dedupe(in.ParticipantIDs)
	if len(ids) == 0 {
		return nil, helper.ValidationFields(map[string][]string{"participantIds": {"is required"}})
	}

	orderID := GenOrderID(s.orderPrefix)
	var (
		rows  []model.Payment
		total int64
	)

	err := s.store.InTx(ctx, func(tx repository.OrderTx) error {
		parts, err := tx.LockParticipants(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uint]participantModel.ParticipantModel, len(parts))
		for _, p := range parts {
			byID[p.ParticipantID] = p
		}

		rows = rows[:0]
		total = 0
		for _, id := range ids {
			p, ok := byID[id]
			if !ok || p.ParticipantUserID != in.UserID {
				return helper.Conflict("PARTICIPANT_NOT_FOUND", "participant %d not found", id)
			}
			if p.ParticipantIsPaymentCompleted {
				e := helper.Conflict("PARTICIPANT_ALREADY_PAID", "participant %d has already paid", id)
				e.Details = map[string]any{"participant_id": id}
				return e
			}
			if p.Marathon == nil {
				return helper.NotFound("marathon for participant %d not found", id)
			}
			fee := p.Marathon.MarathonFeesAmountMinor
			total += fee
			rows = append(rows, model.Payment{
				PaymentOrderID:       orderID,
				PaymentParticipantID: id,
				PaymentUserID:        in.UserID,
				PaymentAmountMinor:   fee,
				PaymentStatus:        model.PaymentStatusPending,
			})
		}

		if delta := total - in.ExpectedTotalMinor; delta > amountTolerance || delta < -amountTolerance {
			e := helper.Conflict("AMOUNT_MISMATCH",
				"expected total %s does not match order total %s (delta %s)",
				helper.FormatMinor(in.ExpectedTotalMinor), helper.FormatMinor(total), helper.FormatMinor(delta))
			e.Details = map[string]any{
				"expected_minor": in.ExpectedTotalMinor,
				"actual_minor":   total,
				"delta_minor":    delta,
			}
			return e
		}
		if total <= 0 {
			return helper.Validation("order total must be greater than zero")
		}

		return tx.CreatePayments(ctx, rows)
	})
	if err != nil {
		ordersCreated.WithLabelValues("rejected").Inc()
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	sess, err := s.gateway.CreateCheckoutSession(gctx, orderID, total, s.redirectURL(orderID))
	if err != nil {
		ordersCreated.WithLabelValues("gateway_error").Inc()
		s.log.Error("create checkout session failed", zap.String("order_id", orderID), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, helper.UpstreamTimeout("payment gateway did not respond", err)
		}
		return nil, helper.Upstream("could not start checkout", err)
	}

	ordersCreated.WithLabelValues("created").Inc()
	s.log.Info("order created",
		zap.String("order_id", orderID),
		zap.Uint("user_id", in.UserID),
		zap.Int("participants", len(rows)),
		zap.Int64("total_minor", total))

	return &CreateOrderResult{
		OrderID:     orderID,
		PaymentURL:  sess.SessionURL,
		TotalMinor:  total,
		TotalAmount: helper.FormatMinor(total),
		Payments:    rows,
	}, nil
}

func (s *OrderService) redirectURL(orderID string) string {
	return s.publicBaseURL + "/api/payments/redirect?orderId=" + url.QueryEscape(orderID)
}

/* =======================================================================
   Status poll
======================================================================= */

// Status is the owner-scoped poll. Terminal results come from the cache when present.
func (s *OrderService) Status(ctx context.Context, userID uint, orderID string) (*ReconcileResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, helper.Validation("orderId is required")
	}
	if cached, ok := s.cache.Get(ctx, orderID); ok {
		if cached.OwnerID != userID {
			return nil, helper.NotFound("order %s not found", orderID)
		}
		res := cached.Result
		res.Cached = true
		return &res, nil
	}

	rows, err := s.store.LoadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].PaymentUserID != userID {
		return nil, helper.NotFound("order %s not found", orderID)
	}
	return s.reconcile(ctx, orderID, rows, TriggerPoll)
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
