package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"marathon_backend/internals/features/finance/payments/bib"
	"marathon_backend/internals/features/finance/payments/gateway"
	model "marathon_backend/internals/features/finance/payments/model"
	"marathon_backend/internals/features/finance/payments/repository"
	"marathon_backend/internals/features/notifications"
	helper "marathon_backend/internals/helpers"
)

type Trigger string

const (
	TriggerPoll     Trigger = "poll"
	TriggerRedirect Trigger = "redirect"
	TriggerWebhook  Trigger = "webhook"
	TriggerManual   Trigger = "manual"
)

type ParticipantStatus struct {
	ParticipantID      uint                `json:"participant_id"`
	PaymentID          uint                `json:"payment_id"`
	Status             model.PaymentStatus `json:"status"`
	AmountMinor        int64               `json:"amount_minor"`
	Bib                *string             `json:"bib_number"`
	IsPaymentCompleted bool                `json:"is_payment_completed"`
}

type ReconcileResult struct {
	OrderID       string                `json:"order_id"`
	Status        model.PaymentStatus   `json:"status"`
	TransactionID *string               `json:"transaction_id,omitempty"`
	Participants  []ParticipantStatus   `json:"participants"`
	Retry         bool                  `json:"retry,omitempty"`
	Cached        bool                  `json:"cached,omitempty"`
	Notifications *notifications.Report `json:"notifications,omitempty"`
}

// MapGatewayState: COMPLETED is Success, FAILED is Failed, anything else stays Pending.
func MapGatewayState(st gateway.State) model.PaymentStatus {
	switch st {
	case gateway.StateCompleted:
		return model.PaymentStatusSuccess
	case gateway.StateFailed:
		return model.PaymentStatusFailed
	}
	return model.PaymentStatusPending
}

// Reconcile asks the gateway for the truth about orderID and applies it. Every
// trigger lands here; nothing a caller sends is taken as the order's status.
func (s *OrderService) Reconcile(ctx context.Context, orderID string, trigger Trigger) (*ReconcileResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, helper.Validation("orderId is required")
	}
	rows, err := s.store.LoadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		reconcileTotal.WithLabelValues(string(trigger), "not_found").Inc()
		return nil, helper.NotFound("order %s not found", orderID)
	}
	return s.reconcile(ctx, orderID, rows, trigger)
}

func (s *OrderService) reconcile(ctx context.Context, orderID string, rows []model.Payment, trigger Trigger) (*ReconcileResult, error) {
	log := s.log.With(zap.String("order_id", orderID), zap.String("trigger", string(trigger)))

	if allTerminal(rows) {
		reconcileTotal.WithLabelValues(string(trigger), "already_settled").Inc()
		res := buildResult(orderID, rows)
		s.remember(ctx, rows, res)
		return res, nil
	}

	// no transaction is open across the gateway call
	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	st, err := s.gateway.GetOrderStatus(gctx, orderID)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			reconcileTotal.WithLabelValues(string(trigger), "timeout").Inc()
			log.Warn("gateway status timed out; reporting pending", zap.Duration("timeout", s.gatewayTimeout))
			res := buildResult(orderID, rows)
			res.Status = model.PaymentStatusPending
			res.Retry = true
			return res, nil
		}
		reconcileTotal.WithLabelValues(string(trigger), "gateway_error").Inc()
		log.Error("gateway status failed", zap.Error(err))
		return nil, helper.Upstream("payment gateway status check failed", err)
	}

	status := MapGatewayState(st.State)
	if status == model.PaymentStatusPending {
		reconcileTotal.WithLabelValues(string(trigger), "pending").Inc()
		res := buildResult(orderID, rows)
		res.Status = model.PaymentStatusPending
		return res, nil
	}

	var (
		newlyPaid   []uint
		allocations []bib.Allocation
		settled     bool
	)
	err = s.store.InTx(ctx, func(tx repository.OrderTx) error {
		newlyPaid, allocations, settled = nil, nil, false

		locked, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return helper.NotFound("order %s not found", orderID)
		}
		// a concurrent reconciler already applied a terminal state
		if allTerminal(locked) {
			return nil
		}
		if _, err := tx.SettleOrder(ctx, orderID, status, st.TransactionID()); err != nil {
			return err
		}
		settled = true
		if status != model.PaymentStatusSuccess {
			return nil
		}

		// sequence lock before participant rows: the allocator's recycle scan locks rows while holding it
		if err := tx.Bibs().LockSequence(ctx); err != nil {
			return err
		}
		parts, err := tx.LockParticipants(ctx, participantIDs(locked))
		if err != nil {
			return err
		}
		// flag everyone first so the recycle scan never picks a co-ordered participant
		var needBib []uint
		for _, p := range parts {
			if p.ParticipantIsPaymentCompleted {
				continue
			}
			if err := tx.MarkPaid(ctx, p.ParticipantID); err != nil {
				return err
			}
			newlyPaid = append(newlyPaid, p.ParticipantID)
			if !p.HasBib() {
				needBib = append(needBib, p.ParticipantID)
			}
		}
		for _, pid := range needBib {
			a, err := s.allocator.Allocate(ctx, tx.Bibs())
			if err != nil {
				return err
			}
			if err := tx.AssignBib(ctx, pid, a.Bib); err != nil {
				if errors.Is(err, bib.ErrBibTaken) {
					return helper.Conflict("BIB_COLLISION", "bib %s was taken concurrently, retry", a.Bib)
				}
				return err
			}
			allocations = append(allocations, a)
		}
		return nil
	})
	if err != nil {
		reconcileTotal.WithLabelValues(string(trigger), "rolled_back").Inc()
		log.Error("reconcile transaction rolled back", zap.Error(err))
		return nil, err
	}

	for _, a := range allocations {
		if a.Recycled {
			bibAllocations.WithLabelValues("recycled").Inc()
			log.Info("bib recycled", zap.String("bib", a.Bib), zap.Uint("released_from", a.ReleasedFrom))
		} else {
			bibAllocations.WithLabelValues("minted").Inc()
		}
	}
	if settled {
		reconcileTotal.WithLabelValues(string(trigger), strings.ToLower(string(status))).Inc()
		log.Info("order settled", zap.String("status", string(status)), zap.Int("newly_paid", len(newlyPaid)))
	} else {
		reconcileTotal.WithLabelValues(string(trigger), "already_settled").Inc()
	}

	fresh, err := s.store.LoadOrder(ctx, orderID)
	if err != nil {
		// committed already; report what we know
		log.Warn("reload after commit failed", zap.Error(err))
		res := buildResult(orderID, rows)
		res.Status = status
		return res, nil
	}
	res := buildResult(orderID, fresh)

	if len(newlyPaid) > 0 && s.notifier != nil {
		rep := s.notify(context.WithoutCancel(ctx), fresh, newlyPaid)
		res.Notifications = &rep
	}
	s.remember(ctx, fresh, res)
	return res, nil
}

// notify runs after commit. Its outcome never changes the reconcile result.
func (s *OrderService) notify(ctx context.Context, rows []model.Payment, participantIDs []uint) notifications.Report {
	want := make(map[uint]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		want[id] = struct{}{}
	}
	var confs []notifications.Confirmation
	for _, r := range rows {
		if _, ok := want[r.PaymentParticipantID]; !ok || r.Participant == nil {
			continue
		}
		confs = append(confs, confirmationFor(r))
	}

	rep := s.notifier.Dispatch(ctx, confs)
	if len(rep.Notified) > 0 {
		if err := s.store.MarkNotified(ctx, rep.Notified); err != nil {
			s.log.Warn("mark notified failed", zap.Error(err))
		}
	}
	if f := rep.Failures(); len(f) > 0 {
		s.log.Warn("some confirmations were not delivered", zap.Int("failures", len(f)))
	}
	return rep
}

func (s *OrderService) remember(ctx context.Context, rows []model.Payment, res *ReconcileResult) {
	if !res.Status.IsTerminal() || len(rows) == 0 {
		return
	}
	cached := *res
	cached.Notifications = nil
	s.cache.Set(ctx, res.OrderID, CachedStatus{OwnerID: rows[0].PaymentUserID, Result: cached})
}

func confirmationFor(r model.Payment) notifications.Confirmation {
	p := r.Participant
	c := notifications.Confirmation{
		ParticipantID: p.ParticipantID,
		OrderID:       r.PaymentOrderID,
		MarathonType:  string(p.ParticipantMarathonType),
	}
	if p.ParticipantBibNumber != nil {
		c.Bib = *p.ParticipantBibNumber
	}
	if d := p.Details; d != nil {
		c.Name = d.ParticipantDetailsFullName
		c.Mobile = d.ParticipantDetailsContactNumber
		c.TshirtSize = string(d.ParticipantDetailsTshirtSize)
		if d.ParticipantDetailsEmail != nil {
			c.Email = *d.ParticipantDetailsEmail
		}
	}
	if m := p.Marathon; m != nil {
		c.MarathonName = m.MarathonName
		c.MarathonDate = m.MarathonDate
		c.Location = deref(m.MarathonLocation)
		c.ReportingTime = deref(m.MarathonReportingAt)
		c.RunStartTime = deref(m.MarathonRunStartAt)
	}
	return c
}

func buildResult(orderID string, rows []model.Payment) *ReconcileResult {
	res := &ReconcileResult{OrderID: orderID, Status: overallStatus(rows)}
	for _, r := range rows {
		ps := ParticipantStatus{
			ParticipantID: r.PaymentParticipantID,
			PaymentID:     r.PaymentID,
			Status:        r.PaymentStatus,
			AmountMinor:   r.PaymentAmountMinor,
		}
		if r.Participant != nil {
			ps.Bib = r.Participant.ParticipantBibNumber
			ps.IsPaymentCompleted = r.Participant.ParticipantIsPaymentCompleted
		}
		if res.TransactionID == nil && r.PaymentTransactionID != nil {
			res.TransactionID = r.PaymentTransactionID
		}
		res.Participants = append(res.Participants, ps)
	}
	return res
}

// overallStatus is the shared status of the rows, Pending if they disagree.
func overallStatus(rows []model.Payment) model.PaymentStatus {
	if len(rows) == 0 {
		return model.PaymentStatusPending
	}
	first := rows[0].PaymentStatus
	for _, r := range rows[1:] {
		if r.PaymentStatus != first {
			return model.PaymentStatusPending
		}
	}
	return first
}

func allTerminal(rows []model.Payment) bool {
	for _, r := range rows {
		if !r.PaymentStatus.IsTerminal() {
			return false
		}
	}
	return len(rows) > 0
}

func participantIDs(rows []model.Payment) []uint {
	out := make([]uint, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.PaymentParticipantID)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
