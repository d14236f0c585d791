package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"marathon_backend/internals/features/finance/payments/bib"
	"marathon_backend/internals/features/finance/payments/gateway"
	model "marathon_backend/internals/features/finance/payments/model"
	helper "marathon_backend/internals/helpers"
)

func TestMapGatewayState(t *testing.T) {
	cases := map[gateway.State]model.PaymentStatus{
		gateway.StateCompleted: model.PaymentStatusSuccess,
		gateway.StateFailed:    model.PaymentStatusFailed,
		gateway.StatePending:   model.PaymentStatusPending,
		gateway.State("WEIRD"): model.PaymentStatusPending,
		gateway.State(""):      model.PaymentStatusPending,
	}
	for in, want := range cases {
		if got := MapGatewayState(in); got != want {
			t.Errorf("MapGatewayState(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestReconcileSuccessAssignsBibsAndNotifies(t *testing.T) {
	f := newFixture(t)
	seven := "0007"
	f.store.participants[4].ParticipantBibNumber = &seven
	f.store.participants[4].ParticipantIsPaymentCompleted = true

	f.store.seedOrder("ORD-1", 1, feeMinor, 1, 2)
	f.gw.set("ORD-1", gateway.StateCompleted)

	res, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerWebhook)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Status != model.PaymentStatusSuccess {
		t.Fatalf("status = %s, want Success", res.Status)
	}
	if res.TransactionID == nil || *res.TransactionID != "TX-ORD-1" {
		t.Fatalf("transaction id = %v", res.TransactionID)
	}

	got := []string{bibOf(f.store.participant(1)), bibOf(f.store.participant(2))}
	if got[0] != "0008" || got[1] != "0009" {
		t.Fatalf("bibs = %v, want [0008 0009]", got)
	}
	for _, id := range []uint{1, 2} {
		p := f.store.participant(id)
		if !p.ParticipantIsPaymentCompleted || !p.ParticipantIsNotified {
			t.Errorf("participant %d paid=%v notified=%v", id, p.ParticipantIsPaymentCompleted, p.ParticipantIsNotified)
		}
	}
	for _, r := range f.store.orderRows("ORD-1") {
		if r.PaymentStatus != model.PaymentStatusSuccess {
			t.Errorf("payment %d status = %s", r.PaymentID, r.PaymentStatus)
		}
	}
	for _, ps := range res.Participants {
		if ps.Bib == nil || !ps.IsPaymentCompleted {
			t.Errorf("result row %+v missing bib or paid flag", ps)
		}
	}

	sent := f.notifier.sent()
	if len(sent) != 1 || len(sent[0]) != 2 {
		t.Fatalf("notifier batches = %v", sent)
	}
	if c := sent[0][0]; c.Bib != "0008" || c.MarathonName != "City Run" || c.Location != "Pune" || c.OrderID != "ORD-1" {
		t.Fatalf("confirmation = %+v", c)
	}
	if res.Notifications == nil || len(res.Notifications.Notified) != 2 {
		t.Fatalf("notifications report = %+v", res.Notifications)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.store.seedOrder("ORD-1", 1, feeMinor, 1)
	f.gw.set("ORD-1", gateway.StateCompleted)

	first, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerRedirect)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerWebhook)
		if err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
		if again.Status != first.Status || *again.Participants[0].Bib != *first.Participants[0].Bib {
			t.Fatalf("result changed: %+v vs %+v", again, first)
		}
		if again.Notifications != nil {
			t.Fatalf("repeat reconcile notified again")
		}
	}
	if calls := f.gw.statusCalls(); calls != 1 {
		t.Fatalf("gateway asked %d times, want 1", calls)
	}
	if n := len(f.notifier.sent()); n != 1 {
		t.Fatalf("notified %d times, want 1", n)
	}
	if b := bibOf(f.store.participant(1)); b != "0001" {
		t.Fatalf("bib = %q, want 0001", b)
	}
}

func TestReconcileFailedLeavesParticipantsUnpaid(t *testing.T) {
	f := newFixture(t)
	f.store.seedOrder("ORD-1", 1, feeMinor, 1, 2)
	f.gw.set("ORD-1", gateway.StateFailed)

	res, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerPoll)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Status != model.PaymentStatusFailed {
		t.Fatalf("status = %s, want Failed", res.Status)
	}
	for _, id := range []uint{1, 2} {
		p := f.store.participant(id)
		if p.ParticipantIsPaymentCompleted || p.HasBib() {
			t.Errorf("participant %d changed: paid=%v bib=%q", id, p.ParticipantIsPaymentCompleted, bibOf(p))
		}
	}
	if len(f.notifier.sent()) != 0 {
		t.Fatal("failed order must not notify")
	}
}

func TestReconcilePendingWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.store.seedOrder("ORD-1", 1, feeMinor, 1)
	f.gw.set("ORD-1", gateway.StatePending)

	res, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerPoll)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Status != model.PaymentStatusPending || res.Retry {
		t.Fatalf("got %+v, want plain Pending", res)
	}
	if r := f.store.orderRows("ORD-1")[0]; r.PaymentStatus != model.PaymentStatusPending || r.PaymentTransactionID != nil {
		t.Fatalf("payment row changed: %+v", r)
	}
	if _, ok := f.cache.Get(context.Background(), "ORD-1"); ok {
		t.Fatal("pending result must not be cached")
	}
}

func TestReconcileGatewayTimeoutReportsPending(t *testing.T) {
	f := newFixture(t)
	f.svc.gatewayTimeout = 20 * time.Millisecond
	f.gw.block = true
	f.store.seedOrder("ORD-1", 1, feeMinor, 1)

	start := time.Now()
	res, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerPoll)
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("gateway timeout not honoured")
	}
	if res.Status != model.PaymentStatusPending || !res.Retry {
		t.Fatalf("got %+v, want Pending with retry", res)
	}
	if r := f.store.orderRows("ORD-1")[0]; r.PaymentStatus != model.PaymentStatusPending {
		t.Fatalf("payment row changed to %s", r.PaymentStatus)
	}
}

func TestReconcileGatewayErrorIsUpstream(t *testing.T) {
	f := newFixture(t)
	f.gw.statusErr = errors.New("503 from gateway")
	f.store.seedOrder("ORD-1", 1, feeMinor, 1)

	_, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerPoll)
	if !helper.IsKind(err, helper.KindUpstream) {
		t.Fatalf("err = %v, want upstream", err)
	}
}

func TestReconcileUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reconcile(context.Background(), "NOPE", TriggerManual)
	if !helper.IsKind(err, helper.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if f.gw.statusCalls() != 0 {
		t.Fatal("gateway must not be asked about unknown orders")
	}
}

func TestReconcileRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.store.seedOrder("ORD-1", 1, feeMinor, 1, 2)
	f.gw.set("ORD-1", gateway.StateCompleted)
	f.store.failAssign = func(id uint) error {
		if id == 2 {
			return errors.New("connection reset")
		}
		return nil
	}

	if _, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerWebhook); err == nil {
		t.Fatal("expected error")
	}
	for _, r := range f.store.orderRows("ORD-1") {
		if r.PaymentStatus != model.PaymentStatusPending {
			t.Errorf("payment %d status = %s after rollback", r.PaymentID, r.PaymentStatus)
		}
	}
	for _, id := range []uint{1, 2} {
		p := f.store.participant(id)
		if p.ParticipantIsPaymentCompleted || p.HasBib() {
			t.Errorf("participant %d kept partial state: paid=%v bib=%q", id, p.ParticipantIsPaymentCompleted, bibOf(p))
		}
	}
	if len(f.notifier.sent()) != 0 {
		t.Fatal("rolled back order must not notify")
	}

	// the next trigger completes the order
	f.store.failAssign = nil
	res, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerPoll)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Status != model.PaymentStatusSuccess {
		t.Fatalf("retry status = %s", res.Status)
	}
}

func TestReconcileBibCollisionIsConflict(t *testing.T) {
	f := newFixture(t)
	f.store.seedOrder("ORD-1", 1, feeMinor, 1)
	f.gw.set("ORD-1", gateway.StateCompleted)
	f.store.failAssign = func(uint) error { return bib.ErrBibTaken }

	_, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerWebhook)
	var ae *helper.AppError
	if !errors.As(err, &ae) || ae.Kind != helper.KindConflict || ae.Code != "BIB_COLLISION" {
		t.Fatalf("err = %v, want BIB_COLLISION conflict", err)
	}
}

func TestReconcileRecyclesOrphanedBib(t *testing.T) {
	f := newFixture(t)
	// participant 4 holds 0003 but never paid; 0005 is held by a paid runner
	three, five := "0003", "0005"
	f.store.participants[4].ParticipantBibNumber = &three
	f.store.participants[3].ParticipantBibNumber = &five
	f.store.participants[3].ParticipantIsPaymentCompleted = true

	f.store.seedOrder("ORD-1", 1, feeMinor, 1)
	f.gw.set("ORD-1", gateway.StateCompleted)

	if _, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerWebhook); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if b := bibOf(f.store.participant(1)); b != "0003" {
		t.Fatalf("bib = %q, want recycled 0003", b)
	}
	if f.store.participant(4).HasBib() {
		t.Fatal("orphaned holder still has a bib")
	}
}

func TestReconcileKeepsExistingBib(t *testing.T) {
	f := newFixture(t)
	kept := "0042"
	f.store.participants[1].ParticipantBibNumber = &kept
	f.store.seedOrder("ORD-1", 1, feeMinor, 1, 2)
	f.gw.set("ORD-1", gateway.StateCompleted)

	if _, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerWebhook); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if b := bibOf(f.store.participant(1)); b != "0042" {
		t.Fatalf("participant 1 bib = %q, want 0042 kept", b)
	}
	if b := bibOf(f.store.participant(2)); b != "0043" {
		t.Fatalf("participant 2 bib = %q, want 0043", b)
	}
}

func TestReconcileNotificationFailureDoesNotChangeResult(t *testing.T) {
	f := newFixture(t)
	f.notifier.deliver = false
	f.store.seedOrder("ORD-1", 1, feeMinor, 1)
	f.gw.set("ORD-1", gateway.StateCompleted)

	res, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerWebhook)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Status != model.PaymentStatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
	if len(res.Notifications.Failures()) != 1 {
		t.Fatalf("failures = %v", res.Notifications.Failures())
	}
	p := f.store.participant(1)
	if !p.ParticipantIsPaymentCompleted || !p.HasBib() {
		t.Fatal("payment outcome must survive notification failure")
	}
	if p.ParticipantIsNotified {
		t.Fatal("participant flagged notified without a delivery")
	}
}

func TestReconcileConcurrentOrdersGetDistinctBibs(t *testing.T) {
	f := newFixture(t)
	const orders = 12
	for i := 0; i < orders; i++ {
		id := uint(100 + i)
		f.store.addParticipant(id, 9, f.marathon)
		oid := fmt.Sprintf("ORD-%d", i)
		f.store.seedOrder(oid, 9, feeMinor, id)
		f.gw.set(oid, gateway.StateCompleted)
	}

	var wg sync.WaitGroup
	errs := make(chan error, orders)
	for i := 0; i < orders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.svc.Reconcile(context.Background(), fmt.Sprintf("ORD-%d", i), TriggerWebhook); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("reconcile: %v", err)
	}

	var bibs []string
	for i := 0; i < orders; i++ {
		bibs = append(bibs, bibOf(f.store.participant(uint(100+i))))
	}
	sort.Strings(bibs)
	for i, b := range bibs {
		if want := bib.Format(int64(i+1), 4); b != want {
			t.Fatalf("bibs = %v, want 0001..%04d without gaps or duplicates", bibs, orders)
		}
	}
}

func TestReconcileSameOrderConcurrently(t *testing.T) {
	f := newFixture(t)
	f.store.seedOrder("ORD-1", 1, feeMinor, 1, 2)
	f.gw.set("ORD-1", gateway.StateCompleted)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Reconcile(context.Background(), "ORD-1", TriggerWebhook); err != nil {
				t.Errorf("reconcile: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := len(f.notifier.sent()); n != 1 {
		t.Fatalf("notified %d times, want exactly once", n)
	}
	if a, b := bibOf(f.store.participant(1)), bibOf(f.store.participant(2)); a != "0001" || b != "0002" {
		t.Fatalf("bibs = %q %q, want 0001 0002", a, b)
	}
}

func TestStatusUsesCacheAndOwnership(t *testing.T) {
	f := newFixture(t)
	f.store.seedOrder("ORD-1", 1, feeMinor, 1)
	f.gw.set("ORD-1", gateway.StateCompleted)

	res, err := f.svc.Status(context.Background(), 1, "ORD-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if res.Status != model.PaymentStatusSuccess || res.Cached {
		t.Fatalf("first poll = %+v", res)
	}

	again, err := f.svc.Status(context.Background(), 1, "ORD-1")
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if !again.Cached || again.Status != model.PaymentStatusSuccess {
		t.Fatalf("second poll = %+v, want cached Success", again)
	}
	if f.gw.statusCalls() != 1 {
		t.Fatalf("gateway calls = %d, want 1", f.gw.statusCalls())
	}

	if _, err := f.svc.Status(context.Background(), 2, "ORD-1"); !helper.IsKind(err, helper.KindNotFound) {
		t.Fatalf("foreign poll err = %v, want not found", err)
	}
}

func TestStatusForeignOrderNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.seedOrder("ORD-1", 1, feeMinor, 1)

	if _, err := f.svc.Status(context.Background(), 2, "ORD-1"); !helper.IsKind(err, helper.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if f.gw.statusCalls() != 0 {
		t.Fatal("gateway must not be asked for a foreign order")
	}
}

func TestReconcileTakesSequenceLockBeforeParticipantRows(t *testing.T) {
	f := newFixture(t)
	f.store.seedOrder("ORD-L", 1, feeMinor, 1, 2)
	f.gw.set("ORD-L", gateway.StateCompleted)

	if _, err := f.svc.Reconcile(context.Background(), "ORD-L", TriggerPoll); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	locks := f.store.locks
	if len(locks) < 2 || locks[0] != "sequence" || locks[1] != "participants" {
		t.Fatalf("lock order = %v, want sequence before participants", locks)
	}

	f.store.locks = nil
	f.store.seedOrder("ORD-F", 1, feeMinor, 3)
	f.gw.set("ORD-F", gateway.StateFailed)
	if _, err := f.svc.Reconcile(context.Background(), "ORD-F", TriggerPoll); err != nil {
		t.Fatalf("reconcile failed order: %v", err)
	}
	if len(f.store.locks) != 0 {
		t.Fatalf("failed order took locks %v", f.store.locks)
	}
}
