package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	model "marathon_backend/internals/features/finance/payments/model"
	helper "marathon_backend/internals/helpers"
)

func conflictCode(err error) string {
	var ae *helper.AppError
	if errors.As(err, &ae) && ae.Kind == helper.KindConflict {
		return ae.Code
	}
	return ""
}

func TestCreateOrderWritesPendingLines(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:             1,
		ParticipantIDs:     []uint{2, 1, 2},
		ExpectedTotalMinor: 2 * feeMinor,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(res.OrderID, "MRN-") {
		t.Fatalf("order id = %q", res.OrderID)
	}
	if res.TotalMinor != 2*feeMinor || res.TotalAmount != "1000.00" {
		t.Fatalf("total = %d / %s", res.TotalMinor, res.TotalAmount)
	}
	if !strings.HasSuffix(res.PaymentURL, res.OrderID) {
		t.Fatalf("payment url = %q", res.PaymentURL)
	}

	rows := f.store.orderRows(res.OrderID)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (duplicates collapsed)", len(rows))
	}
	for _, r := range rows {
		if r.PaymentStatus != model.PaymentStatusPending || r.PaymentAmountMinor != feeMinor || r.PaymentUserID != 1 {
			t.Errorf("row = %+v", r)
		}
	}
}

func TestCreateOrderAmountTolerance(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, ParticipantIDs: []uint{1}, ExpectedTotalMinor: feeMinor - 1,
	}); err != nil {
		t.Fatalf("one minor unit off must pass: %v", err)
	}

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, ParticipantIDs: []uint{2}, ExpectedTotalMinor: feeMinor + 2,
	})
	if conflictCode(err) != "AMOUNT_MISMATCH" {
		t.Fatalf("err = %v, want AMOUNT_MISMATCH", err)
	}
	var ae *helper.AppError
	errors.As(err, &ae)
	if d, _ := ae.Details.(map[string]any); d["delta_minor"] != int64(-2) {
		t.Fatalf("details = %v", ae.Details)
	}
	if len(f.store.payments) != 1 {
		t.Fatalf("mismatch must not write rows, have %d", len(f.store.payments))
	}
}

func TestCreateOrderRejectsPaidParticipant(t *testing.T) {
	f := newFixture(t)
	f.store.participants[2].ParticipantIsPaymentCompleted = true

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, ParticipantIDs: []uint{1, 2}, ExpectedTotalMinor: 2 * feeMinor,
	})
	if conflictCode(err) != "PARTICIPANT_ALREADY_PAID" {
		t.Fatalf("err = %v, want PARTICIPANT_ALREADY_PAID", err)
	}
	if len(f.store.payments) != 0 {
		t.Fatal("no rows may be written")
	}
}

func TestCreateOrderRejectsForeignParticipant(t *testing.T) {
	f := newFixture(t)

	for _, ids := range [][]uint{{1, 4}, {1, 99}} {
		_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
			UserID: 1, ParticipantIDs: ids, ExpectedTotalMinor: 2 * feeMinor,
		})
		if conflictCode(err) != "PARTICIPANT_NOT_FOUND" {
			t.Fatalf("ids %v: err = %v, want PARTICIPANT_NOT_FOUND", ids, err)
		}
	}
	if len(f.store.payments) != 0 {
		t.Fatal("no rows may be written")
	}
}

func TestCreateOrderRequiresParticipants(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{UserID: 1, ParticipantIDs: []uint{0}})
	if !helper.IsKind(err, helper.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gw.sessionErr = errors.New("gateway down")

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 1, ParticipantIDs: []uint{1}, ExpectedTotalMinor: feeMinor,
	})
	if !helper.IsKind(err, helper.KindUpstream) {
		t.Fatalf("err = %v, want upstream", err)
	}
	// the lines stay Pending; reconciliation settles them later
	if len(f.store.payments) != 1 || f.store.payments[0].PaymentStatus != model.PaymentStatusPending {
		t.Fatalf("payments = %+v", f.store.payments)
	}
}

func TestGenOrderID(t *testing.T) {
	a, b := GenOrderID("MRN"), GenOrderID("MRN")
	if a == b {
		t.Fatalf("order ids collide: %s", a)
	}
	parts := strings.Split(a, "-")
	if len(parts) != 4 || parts[0] != "MRN" || len(parts[1]) != 8 || len(parts[2]) != 6 || len(parts[3]) != 8 {
		t.Fatalf("unexpected order id shape %q", a)
	}
}
