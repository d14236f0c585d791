package notifications

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeChannel struct {
	name   string
	ok     bool
	panics bool
	skip   bool
	sent   []string
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Destination(c Confirmation) string {
	if f.skip {
		return ""
	}
	return c.Email
}

func (f *fakeChannel) SendConfirmation(_ context.Context, dest string, _ Confirmation) bool {
	f.sent = append(f.sent, dest)
	if f.panics {
		panic("boom")
	}
	return f.ok
}

func confirmations() []Confirmation {
	return []Confirmation{
		{ParticipantID: 1, OrderID: "MRN-1", Email: "a@example.test", Bib: "0001"},
		{ParticipantID: 2, OrderID: "MRN-1", Email: "b@example.test", Bib: "0002"},
	}
}

func TestDispatchIsolatesChannelFailures(t *testing.T) {
	broken := &fakeChannel{name: "broken", panics: true}
	failing := &fakeChannel{name: "failing"}
	working := &fakeChannel{name: "working", ok: true}

	d := NewDispatcher(zaptest.NewLogger(t), time.Second, broken, failing, working)
	rep := d.Dispatch(context.Background(), confirmations())

	if len(working.sent) != 2 {
		t.Fatalf("working channel sent %d, want 2", len(working.sent))
	}
	if len(rep.Deliveries) != 6 {
		t.Fatalf("deliveries = %d, want 6", len(rep.Deliveries))
	}
	if len(rep.Notified) != 2 || rep.Notified[0] != 1 || rep.Notified[1] != 2 {
		t.Fatalf("notified = %v", rep.Notified)
	}
	if n := len(rep.Failures()); n != 4 {
		t.Fatalf("failures = %d, want 4", n)
	}
}

func TestDispatchSkipsChannelsWithoutDestination(t *testing.T) {
	off := &fakeChannel{name: "off", skip: true}
	d := NewDispatcher(zaptest.NewLogger(t), 0, off)
	rep := d.Dispatch(context.Background(), confirmations()[:1])

	if len(off.sent) != 0 {
		t.Fatal("skipped channel must not be called")
	}
	if len(rep.Deliveries) != 1 || !rep.Deliveries[0].Skipped {
		t.Fatalf("deliveries = %+v", rep.Deliveries)
	}
	if len(rep.Failures()) != 0 || len(rep.Notified) != 0 {
		t.Fatalf("skip is neither failure nor notification: %+v", rep)
	}
}

func TestAlertsDoNotCountAsNotified(t *testing.T) {
	alert := &fakeChannel{name: "alert", ok: true}
	failing := &fakeChannel{name: "mail"}
	d := NewDispatcher(zaptest.NewLogger(t), time.Second, failing).WithAlerts(alert)

	rep := d.Dispatch(context.Background(), confirmations()[:1])
	if len(alert.sent) != 1 {
		t.Fatalf("alert sent %d, want 1", len(alert.sent))
	}
	if len(rep.Notified) != 0 {
		t.Fatalf("alert delivery counted as notification: %v", rep.Notified)
	}
}
