package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	marathonModel "marathon_backend/internals/features/events/marathons/model"
	participantModel "marathon_backend/internals/features/events/participants/model"
	"marathon_backend/internals/features/finance/payments/bib"
	"marathon_backend/internals/features/finance/payments/gateway"
	model "marathon_backend/internals/features/finance/payments/model"
	"marathon_backend/internals/features/finance/payments/repository"
	"marathon_backend/internals/features/notifications"
)

/* =======================================================================
   memStore: OrderStore with serialised, all-or-nothing transactions
======================================================================= */

type memStore struct {
	mu           sync.Mutex
	payments     []model.Payment
	participants map[uint]*participantModel.ParticipantModel
	nextID       uint
	notified     []uint

	// failAssign, when set, is consulted before every AssignBib.
	failAssign func(participantID uint) error
	// locks records lock acquisitions inside transactions, in order.
	locks []string
}

func newMemStore() *memStore {
	return &memStore{participants: map[uint]*participantModel.ParticipantModel{}}
}

func (s *memStore) addParticipant(id, userID uint, m *marathonModel.MarathonModel) {
	email := "runner" + strconv.Itoa(int(id)) + "@example.com"
	s.participants[id] = &participantModel.ParticipantModel{
		ParticipantID:           id,
		ParticipantUserID:       userID,
		ParticipantMarathonID:   m.MarathonID,
		ParticipantMarathonType: participantModel.MarathonTypeOpen,
		Details: &participantModel.ParticipantDetailsModel{
			ParticipantDetailsFullName:      "Runner " + strconv.Itoa(int(id)),
			ParticipantDetailsEmail:         &email,
			ParticipantDetailsContactNumber: "98765432" + strconv.Itoa(10+int(id)),
			ParticipantDetailsTshirtSize:    participantModel.TshirtM,
		},
		Marathon: m,
	}
}

func (s *memStore) seedOrder(orderID string, userID uint, amount int64, ids ...uint) {
	for _, id := range ids {
		s.nextID++
		s.payments = append(s.payments, model.Payment{
			PaymentID:            s.nextID,
			PaymentOrderID:       orderID,
			PaymentParticipantID: id,
			PaymentUserID:        userID,
			PaymentAmountMinor:   amount,
			PaymentStatus:        model.PaymentStatusPending,
		})
	}
}

func (s *memStore) participant(id uint) participantModel.ParticipantModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.participants[id]
}

func (s *memStore) orderRows(orderID string) []model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for _, p := range s.payments {
		if p.PaymentOrderID == orderID {
			out = append(out, p)
		}
	}
	return out
}

func (s *memStore) LoadOrder(_ context.Context, orderID string) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for _, p := range s.payments {
		if p.PaymentOrderID != orderID {
			continue
		}
		if part, ok := s.participants[p.PaymentParticipantID]; ok {
			cp := *part
			p.Participant = &cp
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) InTx(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	savedPayments := append([]model.Payment(nil), s.payments...)
	savedParts := make(map[uint]participantModel.ParticipantModel, len(s.participants))
	for id, p := range s.participants {
		savedParts[id] = *p
	}
	savedNext := s.nextID

	if err := fn(&memTx{s: s}); err != nil {
		s.payments = savedPayments
		for id, p := range savedParts {
			cp := p
			s.participants[id] = &cp
		}
		s.nextID = savedNext
		return err
	}
	return nil
}

func (s *memStore) MarkNotified(_ context.Context, ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if p, ok := s.participants[id]; ok {
			p.ParticipantIsNotified = true
		}
	}
	s.notified = append(s.notified, ids...)
	return nil
}

// memTx runs with memStore.mu held.
type memTx struct {
	s *memStore
}

func (t *memTx) LockOrder(_ context.Context, orderID string) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range t.s.payments {
		if p.PaymentOrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *memTx) SettleOrder(_ context.Context, orderID string, status model.PaymentStatus, txID *string) (int64, error) {
	var n int64
	for i := range t.s.payments {
		p := &t.s.payments[i]
		if p.PaymentOrderID != orderID || p.PaymentStatus != model.PaymentStatusPending {
			continue
		}
		p.PaymentStatus = status
		if txID != nil {
			id := *txID
			p.PaymentTransactionID = &id
		}
		n++
	}
	return n, nil
}

func (t *memTx) LockParticipants(_ context.Context, ids []uint) ([]participantModel.ParticipantModel, error) {
	t.s.locks = append(t.s.locks, "participants")
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var out []participantModel.ParticipantModel
	for _, id := range sorted {
		if p, ok := t.s.participants[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (t *memTx) MarkPaid(_ context.Context, id uint) error {
	t.s.participants[id].ParticipantIsPaymentCompleted = true
	return nil
}

func (t *memTx) AssignBib(_ context.Context, id uint, b string) error {
	if t.s.failAssign != nil {
		if err := t.s.failAssign(id); err != nil {
			return err
		}
	}
	for pid, p := range t.s.participants {
		if pid != id && p.HasBib() && *p.ParticipantBibNumber == b {
			return bib.ErrBibTaken
		}
	}
	v := b
	t.s.participants[id].ParticipantBibNumber = &v
	return nil
}

func (t *memTx) CreatePayments(_ context.Context, rows []model.Payment) error {
	for _, r := range rows {
		t.s.nextID++
		r.PaymentID = t.s.nextID
		t.s.payments = append(t.s.payments, r)
	}
	return nil
}

func (t *memTx) Bibs() bib.Store { return memBibs{t.s} }

type memBibs struct {
	s *memStore
}

func (b memBibs) LockSequence(context.Context) error {
	b.s.locks = append(b.s.locks, "sequence")
	return nil
}

func (b memBibs) SmallestRecyclable(context.Context) (uint, string, bool, error) {
	var (
		best   uint
		bestN  int64 = -1
		bestNo string
	)
	for id, p := range b.s.participants {
		if p.ParticipantIsPaymentCompleted || !p.HasBib() || !bib.IsNumeric(*p.ParticipantBibNumber) {
			continue
		}
		n, _ := strconv.ParseInt(*p.ParticipantBibNumber, 10, 64)
		if bestN < 0 || n < bestN {
			best, bestN, bestNo = id, n, *p.ParticipantBibNumber
		}
	}
	return best, bestNo, bestN >= 0, nil
}

func (b memBibs) ReleaseBib(_ context.Context, id uint) error {
	b.s.participants[id].ParticipantBibNumber = nil
	return nil
}

func (b memBibs) MaxNumericBib(context.Context) (int64, error) {
	var top int64
	for _, p := range b.s.participants {
		if !p.HasBib() || !bib.IsNumeric(*p.ParticipantBibNumber) {
			continue
		}
		if n, _ := strconv.ParseInt(*p.ParticipantBibNumber, 10, 64); n > top {
			top = n
		}
	}
	return top, nil
}

/* =======================================================================
   gateway, notifier, cache
======================================================================= */

type fakeGateway struct {
	mu         sync.Mutex
	states     map[string]gateway.State
	statusErr  error
	sessionErr error
	block      bool
	calls      int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{states: map[string]gateway.State{}}
}

func (g *fakeGateway) set(orderID string, st gateway.State) {
	g.mu.Lock()
	g.states[orderID] = st
	g.mu.Unlock()
}

func (g *fakeGateway) statusCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, orderID string, _ int64, _ string) (gateway.Session, error) {
	if g.sessionErr != nil {
		return gateway.Session{}, g.sessionErr
	}
	g.set(orderID, gateway.StatePending)
	return gateway.Session{SessionURL: "https://pay.example.test/checkout/" + orderID, Token: orderID}, nil
}

func (g *fakeGateway) GetOrderStatus(ctx context.Context, orderID string) (gateway.OrderStatus, error) {
	g.mu.Lock()
	g.calls++
	st, ok := g.states[orderID]
	block, err := g.block, g.statusErr
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return gateway.OrderStatus{}, ctx.Err()
	}
	if err != nil {
		return gateway.OrderStatus{}, err
	}
	if !ok {
		st = gateway.StatePending
	}
	out := gateway.OrderStatus{State: st, RawState: string(st)}
	if st == gateway.StateCompleted {
		out.Transactions = []gateway.Transaction{{TransactionID: "TX-" + orderID}}
	}
	return out, nil
}

func (g *fakeGateway) ParseNotification([]byte) (gateway.Notification, error) {
	return gateway.Notification{}, gateway.ErrBadPayload
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches [][]notifications.Confirmation
	deliver bool
}

func (n *fakeNotifier) Dispatch(_ context.Context, cs []notifications.Confirmation) notifications.Report {
	n.mu.Lock()
	n.batches = append(n.batches, cs)
	n.mu.Unlock()

	var rep notifications.Report
	for _, c := range cs {
		rep.Deliveries = append(rep.Deliveries, notifications.Delivery{
			ParticipantID: c.ParticipantID,
			Channel:       "fake",
			Destination:   c.Email,
			Delivered:     n.deliver,
		})
		if n.deliver {
			rep.Notified = append(rep.Notified, c.ParticipantID)
		}
	}
	return rep
}

func (n *fakeNotifier) sent() [][]notifications.Confirmation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]notifications.Confirmation(nil), n.batches...)
}

type memCache struct {
	mu sync.Mutex
	m  map[string]CachedStatus
}

func (c *memCache) Get(_ context.Context, orderID string) (*CachedStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[orderID]
	if !ok {
		return nil, false
	}
	return &v, true
}

func (c *memCache) Set(_ context.Context, orderID string, v CachedStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]CachedStatus{}
	}
	c.m[orderID] = v
}

/* =======================================================================
   fixture
======================================================================= */

const feeMinor int64 = 50000

type fixture struct {
	store    *memStore
	gw       *fakeGateway
	notifier *fakeNotifier
	cache    *memCache
	svc      *OrderService
	marathon *marathonModel.MarathonModel
}

// newFixture: user 1 owns participants 1-3, user 2 owns participant 4.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc := "Pune"
	m := &marathonModel.MarathonModel{
		MarathonID:              1,
		MarathonName:            "City Run",
		MarathonLocation:        &loc,
		MarathonFeesAmountMinor: feeMinor,
	}
	store := newMemStore()
	for id := uint(1); id <= 3; id++ {
		store.addParticipant(id, 1, m)
	}
	store.addParticipant(4, 2, m)

	f := &fixture{
		store:    store,
		gw:       newFakeGateway(),
		notifier: &fakeNotifier{deliver: true},
		cache:    &memCache{},
		marathon: m,
	}
	f.svc = NewOrderService(Deps{
		Store:          store,
		Gateway:        f.gw,
		Allocator:      bib.NewAllocator(4),
		Notifier:       f.notifier,
		Cache:          f.cache,
		Log:            zaptest.NewLogger(t),
		GatewayTimeout: time.Second,
		PublicBaseURL:  "http://api.example.test/",
	})
	return f
}

func bibOf(p participantModel.ParticipantModel) string {
	if p.ParticipantBibNumber == nil {
		return ""
	}
	return *p.ParticipantBibNumber
}
