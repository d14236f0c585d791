package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

// StubClient is an in-process gateway for local runs and tests.
// CreateCheckoutSession hands out a link to /api/payments/stub/pay; visiting it
// settles the order and bounces the payer to the redirect URL.
type StubClient struct {
	baseURL string

	mu       sync.Mutex
	orders   map[string]State
	amounts  map[string]int64
	redirect map[string]string
}

func NewStubClient(baseURL string) *StubClient {
	return &StubClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		orders:   map[string]State{},
		amounts:  map[string]int64{},
		redirect: map[string]string{},
	}
}

func (s *StubClient) Name() string { return "stub" }

func (s *StubClient) CreateCheckoutSession(ctx context.Context, orderID string, amountMinor int64, redirectURL string) (Session, error) {
	if orderID == "" || amountMinor <= 0 {
		return Session{}, fmt.Errorf("stub: invalid order %q amount %d", orderID, amountMinor)
	}
	s.mu.Lock()
	s.orders[orderID] = StatePending
	s.amounts[orderID] = amountMinor
	s.redirect[orderID] = redirectURL
	s.mu.Unlock()

	u := "/api/payments/stub/pay?orderId=" + url.QueryEscape(orderID)
	return Session{SessionURL: s.baseURL + u, Token: orderID}, nil
}

func (s *StubClient) GetOrderStatus(ctx context.Context, orderID string) (OrderStatus, error) {
	if err := ctx.Err(); err != nil {
		return OrderStatus{}, err
	}
	s.mu.Lock()
	st, ok := s.orders[orderID]
	s.mu.Unlock()
	if !ok {
		return OrderStatus{State: StatePending, RawState: "unknown"}, nil
	}
	out := OrderStatus{State: st, RawState: string(st)}
	if st == StateCompleted {
		out.Transactions = []Transaction{{TransactionID: "STUB-" + orderID}}
	}
	return out, nil
}

// stub webhook body: {"event":"checkout.order.completed","payload":{"merchantOrderId":"..."}}
type stubNotification struct {
	Event   string `json:"event"`
	Payload struct {
		MerchantOrderID string `json:"merchantOrderId"`
		OrderID         string `json:"orderId"`
	} `json:"payload"`
}

func (s *StubClient) ParseNotification(body []byte) (Notification, error) {
	var n stubNotification
	if err := sonic.Unmarshal(body, &n); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	id := n.Payload.MerchantOrderID
	if id == "" {
		id = n.Payload.OrderID
	}
	if id == "" {
		return Notification{}, fmt.Errorf("%w: merchantOrderId missing", ErrBadPayload)
	}
	return Notification{Event: n.Event, OrderID: id}, nil
}

// Complete sets the stub's state for an order and returns where the payer should go next.
func (s *StubClient) Complete(orderID string, st State) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return "", false
	}
	s.orders[orderID] = st
	return s.redirect[orderID], true
}
