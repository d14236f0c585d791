// Package gateway wraps the hosted-checkout payment provider.
package gateway

import (
	"context"
	"errors"
)

type State string

const (
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
	StatePending   State = "PENDING"
)

var (
	ErrUnauthorized = errors.New("gateway: callback authentication failed")
	ErrBadPayload   = errors.New("gateway: malformed notification payload")
)

type Session struct {
	SessionURL string
	Token      string
}

type Transaction struct {
	TransactionID string
}

type OrderStatus struct {
	State        State
	RawState     string
	Transactions []Transaction
}

func (s OrderStatus) TransactionID() *string {
	for _, t := range s.Transactions {
		if t.TransactionID != "" {
			id := t.TransactionID
			return &id
		}
	}
	return nil
}

// Notification is what a webhook body claims. It only tells us which order to re-check.
type Notification struct {
	Event   string
	OrderID string
}

type Client interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, orderID string, amountMinor int64, redirectURL string) (Session, error)
	GetOrderStatus(ctx context.Context, orderID string) (OrderStatus, error)
	ParseNotification(body []byte) (Notification, error)
}

// Verifier authenticates an inbound callback before it may trigger reconciliation.
type Verifier interface {
	Verify(headers map[string]string, body []byte) error
}

// call runs fn on its own goroutine so SDK calls without context support still
// honour ctx deadlines.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
