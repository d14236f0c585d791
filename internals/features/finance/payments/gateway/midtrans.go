package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

/* =========================================================
   Midtrans Client (Snap checkout + Core API status)
========================================================= */

type MidtransClient struct {
	snap snap.Client
	core coreapi.Client
}

// NewMidtransClient: useProduction=false talks to the sandbox.
func NewMidtransClient(serverKey string, useProduction bool) *MidtransClient {
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	c := &MidtransClient{}
	c.snap.New(serverKey, env)
	c.core.New(serverKey, env)
	return c
}

func (c *MidtransClient) Name() string { return "midtrans" }

func (c *MidtransClient) CreateCheckoutSession(ctx context.Context, orderID string, amountMinor int64, redirectURL string) (Session, error) {
	if amountMinor <= 0 {
		return Session{}, fmt.Errorf("midtrans: invalid amount %d", amountMinor)
	}
	if orderID == "" {
		return Session{}, fmt.Errorf("midtrans: order id is required")
	}
	// Snap takes whole currency units; a fractional total would not match the payment lines
	if amountMinor%100 != 0 {
		return Session{}, fmt.Errorf("midtrans: amount %d minor units is not a whole currency amount", amountMinor)
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID: orderID,
			GrossAmt: amountMinor / 100,
		},
		Callbacks: &snap.Callbacks{Finish: redirectURL},
	}

	resp, err := call(ctx, func() (*snap.Response, error) {
		r, merr := c.snap.CreateTransaction(req)
		if merr != nil {
			return nil, merr
		}
		return r, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("midtrans create transaction: %w", err)
	}
	return Session{SessionURL: resp.RedirectURL, Token: resp.Token}, nil
}

func (c *MidtransClient) GetOrderStatus(ctx context.Context, orderID string) (OrderStatus, error) {
	resp, err := call(ctx, func() (*coreapi.TransactionStatusResponse, error) {
		r, merr := c.core.CheckTransaction(orderID)
		if merr != nil {
			return nil, merr
		}
		return r, nil
	})
	if err != nil {
		var merr *midtrans.Error
		// order not (yet) known to midtrans: payer never opened the checkout
		if errors.As(err, &merr) && merr.StatusCode == 404 {
			return OrderStatus{State: StatePending, RawState: "not_found"}, nil
		}
		return OrderStatus{}, fmt.Errorf("midtrans check transaction: %w", err)
	}

	out := OrderStatus{
		State:    MapMidtransStatus(resp.TransactionStatus, resp.FraudStatus),
		RawState: resp.TransactionStatus,
	}
	if resp.TransactionID != "" {
		out.Transactions = []Transaction{{TransactionID: resp.TransactionID}}
	}
	return out, nil
}

type midtransNotif struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

func (c *MidtransClient) ParseNotification(body []byte) (Notification, error) {
	var n midtransNotif
	if err := sonic.Unmarshal(body, &n); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if strings.TrimSpace(n.OrderID) == "" {
		return Notification{}, fmt.Errorf("%w: order_id missing", ErrBadPayload)
	}
	return Notification{Event: n.TransactionStatus, OrderID: n.OrderID}, nil
}

// MapMidtransStatus folds Midtrans transaction_status/fraud_status into a gateway State.
func MapMidtransStatus(transactionStatus, fraudStatus string) State {
	ts := strings.ToLower(transactionStatus)
	fraud := strings.ToLower(fraudStatus)

	switch ts {
	case "capture":
		if fraud == "accept" || fraud == "" {
			return StateCompleted
		}
		if fraud == "challenge" {
			return StatePending
		}
		return StateFailed
	case "settlement":
		return StateCompleted
	case "deny", "cancel", "expire", "failure":
		return StateFailed
	}
	return StatePending
}
