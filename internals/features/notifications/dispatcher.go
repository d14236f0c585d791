// Package notifications sends post-payment confirmations. Channels swallow their
// own transport errors; the dispatcher only reports what was delivered.
package notifications

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Confirmation is the payload every channel renders.
type Confirmation struct {
	ParticipantID uint
	OrderID       string
	Name          string
	Email         string
	Mobile        string
	Bib           string
	MarathonType  string
	TshirtSize    string

	MarathonName  string
	MarathonDate  *time.Time
	Location      string
	ReportingTime string
	RunStartTime  string
}

type Channel interface {
	Name() string
	// Destination picks the address for this channel; "" means skip.
	Destination(c Confirmation) string
	SendConfirmation(ctx context.Context, destination string, c Confirmation) bool
}

type Delivery struct {
	ParticipantID uint   `json:"participant_id"`
	Channel       string `json:"channel"`
	Destination   string `json:"destination,omitempty"`
	Delivered     bool   `json:"delivered"`
	Skipped       bool   `json:"skipped,omitempty"`
}

type Report struct {
	Deliveries []Delivery `json:"deliveries"`
	// participants that got at least one participant-facing message
	Notified []uint `json:"notified"`
}

func (r Report) Failures() []Delivery {
	var out []Delivery
	for _, d := range r.Deliveries {
		if !d.Delivered && !d.Skipped {
			out = append(out, d)
		}
	}
	return out
}

type Dispatcher struct {
	channels []Channel
	alerts   []Channel
	timeout  time.Duration
	log      *zap.Logger
}

func NewDispatcher(log *zap.Logger, timeout time.Duration, channels ...Channel) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{channels: channels, timeout: timeout, log: log.Named("notify")}
}

// WithAlerts adds ops-facing channels; they do not count towards "notified".
func (d *Dispatcher) WithAlerts(alerts ...Channel) *Dispatcher {
	d.alerts = append(d.alerts, alerts...)
	return d
}

// Dispatch tries every channel for every confirmation. One failure never stops the others.
func (d *Dispatcher) Dispatch(ctx context.Context, confirmations []Confirmation) Report {
	var rep Report
	for _, c := range confirmations {
		notified := false
		for _, ch := range d.channels {
			del := d.send(ctx, ch, c)
			rep.Deliveries = append(rep.Deliveries, del)
			if del.Delivered {
				notified = true
			}
		}
		for _, ch := range d.alerts {
			rep.Deliveries = append(rep.Deliveries, d.send(ctx, ch, c))
		}
		if notified {
			rep.Notified = append(rep.Notified, c.ParticipantID)
		}
	}
	return rep
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, c Confirmation) (del Delivery) {
	del = Delivery{ParticipantID: c.ParticipantID, Channel: ch.Name()}
	dest := ch.Destination(c)
	if dest == "" {
		del.Skipped = true
		return del
	}
	del.Destination = dest

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("channel panicked", zap.String("channel", ch.Name()), zap.Any("panic", r))
			del.Delivered = false
		}
		if !del.Delivered {
			notificationFailures.WithLabelValues(ch.Name()).Inc()
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	del.Delivered = ch.SendConfirmation(cctx, dest, c)
	if !del.Delivered {
		d.log.Warn("confirmation not delivered",
			zap.String("channel", ch.Name()),
			zap.Uint("participant_id", c.ParticipantID),
			zap.String("order_id", c.OrderID))
	}
	return del
}
