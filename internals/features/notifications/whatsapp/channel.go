package whatsapp

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"marathon_backend/internals/features/notifications"
)

// Channel adapts Client to notifications.Channel using the confirmation template.
type Channel struct {
	client *Client
}

func NewChannel(client *Client) *Channel {
	return &Channel{client: client}
}

func (ch *Channel) Name() string { return "whatsapp" }

func (ch *Channel) Destination(c notifications.Confirmation) string {
	if !ch.client.Enabled() {
		return ""
	}
	return strings.TrimSpace(c.Mobile)
}

func (ch *Channel) SendConfirmation(ctx context.Context, to string, c notifications.Confirmation) bool {
	date := ""
	if c.MarathonDate != nil {
		date = c.MarathonDate.Format("02 Jan 2006")
	}
	params := []string{
		nonEmpty(c.Name),
		nonEmpty(c.MarathonName),
		nonEmpty(c.Bib),
		nonEmpty(c.MarathonType),
		nonEmpty(date),
		nonEmpty(c.ReportingTime),
	}
	if err := ch.client.SendTemplate(ctx, to, ch.client.cfg.ConfirmationTmpl, params); err != nil {
		ch.client.log.Warn("confirmation message failed",
			zap.Uint("participant_id", c.ParticipantID),
			zap.Error(err))
		return false
	}
	return true
}

// template parameters may not be blank
func nonEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
