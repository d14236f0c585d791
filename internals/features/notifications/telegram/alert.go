package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"marathon_backend/internals/features/notifications"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AlertChannel posts a short line to the organisers' chat for every newly paid entry.
type AlertChannel struct {
	bot    sender
	chatID int64
	log    *zap.Logger
}

func NewAlertChannel(token string, chatID int64, log *zap.Logger) (*AlertChannel, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &AlertChannel{bot: bot, chatID: chatID, log: log.Named("telegram")}, nil
}

func (a *AlertChannel) Name() string { return "telegram" }

func (a *AlertChannel) Destination(notifications.Confirmation) string {
	return strconv.FormatInt(a.chatID, 10)
}

func (a *AlertChannel) SendConfirmation(ctx context.Context, _ string, c notifications.Confirmation) bool {
	msg := tgbotapi.NewMessage(a.chatID, FormatAlert(c))

	done := make(chan error, 1)
	go func() {
		_, err := a.bot.Send(msg)
		done <- err
	}()
	select {
	case <-ctx.Done():
		return false
	case err := <-done:
		if err != nil {
			a.log.Warn("telegram alert failed", zap.Error(err))
			return false
		}
		return true
	}
}

func FormatAlert(c notifications.Confirmation) string {
	var b strings.Builder
	b.WriteString("New paid entry\n")
	fmt.Fprintf(&b, "Bib: %s\n", c.Bib)
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	if c.MarathonName != "" {
		fmt.Fprintf(&b, "Event: %s (%s)\n", c.MarathonName, c.MarathonType)
	}
	if c.TshirtSize != "" {
		fmt.Fprintf(&b, "T-shirt: %s\n", c.TshirtSize)
	}
	fmt.Fprintf(&b, "Order: %s", c.OrderID)
	return b.String()
}
