package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"marathon_backend/internals/features/notifications"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendFunc matches smtp.SendMail; swapped in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Channel struct {
	cfg  Config
	send sendFunc
	log  *zap.Logger
}

func NewChannel(cfg Config, log *zap.Logger) *Channel {
	return &Channel{cfg: cfg, send: smtp.SendMail, log: log.Named("email")}
}

func (c *Channel) Name() string { return "email" }

func (c *Channel) Destination(conf notifications.Confirmation) string {
	if c.cfg.Host == "" {
		return ""
	}
	return strings.TrimSpace(conf.Email)
}

func (c *Channel) SendConfirmation(ctx context.Context, to string, conf notifications.Confirmation) bool {
	msg, err := c.build(to, conf)
	if err != nil {
		c.log.Error("build confirmation email", zap.Error(err), zap.Uint("participant_id", conf.ParticipantID))
		return false
	}

	var auth smtp.Auth
	if c.cfg.Username != "" && c.cfg.Password != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	done := make(chan error, 1)
	go func() { done <- c.send(addr, auth, c.from(), []string{to}, msg) }()

	select {
	case <-ctx.Done():
		c.log.Warn("smtp send timed out", zap.String("to", to))
		return false
	case err := <-done:
		if err != nil {
			c.log.Error("smtp send failed", zap.String("to", to), zap.Error(err))
			return false
		}
	}
	c.log.Info("confirmation email sent", zap.String("to", to), zap.Uint("participant_id", conf.ParticipantID))
	return true
}

func (c *Channel) from() string {
	if c.cfg.From != "" {
		return c.cfg.From
	}
	return c.cfg.Username
}

// build renders a multipart/related message: HTML body plus the bib QR as an inline PNG.
func (c *Channel) build(to string, conf notifications.Confirmation) ([]byte, error) {
	html, err := RenderConfirmation(conf)
	if err != nil {
		return nil, err
	}
	qr, err := BibQRCode(conf)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", c.from())
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject(conf)))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/related; boundary=%s\r\n\r\n", w.Boundary())

	htmlPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeQuotedPrintable(htmlPart, html); err != nil {
		return nil, err
	}

	imgPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"image/png"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-ID":                {"<" + qrContentID + ">"},
		"Content-Disposition":       {fmt.Sprintf("inline; filename=\"bib-%s.png\"", conf.Bib)},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64Lines(imgPart, qr); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func subject(conf notifications.Confirmation) string {
	if conf.MarathonName != "" {
		return "Registration confirmed: " + conf.MarathonName
	}
	return "Registration confirmed"
}

// RFC 2045 line limit
func writeBase64Lines(w interface{ Write([]byte) (int, error) }, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := w.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := w.Write([]byte(enc + "\r\n"))
	return err
}
