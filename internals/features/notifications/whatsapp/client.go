package whatsapp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const graphBaseURL = "https://graph.facebook.com"

type Config struct {
	Token            string
	PhoneNumberID    string
	APIVersion       string
	ConfirmationTmpl string
	OTPTmpl          string
	RatePerSec       int
	// DevMode logs messages instead of calling the Graph API.
	DevMode bool
}

// Client talks to the WhatsApp Business Cloud API. All sends go through one limiter.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v21.0"
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 20
	}
	return &Client{
		cfg:     cfg,
		baseURL: graphBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log.Named("whatsapp"),
	}
}

func (c *Client) Enabled() bool {
	return c.cfg.DevMode || (c.cfg.Token != "" && c.cfg.PhoneNumberID != "")
}

type templateParam struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateComponent struct {
	Type       string          `json:"type"`
	SubType    string          `json:"sub_type,omitempty"`
	Index      string          `json:"index,omitempty"`
	Parameters []templateParam `json:"parameters"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templateBody struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type messageRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Template         templateBody `json:"template"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendTemplate sends a template message with positional body parameters.
func (c *Client) SendTemplate(ctx context.Context, to, name string, params []string, buttons ...templateComponent) error {
	to = NormalizeMobile(to)
	if to == "" {
		return fmt.Errorf("whatsapp: empty recipient")
	}
	if c.cfg.DevMode && c.cfg.Token == "" {
		c.log.Info("dev mode message", zap.String("to", to), zap.String("template", name), zap.Strings("params", params))
		return nil
	}

	body := templateComponent{Type: "body"}
	for _, p := range params {
		body.Parameters = append(body.Parameters, templateParam{Type: "text", Text: p})
	}
	req := messageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: templateBody{
			Name:       name,
			Language:   templateLanguage{Code: "en"},
			Components: append([]templateComponent{body}, buttons...),
		},
	}
	payload, err := sonic.Marshal(req)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("whatsapp: rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.cfg.APIVersion, c.cfg.PhoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var ge graphError
		if sonic.Unmarshal(raw, &ge) == nil && ge.Error.Message != "" {
			return fmt.Errorf("whatsapp: %d: %s", resp.StatusCode, ge.Error.Message)
		}
		return fmt.Errorf("whatsapp: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// SendOTP delivers a login code with the authentication template (copy-code button).
func (c *Client) SendOTP(ctx context.Context, mobile, code string) error {
	btn := templateComponent{
		Type:       "button",
		SubType:    "url",
		Index:      "0",
		Parameters: []templateParam{{Type: "text", Text: code}},
	}
	return c.SendTemplate(ctx, mobile, c.cfg.OTPTmpl, []string{code}, btn)
}

// NormalizeMobile turns a local 10-digit number into E.164 digits for India (91 prefix).
func NormalizeMobile(m string) string {
	var b strings.Builder
	for _, r := range m {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 {
		return "91" + digits
	}
	return digits
}
