package email

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"marathon_backend/internals/features/notifications"
)

func sample() notifications.Confirmation {
	d := time.Date(2026, 12, 6, 0, 0, 0, 0, time.UTC)
	return notifications.Confirmation{
		ParticipantID: 7,
		OrderID:       "MRN-42",
		Name:          "Asha <Rao>",
		Email:         " asha@example.test ",
		Bib:           "0042",
		MarathonType:  "21K",
		MarathonName:  "City Run",
		MarathonDate:  &d,
		Location:      "Pune",
	}
}

func TestRenderConfirmationEscapesAndFormats(t *testing.T) {
	html, err := RenderConfirmation(sample())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Asha &lt;Rao&gt;", "0042", "06 Dec 2026", "Pune", "cid:bib-qr"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered html missing %q", want)
		}
	}
	if strings.Contains(html, "T-shirt") {
		t.Error("empty t-shirt row should be omitted")
	}
}

func TestBibQRCodeIsPNG(t *testing.T) {
	b, err := BibQRCode(sample())
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("not a png: %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Fatalf("width = %d, want 256", img.Bounds().Dx())
	}
}

func TestSendConfirmationBuildsMultipartMessage(t *testing.T) {
	ch := NewChannel(Config{Host: "smtp.example.test", Port: 587, Username: "noreply@example.test", Password: "pw"}, zaptest.NewLogger(t))

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	ch.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	conf := sample()
	dest := ch.Destination(conf)
	if dest != "asha@example.test" {
		t.Fatalf("destination = %q", dest)
	}
	if !ch.SendConfirmation(context.Background(), dest, conf) {
		t.Fatal("send reported failure")
	}
	if gotAddr != "smtp.example.test:587" || len(gotTo) != 1 || gotTo[0] != dest {
		t.Fatalf("addr %q to %v", gotAddr, gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{
		"From: noreply@example.test\r\n",
		"Content-Type: multipart/related; boundary=",
		"Content-ID: <bib-qr>",
		"bib-0042.png",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendConfirmationReportsTransportFailure(t *testing.T) {
	ch := NewChannel(Config{Host: "smtp.example.test", Port: 25}, zaptest.NewLogger(t))
	ch.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	if ch.SendConfirmation(context.Background(), "a@example.test", sample()) {
		t.Fatal("failed send reported as delivered")
	}
}

func TestDestinationDisabledWithoutHost(t *testing.T) {
	ch := NewChannel(Config{}, zaptest.NewLogger(t))
	if d := ch.Destination(sample()); d != "" {
		t.Fatalf("destination = %q, want skip", d)
	}
}
