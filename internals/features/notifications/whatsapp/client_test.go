package whatsapp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"marathon_backend/internals/features/notifications"
)

func TestNormalizeMobile(t *testing.T) {
	cases := map[string]string{
		"98765 43210":     "919876543210",
		"+91 98765-43210": "919876543210",
		"919876543210":    "919876543210",
		"":                "",
	}
	for in, want := range cases {
		if got := NormalizeMobile(in); got != want {
			t.Errorf("NormalizeMobile(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSendTemplatePostsToGraphAPI(t *testing.T) {
	var path, auth, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, auth = r.URL.Path, r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{Token: "tok", PhoneNumberID: "123", ConfirmationTmpl: "bib_confirmed"}, zaptest.NewLogger(t))
	c.baseURL = srv.URL
	ch := NewChannel(c)

	conf := notifications.Confirmation{ParticipantID: 1, Name: "Asha", Mobile: "9876543210", Bib: "0007"}
	if !ch.SendConfirmation(context.Background(), ch.Destination(conf), conf) {
		t.Fatal("send reported failure")
	}
	if path != "/v21.0/123/messages" || auth != "Bearer tok" {
		t.Fatalf("path %q auth %q", path, auth)
	}
	for _, want := range []string{`"to":"919876543210"`, `"name":"bib_confirmed"`, `"text":"0007"`, `"text":"-"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
}

func TestSendTemplateSurfacesGraphError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid parameter","code":100}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{Token: "tok", PhoneNumberID: "123"}, zaptest.NewLogger(t))
	c.baseURL = srv.URL
	err := c.SendOTP(context.Background(), "9876543210", "123456")
	if err == nil || !strings.Contains(err.Error(), "Invalid parameter") {
		t.Fatalf("err = %v", err)
	}
}

func TestDisabledClientSkips(t *testing.T) {
	ch := NewChannel(NewClient(Config{}, zaptest.NewLogger(t)))
	if d := ch.Destination(notifications.Confirmation{Mobile: "9876543210"}); d != "" {
		t.Fatalf("destination = %q, want skip", d)
	}
}
