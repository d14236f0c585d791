package gateway

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/bytedance/sonic"
)

// SharedSecretVerifier expects Authorization: hex(SHA256(username:password)),
// optionally prefixed with "SHA256 " or "SHA256:".
type SharedSecretVerifier struct {
	Username string
	Password string
}

func (v SharedSecretVerifier) Verify(headers map[string]string, _ []byte) error {
	if v.Username == "" || v.Password == "" {
		return ErrUnauthorized
	}
	got := normalizeHashHeader(headers["authorization"])
	if got == "" {
		return ErrUnauthorized
	}
	sum := sha256.Sum256([]byte(v.Username + ":" + v.Password))
	want := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func normalizeHashHeader(h string) string {
	h = strings.TrimSpace(h)
	lower := strings.ToLower(h)
	switch {
	case strings.HasPrefix(lower, "sha256 "):
		h = h[len("sha256 "):]
	case strings.HasPrefix(lower, "sha256:"):
		h = h[len("sha256:"):]
	}
	return strings.ToLower(strings.TrimSpace(h))
}

// MidtransSignatureVerifier checks signature_key = SHA512(order_id+status_code+gross_amount+server_key).
type MidtransSignatureVerifier struct {
	ServerKey string
}

func (v MidtransSignatureVerifier) Verify(_ map[string]string, body []byte) error {
	if v.ServerKey == "" {
		return ErrUnauthorized
	}
	var n midtransNotif
	if err := sonic.Unmarshal(body, &n); err != nil {
		return ErrUnauthorized
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + v.ServerKey))
	want := hex.EncodeToString(sum[:])
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
