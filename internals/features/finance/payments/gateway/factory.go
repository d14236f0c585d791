package gateway

import (
	"fmt"

	"marathon_backend/internals/configs"
)

// New picks the provider from PAYMENT_PROVIDER together with its callback verifier.
func New(cfg configs.PaymentConfig) (Client, Verifier, error) {
	switch cfg.Provider {
	case "midtrans":
		if cfg.MidtransServerKey == "" {
			return nil, nil, fmt.Errorf("MIDTRANS_SERVER_KEY is required for the midtrans provider")
		}
		return NewMidtransClient(cfg.MidtransServerKey, cfg.MidtransUseProd),
			MidtransSignatureVerifier{ServerKey: cfg.MidtransServerKey}, nil
	case "":
		return nil, nil, fmt.Errorf("PAYMENT_PROVIDER is required outside development (midtrans or stub)")
	case "stub":
		return NewStubClient(cfg.PublicBaseURL),
			SharedSecretVerifier{Username: cfg.CallbackUsername, Password: cfg.CallbackPassword}, nil
	default:
		return nil, nil, fmt.Errorf("unknown payment provider: %s", cfg.Provider)
	}
}
