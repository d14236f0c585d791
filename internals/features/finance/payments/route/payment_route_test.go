package route

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"

	"marathon_backend/internals/configs"
	paymentController "marathon_backend/internals/features/finance/payments/controller"
	"marathon_backend/internals/features/finance/payments/gateway"
	helper "marathon_backend/internals/helpers"
)

func stubPayStatus(t *testing.T, stubCheckout bool) int {
	t.Helper()
	log := zaptest.NewLogger(t)
	stub := gateway.NewStubClient("http://api.example.test")
	if _, err := stub.CreateCheckoutSession(context.Background(), "MRN-1", 50000, "http://api.example.test/api/payments/redirect?orderId=MRN-1"); err != nil {
		t.Fatal(err)
	}
	pc := paymentController.NewPaymentController(nil, nil, configs.PaymentConfig{RedirectMode: "json"}, log)
	wc := paymentController.NewWebhookController(nil, stub, gateway.SharedSecretVerifier{Username: "u", Password: "p"}, nil, log)

	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler(log)})
	PublicPaymentRoutes(app.Group("/api/payments"), pc, wc, stubCheckout)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/payments/stub/pay?orderId=MRN-1", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestStubCheckoutMountedOnlyForStubProvider(t *testing.T) {
	if got := stubPayStatus(t, false); got != fiber.StatusNotFound {
		t.Fatalf("stub/pay without stub checkout: status = %d, want 404", got)
	}
	if got := stubPayStatus(t, true); got != fiber.StatusFound {
		t.Fatalf("stub/pay with stub checkout: status = %d, want 302", got)
	}
}
