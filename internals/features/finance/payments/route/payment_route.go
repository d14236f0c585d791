package route

import (
	"github.com/gofiber/fiber/v2"

	paymentController "marathon_backend/internals/features/finance/payments/controller"
	rateLimiter "marathon_backend/internals/middlewares"
)

// PublicPaymentRoutes: gateway-facing endpoints. r = /api/payments
// /stub/pay settles orders for free, so it only exists when the stub provider is active.
func PublicPaymentRoutes(r fiber.Router, pc *paymentController.PaymentController, wc *paymentController.WebhookController, stubCheckout bool) {
	r.Get("/redirect", pc.Redirect)
	r.Post("/webhook", wc.Webhook)
	if stubCheckout {
		r.Get("/stub/pay", wc.StubPay)
	}
}

// UserPaymentRoutes shares the /api/payments prefix, so auth is attached per route.
func UserPaymentRoutes(r fiber.Router, auth fiber.Handler, pc *paymentController.PaymentController) {
	r.Post("/orders", auth, rateLimiter.RegisterRateLimiter(), pc.CreateOrder)
	r.Get("/status/:orderId", auth, pc.Status)
}

// AdminPaymentRoutes: r = /api/admin
func AdminPaymentRoutes(r fiber.Router, ac *paymentController.AdminPaymentController) {
	g := r.Group("/payments")
	g.Get("/events", ac.ListEvents)
	g.Post("/:orderId/reconcile", ac.Reconcile)
}
