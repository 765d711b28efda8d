package wire

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"driveway-booking/internal/adaptor"
	"driveway-booking/pkg/middleware"
	"driveway-booking/pkg/utils"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/payments", func(r chi.Router) {
		// POST /api/payments/webhook - Gateway callbacks. Unauthenticated:
		// the event is verified by fetching it back from the gateway.
		r.Post("/webhook", paymentHandler.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(config.JWT.Secret, log))

			// POST /api/payments/create-payment-intent - Start checkout for a pending booking
			r.Post("/create-payment-intent", paymentHandler.CreatePaymentIntent)
		})
	})
}
