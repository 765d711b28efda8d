package wire

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"driveway-booking/internal/adaptor"
	"driveway-booking/pkg/middleware"
	"driveway-booking/pkg/utils"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// All booking routes require an authenticated caller.
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT.Secret, log))

		// POST /api/bookings - Price, validate and reserve a slot
		r.Post("/", bookingHandler.CreateBooking)

		// GET /api/bookings - Bookings where the caller is driver or owner
		r.Get("/", bookingHandler.GetUserBookings)

		// PUT /api/bookings/{id}/cancel - Cancel (refunds when already paid)
		r.Put("/{id}/cancel", bookingHandler.CancelBooking)
	})
}
