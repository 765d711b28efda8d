package wire

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"driveway-booking/internal/adaptor"
	"driveway-booking/pkg/middleware"
	"driveway-booking/pkg/utils"
)

func wireDriveway(
	r chi.Router,
	drivewayHandler *adaptor.DrivewayHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/driveways", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		// GET /api/driveways/{id} - Driveway details
		r.Get("/{id}", drivewayHandler.GetDriveway)

		// GET /api/driveways/{id}/quote - Provisional price for a window
		// Requires query params: ?start=2026-03-02T08:00:00Z&end=2026-03-02T10:00:00Z
		r.Get("/{id}/quote", drivewayHandler.Quote)

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(config.JWT.Secret, log))

			// POST /api/driveways - Register a driveway with its windows
			r.Post("/", drivewayHandler.CreateDriveway)
		})
	})
}
