// internal/wire/wire.go
package wire

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"driveway-booking/internal/adaptor"
	"driveway-booking/internal/data/repository"
	"driveway-booking/internal/events"
	"driveway-booking/internal/usecase"
	"driveway-booking/pkg/middleware"
	"driveway-booking/pkg/paygate"
	"driveway-booking/pkg/utils"
)

// App holds the wired HTTP surface.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring assembles services and handlers on top of the repositories.
func Wiring(
	repo *repository.Repository,
	config *utils.Config,
	gateway paygate.Gateway,
	publisher events.Publisher,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, gateway, publisher, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireDriveway(r, handler.Driveway, config, logger)
	wireBooking(r, handler.Booking, config, logger)
	wirePayment(r, handler.Payment, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
