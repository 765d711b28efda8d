// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"driveway-booking/cmd"
	"driveway-booking/internal/data/repository"
	"driveway-booking/internal/events"
	"driveway-booking/internal/wire"
	"driveway-booking/internal/worker"
	"driveway-booking/pkg/database"
	"driveway-booking/pkg/paygate"
	"driveway-booking/pkg/rabbitmq"
	"driveway-booking/pkg/utils"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Event publisher. Disabled in dev setups without a broker; services
	// skip publishing when it is nil.
	var publisher events.Publisher
	if config.RabbitMQ.Enabled {
		pub, err := rabbitmq.NewPublisher(config.RabbitMQ.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
	}

	// Payment gateway
	gateway, err := paygate.NewOmiseGateway(config.Omise.PublicKey, config.Omise.SecretKey, config.Omise.Currency, logger)
	if err != nil {
		logger.Fatal("Failed to init payment gateway", zap.Error(err))
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, gateway, publisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background sweep for hold expiry and booking completion
	sweeper := worker.NewSweeper(app.Service.Booking, config.Booking.SweepInterval, logger)
	go sweeper.Run(ctx)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(ctx, app.Router, config.App.Port)

	logger.Info("Server stopped")
}
