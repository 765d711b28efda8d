package usecase

import (
	"go.uber.org/zap"

	"driveway-booking/internal/data/repository"
	"driveway-booking/internal/events"
	"driveway-booking/internal/pricing"
	"driveway-booking/pkg/paygate"
	"driveway-booking/pkg/retry"
	"driveway-booking/pkg/utils"
)

type Service struct {
	Driveway DrivewayService
	Booking  BookingService
	Payment  PaymentService
}

func NewService(repo *repository.Repository, config *utils.Config, gateway paygate.Gateway, publisher events.Publisher, log *zap.Logger) *Service {
	pricingCfg, err := PricingFromConfig(config.Pricing)
	if err != nil {
		log.Warn("Invalid pricing hour ranges, falling back to defaults", zap.Error(err))
		pricingCfg = pricing.DefaultConfig()
	}

	policy := retry.DefaultPolicy()

	return &Service{
		Driveway: NewDrivewayService(repo, pricingCfg, log),
		Booking:  NewBookingService(repo, pricingCfg, config.Pricing.DemandMultiplier, config.Booking.HoldTimeout, gateway, policy, publisher, log),
		Payment:  NewPaymentService(repo, gateway, policy, publisher, log),
	}
}

// PricingFromConfig maps the env-driven pricing section onto the
// calculator's config.
func PricingFromConfig(cfg utils.PricingConfig) (pricing.Config, error) {
	peak, err := pricing.ParseHourRanges(cfg.PeakHours)
	if err != nil {
		return pricing.Config{}, err
	}
	offPeak, err := pricing.ParseHourRanges(cfg.OffPeakHours)
	if err != nil {
		return pricing.Config{}, err
	}

	return pricing.Config{
		PeakHours:         peak,
		OffPeakHours:      offPeak,
		PeakMultiplier:    cfg.PeakMultiplier,
		OffPeakMultiplier: cfg.OffPeakMultiplier,
		WeekendMultiplier: cfg.WeekendMultiplier,
		MinimumCharge:     cfg.MinimumCharge,
	}, nil
}
