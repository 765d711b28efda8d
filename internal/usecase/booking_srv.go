package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"driveway-booking/internal/data/entity"
	"driveway-booking/internal/data/repository"
	"driveway-booking/internal/dto/request"
	"driveway-booking/internal/dto/response"
	"driveway-booking/internal/events"
	"driveway-booking/internal/pricing"
	"driveway-booking/pkg/paygate"
	"driveway-booking/pkg/retry"
	"driveway-booking/pkg/utils"
)

var (
	ErrDrivewayNotFound = errors.New("driveway not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrSelfBooking      = errors.New("owners cannot book their own driveway")
	ErrAlreadyTerminal  = errors.New("booking is already in a terminal state")
	ErrNotBookingParty  = errors.New("not authorized for this booking")
)

type BookingService interface {
	CreateBooking(ctx context.Context, driverID string, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	CancelBooking(ctx context.Context, userID string, bookingID string) (*response.BookingResponse, error)

	// Sweep operations driven by the background worker.
	ExpireStale(ctx context.Context, now time.Time) (int, error)
	CompleteElapsed(ctx context.Context, now time.Time) (int, error)
}

type bookingService struct {
	repo        *repository.Repository
	pricingCfg  pricing.Config
	demand      float64
	holdTimeout time.Duration
	gateway     paygate.Gateway
	policy      retry.Policy
	publisher   events.Publisher
	log         *zap.Logger
	now         func() time.Time
}

func NewBookingService(
	repo *repository.Repository,
	pricingCfg pricing.Config,
	demandMultiplier float64,
	holdTimeout time.Duration,
	gateway paygate.Gateway,
	policy retry.Policy,
	publisher events.Publisher,
	log *zap.Logger,
) BookingService {
	if demandMultiplier <= 0 {
		demandMultiplier = 1.0
	}
	return &bookingService{
		repo:        repo,
		pricingCfg:  pricingCfg,
		demand:      demandMultiplier,
		holdTimeout: holdTimeout,
		gateway:     gateway,
		policy:      policy,
		publisher:   publisher,
		log:         log.With(zap.String("service", "booking")),
		now:         time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, driverID string, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	driverUUID, err := uuid.Parse(driverID)
	if err != nil {
		return nil, fmt.Errorf("invalid driver ID format %s: %w", driverID, err)
	}

	drivewayID, err := uuid.Parse(req.DrivewayID)
	if err != nil {
		return nil, fmt.Errorf("invalid driveway ID format %s: %w", req.DrivewayID, err)
	}

	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := pricing.ValidateWindow(start, end, now); err != nil {
		return nil, err
	}

	driveway, err := s.repo.Driveway.FindByID(ctx, drivewayID)
	if err != nil {
		return nil, fmt.Errorf("load driveway: %w", err)
	}
	if driveway == nil {
		return nil, ErrDrivewayNotFound
	}

	// Policy check happens before the guard is ever consulted.
	if driverUUID == driveway.OwnerID {
		return nil, ErrSelfBooking
	}

	windows, err := s.repo.Driveway.FindWindows(ctx, drivewayID)
	if err != nil {
		return nil, fmt.Errorf("load availability windows: %w", err)
	}

	// Authoritative pricing: same calculator the client quotes with, but
	// with the server-side demand multiplier.
	rate := driveway.RateFor(windows, start, end)
	breakdown, err := s.pricingCfg.Calculate(rate, start, end, s.demand, now)
	if err != nil {
		return nil, err
	}

	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Reference:     utils.GenerateBookingReference(),
		DrivewayID:    drivewayID,
		DriverID:      driverUUID,
		StartTime:     start,
		EndTime:       end,
		TotalPrice:    breakdown.FinalPrice,
		Status:        entity.BookingStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
		VehicleInfo:   req.VehicleInfo,
	}

	if err := s.repo.Booking.ReserveSlot(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotUnavailable) {
			// Real conflict, surfaced as-is, never retried or degraded to a
			// different slot.
			return nil, err
		}
		s.log.Error("Failed to reserve slot",
			zap.Error(err),
			zap.String("driveway_id", req.DrivewayID),
			zap.String("driver_id", driverID),
		)
		return nil, fmt.Errorf("reserve slot: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("driveway_id", req.DrivewayID),
		zap.String("driver_id", driverID),
		zap.Float64("total_price", booking.TotalPrice),
	)

	s.publish(ctx, events.RKBookingCreated, events.BookingCreated{
		BookingID:  booking.ID.String(),
		Reference:  booking.Reference,
		DrivewayID: booking.DrivewayID.String(),
		DriverID:   booking.DriverID.String(),
		Start:      booking.StartTime.Unix(),
		End:        booking.EndTime.Unix(),
		TotalPrice: booking.TotalPrice,
	})

	resp := response.BookingToResponse(booking, &breakdown)
	return &resp, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	bookings, err := s.repo.Booking.FindForUser(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountForUser(ctx, userUUID)
	if err != nil {
		s.log.Error("Failed to count user bookings", zap.Error(err))
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	bookingResponses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		bookingResponses[i] = response.BookingToResponse(booking, nil)
	}

	return response.NewPaginatedResponse(bookingResponses, req.Page, req.PerPage, total), nil
}

func (s *bookingService) CancelBooking(ctx context.Context, userID string, bookingID string) (*response.BookingResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", bookingID, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	driveway, err := s.repo.Driveway.FindByID(ctx, booking.DrivewayID)
	if err != nil {
		return nil, fmt.Errorf("load driveway: %w", err)
	}

	// Drivers cancel their own bookings; owners can cancel bookings on
	// their driveway.
	isDriver := booking.DriverID == userUUID
	isOwner := driveway != nil && driveway.OwnerID == userUUID
	if !isDriver && !isOwner {
		return nil, ErrNotBookingParty
	}

	prior := booking.State()
	wasConfirmed := booking.Status == entity.BookingStatusConfirmed

	now := s.now()
	if err := booking.Cancel(now); err != nil {
		if prior.Terminal() {
			return nil, ErrAlreadyTerminal
		}
		s.log.Error("Illegal cancel transition",
			zap.Error(err),
			zap.String("booking_id", bookingID),
			zap.String("status", string(prior.Status)),
			zap.String("payment_status", string(prior.Payment)),
		)
		return nil, err
	}

	// A confirmed booking is refunded before the cancellation is persisted:
	// if the gateway refuses the refund, the booking stays confirmed.
	if wasConfirmed && booking.PaymentIntentRef != nil {
		intentRef := *booking.PaymentIntentRef
		err := s.policy.Do(ctx, func(ctx context.Context) error {
			return s.gateway.Refund(ctx, intentRef, booking.TotalPrice)
		})
		if err != nil {
			s.log.Error("Refund failed",
				zap.Error(err),
				zap.String("booking_id", bookingID),
				zap.String("payment_intent_ref", intentRef),
			)
			return nil, fmt.Errorf("refund booking %s: %w", bookingID, err)
		}
	}

	// Capacity is released synchronously: the terminal status is visible to
	// the guard's overlap count the instant this update commits.
	if err := s.repo.Booking.UpdateState(ctx, booking, prior); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, ErrAlreadyTerminal
		}
		return nil, fmt.Errorf("persist cancellation: %w", err)
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("reference", booking.Reference),
		zap.Bool("refunded", booking.PaymentStatus == entity.PaymentStatusRefunded),
	)

	s.publish(ctx, events.RKBookingCancelled, events.BookingCancelled{
		BookingID: booking.ID.String(),
		Reference: booking.Reference,
		Refunded:  booking.PaymentStatus == entity.PaymentStatusRefunded,
	})

	resp := response.BookingToResponse(booking, nil)
	return &resp, nil
}

func (s *bookingService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.holdTimeout)
	stale, err := s.repo.Booking.FindExpirable(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find expirable bookings: %w", err)
	}

	expired := 0
	for _, booking := range stale {
		prior := booking.State()
		if err := booking.Expire(now); err != nil {
			continue
		}
		if err := s.repo.Booking.UpdateState(ctx, booking, prior); err != nil {
			// A payment confirmation won the race; leave the booking alone.
			if errors.Is(err, repository.ErrStateConflict) {
				continue
			}
			return expired, fmt.Errorf("persist expiry: %w", err)
		}

		expired++
		s.log.Info("Booking expired",
			zap.String("booking_id", booking.ID.String()),
			zap.String("reference", booking.Reference),
		)
		s.publish(ctx, events.RKBookingExpired, events.BookingExpired{
			BookingID: booking.ID.String(),
			Reference: booking.Reference,
		})
	}

	return expired, nil
}

func (s *bookingService) CompleteElapsed(ctx context.Context, now time.Time) (int, error) {
	elapsed, err := s.repo.Booking.FindCompletable(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find completable bookings: %w", err)
	}

	completed := 0
	for _, booking := range elapsed {
		prior := booking.State()
		if err := booking.Complete(now); err != nil {
			continue
		}
		if err := s.repo.Booking.UpdateState(ctx, booking, prior); err != nil {
			if errors.Is(err, repository.ErrStateConflict) {
				continue
			}
			return completed, fmt.Errorf("persist completion: %w", err)
		}

		completed++
		s.log.Info("Booking completed",
			zap.String("booking_id", booking.ID.String()),
			zap.String("reference", booking.Reference),
		)
	}

	return completed, nil
}

func (s *bookingService) publish(ctx context.Context, routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.log.Error("Failed to publish event",
			zap.Error(err),
			zap.String("routing_key", routingKey),
		)
	}
}

func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_time %q: %w", startStr, err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_time %q: %w", endStr, err)
	}
	return start, end, nil
}
