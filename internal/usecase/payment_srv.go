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
	"driveway-booking/pkg/paygate"
	"driveway-booking/pkg/retry"
	"driveway-booking/pkg/utils"
)

// ErrPaymentNotApplicable means the booking is not sitting in the
// awaiting-payment state.
var ErrPaymentNotApplicable = errors.New("booking is not awaiting payment")

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, userID string, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error)

	// HandleGatewayEvent consumes a verified payment-succeeded or
	// payment-failed signal and drives the booking state machine.
	HandleGatewayEvent(ctx context.Context, eventID string) error
}

type paymentService struct {
	repo      *repository.Repository
	gateway   paygate.Gateway
	policy    retry.Policy
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewPaymentService(
	repo *repository.Repository,
	gateway paygate.Gateway,
	policy retry.Policy,
	publisher events.Publisher,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:      repo,
		gateway:   gateway,
		policy:    policy,
		publisher: publisher,
		log:       log.With(zap.String("service", "payment")),
		now:       time.Now,
	}
}

func (s *paymentService) CreatePaymentIntent(ctx context.Context, userID string, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create payment intent validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", req.BookingID, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if booking.DriverID != userUUID {
		return nil, ErrNotBookingParty
	}

	if booking.State() != (entity.State{Status: entity.BookingStatusPending, Payment: entity.PaymentStatusPending}) {
		return nil, ErrPaymentNotApplicable
	}

	var intentRef, clientSecret string
	err = s.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		intentRef, clientSecret, opErr = s.gateway.CreateIntent(ctx, booking.TotalPrice, booking.Reference)
		return opErr
	})
	if err != nil {
		s.log.Error("Failed to create payment intent",
			zap.Error(err),
			zap.String("booking_id", req.BookingID),
		)
		return nil, fmt.Errorf("create payment intent for %s: %w", req.BookingID, err)
	}

	if err := s.repo.Booking.SetPaymentIntentRef(ctx, bookingID, intentRef); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, ErrPaymentNotApplicable
		}
		return nil, fmt.Errorf("store payment intent ref: %w", err)
	}

	s.log.Info("Payment intent created",
		zap.String("booking_id", req.BookingID),
		zap.String("payment_intent_ref", intentRef),
		zap.Float64("amount", booking.TotalPrice),
	)

	return &response.PaymentIntentResponse{
		BookingID:        booking.ID.String(),
		PaymentIntentRef: intentRef,
		ClientSecret:     clientSecret,
	}, nil
}

func (s *paymentService) HandleGatewayEvent(ctx context.Context, eventID string) error {
	var ev paygate.Event
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		ev, opErr = s.gateway.ResolveEvent(ctx, eventID)
		return opErr
	})
	if err != nil {
		return fmt.Errorf("verify gateway event %s: %w", eventID, err)
	}

	switch ev.Kind {
	case paygate.EventPaid:
		return s.handlePaid(ctx, ev)
	case paygate.EventFailed:
		return s.handleFailed(ctx, ev)
	default:
		return nil
	}
}

func (s *paymentService) handlePaid(ctx context.Context, ev paygate.Event) error {
	booking, err := s.repo.Booking.FindByPaymentIntentRef(ctx, ev.IntentRef)
	if err != nil {
		return fmt.Errorf("load booking for intent %s: %w", ev.IntentRef, err)
	}
	if booking == nil {
		s.log.Warn("Payment succeeded for unknown intent",
			zap.String("payment_intent_ref", ev.IntentRef),
			zap.String("booking_ref", ev.BookingRef),
		)
		return ErrBookingNotFound
	}

	// Gateways redeliver webhooks; a booking already confirmed by this
	// intent is a duplicate, not an error.
	if booking.State() == (entity.State{Status: entity.BookingStatusConfirmed, Payment: entity.PaymentStatusPaid}) {
		return nil
	}

	prior := booking.State()
	now := s.now()
	if err := booking.ConfirmPayment(now); err != nil {
		s.log.Error("Illegal confirm transition",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(prior.Status)),
			zap.String("payment_status", string(prior.Payment)),
		)
		return err
	}

	if err := s.repo.Booking.UpdateState(ctx, booking, prior); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			s.log.Warn("Confirm lost race with another transition",
				zap.String("booking_id", booking.ID.String()),
			)
			return entity.ErrIllegalTransition
		}
		return fmt.Errorf("persist confirmation: %w", err)
	}

	s.log.Info("Booking confirmed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("payment_intent_ref", ev.IntentRef),
	)

	s.publish(ctx, events.RKBookingConfirmed, events.BookingConfirmed{
		BookingID:        booking.ID.String(),
		Reference:        booking.Reference,
		PaymentIntentRef: ev.IntentRef,
	})

	return nil
}

func (s *paymentService) handleFailed(ctx context.Context, ev paygate.Event) error {
	booking, err := s.repo.Booking.FindByPaymentIntentRef(ctx, ev.IntentRef)
	if err != nil {
		return fmt.Errorf("load booking for intent %s: %w", ev.IntentRef, err)
	}
	if booking == nil {
		s.log.Warn("Payment failed for unknown intent",
			zap.String("payment_intent_ref", ev.IntentRef),
		)
		return ErrBookingNotFound
	}

	if booking.PaymentStatus == entity.PaymentStatusFailed {
		return nil
	}

	prior := booking.State()
	now := s.now()
	if err := booking.FailPayment(now); err != nil {
		s.log.Error("Illegal payment-failure transition",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(prior.Status)),
			zap.String("payment_status", string(prior.Payment)),
		)
		return err
	}

	if err := s.repo.Booking.UpdateState(ctx, booking, prior); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return entity.ErrIllegalTransition
		}
		return fmt.Errorf("persist payment failure: %w", err)
	}

	s.log.Info("Payment failed, booking released",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("reason", ev.Reason),
	)

	if booking.Status == entity.BookingStatusCancelled {
		s.publish(ctx, events.RKBookingCancelled, events.BookingCancelled{
			BookingID: booking.ID.String(),
			Reference: booking.Reference,
			Refunded:  false,
		})
	}

	return nil
}

func (s *paymentService) publish(ctx context.Context, routingKey string, payload any) {
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
