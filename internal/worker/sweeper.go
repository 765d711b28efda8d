package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"driveway-booking/internal/usecase"
)

// Sweeper periodically expires unpaid bookings whose hold has lapsed and
// completes paid bookings whose window has passed. Bookings only leave
// PENDING through payment, cancellation or this sweep.
type Sweeper struct {
	bookings usecase.BookingService
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewSweeper(bookings usecase.BookingService, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		bookings: bookings,
		interval: interval,
		log:      log.With(zap.String("worker", "sweeper")),
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled. Each tick runs one sweep; failures are
// logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("Sweeper started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := s.now()

	expired, err := s.bookings.ExpireStale(ctx, now)
	if err != nil {
		s.log.Error("Expiry sweep failed", zap.Error(err))
	} else if expired > 0 {
		s.log.Info("Expired stale bookings", zap.Int("count", expired))
	}

	completed, err := s.bookings.CompleteElapsed(ctx, now)
	if err != nil {
		s.log.Error("Completion sweep failed", zap.Error(err))
	} else if completed > 0 {
		s.log.Info("Completed elapsed bookings", zap.Int("count", completed))
	}
}
