package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"driveway-booking/internal/data/entity"
	"driveway-booking/internal/data/repository"
	"driveway-booking/internal/dto/request"
	"driveway-booking/internal/events"
	"driveway-booking/internal/pricing"
	"driveway-booking/pkg/paygate"
	"driveway-booking/pkg/retry"
)

// --- Mock repositories ---

type mockDrivewayRepo struct {
	createFn      func(ctx context.Context, driveway *entity.Driveway) error
	findByIDFn    func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error)
	addWindowFn   func(ctx context.Context, window *entity.AvailabilityWindow) error
	findWindowsFn func(ctx context.Context, drivewayID uuid.UUID) ([]*entity.AvailabilityWindow, error)
}

func (m *mockDrivewayRepo) Create(ctx context.Context, driveway *entity.Driveway) error {
	return m.createFn(ctx, driveway)
}
func (m *mockDrivewayRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockDrivewayRepo) AddWindow(ctx context.Context, window *entity.AvailabilityWindow) error {
	return m.addWindowFn(ctx, window)
}
func (m *mockDrivewayRepo) FindWindows(ctx context.Context, drivewayID uuid.UUID) ([]*entity.AvailabilityWindow, error) {
	if m.findWindowsFn == nil {
		return nil, nil
	}
	return m.findWindowsFn(ctx, drivewayID)
}

type mockBookingRepo struct {
	reserveSlotFn            func(ctx context.Context, booking *entity.Booking) error
	findByIDFn               func(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	findByPaymentIntentRefFn func(ctx context.Context, intentRef string) (*entity.Booking, error)
	findForUserFn            func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	countForUserFn           func(ctx context.Context, userID uuid.UUID) (int64, error)
	updateStateFn            func(ctx context.Context, booking *entity.Booking, prior entity.State) error
	setPaymentIntentRefFn    func(ctx context.Context, bookingID uuid.UUID, intentRef string) error
	findExpirableFn          func(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error)
	findCompletableFn        func(ctx context.Context, now time.Time) ([]*entity.Booking, error)
}

func (m *mockBookingRepo) ReserveSlot(ctx context.Context, booking *entity.Booking) error {
	return m.reserveSlotFn(ctx, booking)
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockBookingRepo) FindByPaymentIntentRef(ctx context.Context, intentRef string) (*entity.Booking, error) {
	return m.findByPaymentIntentRefFn(ctx, intentRef)
}
func (m *mockBookingRepo) FindForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return m.findForUserFn(ctx, userID, limit, offset)
}
func (m *mockBookingRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.countForUserFn(ctx, userID)
}
func (m *mockBookingRepo) UpdateState(ctx context.Context, booking *entity.Booking, prior entity.State) error {
	return m.updateStateFn(ctx, booking, prior)
}
func (m *mockBookingRepo) SetPaymentIntentRef(ctx context.Context, bookingID uuid.UUID, intentRef string) error {
	return m.setPaymentIntentRefFn(ctx, bookingID, intentRef)
}
func (m *mockBookingRepo) FindExpirable(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	return m.findExpirableFn(ctx, cutoff)
}
func (m *mockBookingRepo) FindCompletable(ctx context.Context, now time.Time) ([]*entity.Booking, error) {
	return m.findCompletableFn(ctx, now)
}

// --- Mock gateway and publisher ---

type mockGateway struct {
	createIntentFn func(ctx context.Context, amount float64, bookingRef string) (string, string, error)
	refundFn       func(ctx context.Context, intentRef string, amount float64) error
	resolveEventFn func(ctx context.Context, eventID string) (paygate.Event, error)
}

func (m *mockGateway) CreateIntent(ctx context.Context, amount float64, bookingRef string) (string, string, error) {
	return m.createIntentFn(ctx, amount, bookingRef)
}
func (m *mockGateway) Refund(ctx context.Context, intentRef string, amount float64) error {
	return m.refundFn(ctx, intentRef, amount)
}
func (m *mockGateway) ResolveEvent(ctx context.Context, eventID string) (paygate.Event, error) {
	return m.resolveEventFn(ctx, eventID)
}

type mockPublisher struct {
	published []string
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	m.published = append(m.published, routingKey)
	return nil
}

// --- Fixtures ---

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Factor:      2,
		Classify:    retry.DefaultClassify,
	}
}

func futureWindow() (string, string, time.Time, time.Time) {
	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	end := start.Add(2 * time.Hour)
	return start.Format(time.RFC3339), end.Format(time.RFC3339), start, end
}

func sampleDriveway(ownerID uuid.UUID) *entity.Driveway {
	return &entity.Driveway{
		Base:             entity.Base{ID: uuid.New()},
		OwnerID:          ownerID,
		Name:             "Maple St driveway",
		Address:          "12 Maple St",
		BasePricePerHour: 10.00,
		Capacity:         1,
	}
}

func newBookingService(driveways *mockDrivewayRepo, bookings *mockBookingRepo, gw paygate.Gateway, pub *mockPublisher) BookingService {
	repo := &repository.Repository{Driveway: driveways, Booking: bookings}
	var publisher events.Publisher
	if pub != nil {
		publisher = pub
	}
	return NewBookingService(repo, pricing.DefaultConfig(), 1.0, 15*time.Minute, gw, testPolicy(), publisher, zap.NewNop())
}

// --- CreateBooking ---

func TestCreateBooking_Success(t *testing.T) {
	ownerID := uuid.New()
	driverID := uuid.New()
	driveway := sampleDriveway(ownerID)
	startStr, endStr, start, end := futureWindow()

	var reserved *entity.Booking
	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		reserveSlotFn: func(ctx context.Context, booking *entity.Booking) error {
			reserved = booking
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := newBookingService(driveways, bookings, nil, pub)

	resp, err := svc.CreateBooking(context.Background(), driverID.String(), &request.CreateBookingRequest{
		DrivewayID: driveway.ID.String(),
		StartTime:  startStr,
		EndTime:    endStr,
	})

	assert.NoError(t, err)
	assert.NotNil(t, reserved)
	assert.Equal(t, entity.BookingStatusPending, reserved.Status)
	assert.Equal(t, entity.PaymentStatusPending, reserved.PaymentStatus)
	assert.True(t, reserved.StartTime.Equal(start))
	assert.True(t, reserved.EndTime.Equal(end))
	assert.NotEmpty(t, reserved.Reference)
	assert.NotNil(t, resp.Pricing)
	assert.Equal(t, resp.Pricing.FinalPrice, resp.TotalPrice)
	assert.Equal(t, []string{"booking.created"}, pub.published)
}

func TestCreateBooking_AppliesWindowRate(t *testing.T) {
	ownerID := uuid.New()
	driveway := sampleDriveway(ownerID)
	startStr, endStr, start, end := futureWindow()

	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
		findWindowsFn: func(ctx context.Context, drivewayID uuid.UUID) ([]*entity.AvailabilityWindow, error) {
			return []*entity.AvailabilityWindow{{
				DrivewayID:   driveway.ID,
				StartTime:    start.Add(-time.Hour),
				EndTime:      end.Add(time.Hour),
				PricePerHour: 6.00,
			}}, nil
		},
	}
	bookings := &mockBookingRepo{
		reserveSlotFn: func(ctx context.Context, booking *entity.Booking) error { return nil },
	}
	svc := newBookingService(driveways, bookings, nil, nil)

	resp, err := svc.CreateBooking(context.Background(), uuid.New().String(), &request.CreateBookingRequest{
		DrivewayID: driveway.ID.String(),
		StartTime:  startStr,
		EndTime:    endStr,
	})

	assert.NoError(t, err)
	assert.Equal(t, 6.00, resp.Pricing.BasePricePerHour)
}

func TestCreateBooking_SlotUnavailable(t *testing.T) {
	driveway := sampleDriveway(uuid.New())
	startStr, endStr, _, _ := futureWindow()

	reserveCalls := 0
	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		reserveSlotFn: func(ctx context.Context, booking *entity.Booking) error {
			reserveCalls++
			return repository.ErrSlotUnavailable
		},
	}
	pub := &mockPublisher{}
	svc := newBookingService(driveways, bookings, nil, pub)

	_, err := svc.CreateBooking(context.Background(), uuid.New().String(), &request.CreateBookingRequest{
		DrivewayID: driveway.ID.String(),
		StartTime:  startStr,
		EndTime:    endStr,
	})

	assert.ErrorIs(t, err, repository.ErrSlotUnavailable)
	// A full slot is a business conflict, never retried.
	assert.Equal(t, 1, reserveCalls)
	assert.Empty(t, pub.published)
}

func TestCreateBooking_SelfBookingRejected(t *testing.T) {
	ownerID := uuid.New()
	driveway := sampleDriveway(ownerID)
	startStr, endStr, _, _ := futureWindow()

	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		reserveSlotFn: func(ctx context.Context, booking *entity.Booking) error {
			t.Fatal("guard must not be consulted for a self-booking")
			return nil
		},
	}
	svc := newBookingService(driveways, bookings, nil, nil)

	_, err := svc.CreateBooking(context.Background(), ownerID.String(), &request.CreateBookingRequest{
		DrivewayID: driveway.ID.String(),
		StartTime:  startStr,
		EndTime:    endStr,
	})

	assert.ErrorIs(t, err, ErrSelfBooking)
}

func TestCreateBooking_InvalidWindow(t *testing.T) {
	driveway := sampleDriveway(uuid.New())
	startStr, endStr, _, _ := futureWindow()

	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		reserveSlotFn: func(ctx context.Context, booking *entity.Booking) error {
			t.Fatal("invalid window must never reach the guard")
			return nil
		},
	}
	svc := newBookingService(driveways, bookings, nil, nil)

	// end before start
	_, err := svc.CreateBooking(context.Background(), uuid.New().String(), &request.CreateBookingRequest{
		DrivewayID: driveway.ID.String(),
		StartTime:  endStr,
		EndTime:    startStr,
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidWindow)

	// in the past
	past := time.Now().Add(-2 * time.Hour)
	_, err = svc.CreateBooking(context.Background(), uuid.New().String(), &request.CreateBookingRequest{
		DrivewayID: driveway.ID.String(),
		StartTime:  past.Format(time.RFC3339),
		EndTime:    past.Add(time.Hour).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, pricing.ErrPastWindow)
}

func TestCreateBooking_DrivewayNotFound(t *testing.T) {
	startStr, endStr, _, _ := futureWindow()

	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return nil, nil
		},
	}
	svc := newBookingService(driveways, &mockBookingRepo{}, nil, nil)

	_, err := svc.CreateBooking(context.Background(), uuid.New().String(), &request.CreateBookingRequest{
		DrivewayID: uuid.New().String(),
		StartTime:  startStr,
		EndTime:    endStr,
	})

	assert.ErrorIs(t, err, ErrDrivewayNotFound)
}

// --- GetUserBookings ---

func TestGetUserBookings(t *testing.T) {
	userID := uuid.New()
	first, _, _ := cancelFixture(entity.BookingStatusPending, entity.PaymentStatusPending, nil)
	second, _, _ := cancelFixture(entity.BookingStatusConfirmed, entity.PaymentStatusPaid, nil)

	bookings := &mockBookingRepo{
		findForUserFn: func(ctx context.Context, id uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
			assert.Equal(t, userID, id)
			assert.Equal(t, 10, limit)
			assert.Equal(t, 10, offset)
			return []*entity.Booking{first, second}, nil
		},
		countForUserFn: func(ctx context.Context, id uuid.UUID) (int64, error) {
			return 12, nil
		},
	}
	svc := newBookingService(&mockDrivewayRepo{}, bookings, nil, nil)

	resp, err := svc.GetUserBookings(context.Background(), userID.String(), &request.PaginatedRequest{Page: 2, PerPage: 10})

	assert.NoError(t, err)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(12), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.Nil(t, resp.Data[0].Pricing)
}

// --- CancelBooking ---

func cancelFixture(status entity.BookingStatus, payment entity.PaymentStatus, intentRef *string) (*entity.Booking, *entity.Driveway, uuid.UUID) {
	ownerID := uuid.New()
	driverID := uuid.New()
	driveway := sampleDriveway(ownerID)
	booking := &entity.Booking{
		Base:             entity.Base{ID: uuid.New()},
		Reference:        "DRW-20260302-100000-0001",
		DrivewayID:       driveway.ID,
		DriverID:         driverID,
		StartTime:        time.Now().Add(24 * time.Hour),
		EndTime:          time.Now().Add(26 * time.Hour),
		TotalPrice:       20.00,
		Status:           status,
		PaymentStatus:    payment,
		PaymentIntentRef: intentRef,
	}
	return booking, driveway, driverID
}

func TestCancelBooking_PendingByDriver(t *testing.T) {
	booking, driveway, driverID := cancelFixture(entity.BookingStatusPending, entity.PaymentStatusPending, nil)

	var persisted entity.State
	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
			return booking, nil
		},
		updateStateFn: func(ctx context.Context, b *entity.Booking, prior entity.State) error {
			persisted = b.State()
			assert.Equal(t, entity.State{Status: entity.BookingStatusPending, Payment: entity.PaymentStatusPending}, prior)
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := newBookingService(driveways, bookings, nil, pub)

	resp, err := svc.CancelBooking(context.Background(), driverID.String(), booking.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, entity.State{Status: entity.BookingStatusCancelled, Payment: entity.PaymentStatusPending}, persisted)
	assert.Equal(t, entity.BookingStatusCancelled, resp.Status)
	assert.Equal(t, []string{"booking.cancelled"}, pub.published)
}

func TestCancelBooking_ConfirmedRefundsFirst(t *testing.T) {
	intentRef := "chrg_test_123"
	booking, driveway, driverID := cancelFixture(entity.BookingStatusConfirmed, entity.PaymentStatusPaid, &intentRef)

	refunded := false
	persistedAfterRefund := false
	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
			return booking, nil
		},
		updateStateFn: func(ctx context.Context, b *entity.Booking, prior entity.State) error {
			persistedAfterRefund = refunded
			return nil
		},
	}
	gw := &mockGateway{
		refundFn: func(ctx context.Context, ref string, amount float64) error {
			assert.Equal(t, intentRef, ref)
			assert.Equal(t, 20.00, amount)
			refunded = true
			return nil
		},
	}
	svc := newBookingService(driveways, bookings, gw, nil)

	resp, err := svc.CancelBooking(context.Background(), driverID.String(), booking.ID.String())

	assert.NoError(t, err)
	assert.True(t, refunded)
	assert.True(t, persistedAfterRefund)
	assert.Equal(t, entity.PaymentStatusRefunded, resp.PaymentStatus)
}

func TestCancelBooking_RefundFailureKeepsBooking(t *testing.T) {
	intentRef := "chrg_test_123"
	booking, driveway, driverID := cancelFixture(entity.BookingStatusConfirmed, entity.PaymentStatusPaid, &intentRef)

	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
			return booking, nil
		},
		updateStateFn: func(ctx context.Context, b *entity.Booking, prior entity.State) error {
			t.Fatal("cancellation must not be persisted when the refund fails")
			return nil
		},
	}
	gw := &mockGateway{
		refundFn: func(ctx context.Context, ref string, amount float64) error {
			return errors.New("refund rejected")
		},
	}
	svc := newBookingService(driveways, bookings, gw, nil)

	_, err := svc.CancelBooking(context.Background(), driverID.String(), booking.ID.String())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "refund rejected")
}

func TestCancelBooking_ByOwner(t *testing.T) {
	booking, driveway, _ := cancelFixture(entity.BookingStatusPending, entity.PaymentStatusPending, nil)

	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
			return booking, nil
		},
		updateStateFn: func(ctx context.Context, b *entity.Booking, prior entity.State) error {
			return nil
		},
	}
	svc := newBookingService(driveways, bookings, nil, nil)

	_, err := svc.CancelBooking(context.Background(), driveway.OwnerID.String(), booking.ID.String())
	assert.NoError(t, err)

	// A third party gets rejected.
	booking.Status = entity.BookingStatusPending
	booking.PaymentStatus = entity.PaymentStatusPending
	_, err = svc.CancelBooking(context.Background(), uuid.New().String(), booking.ID.String())
	assert.ErrorIs(t, err, ErrNotBookingParty)
}

func TestCancelBooking_AlreadyTerminal(t *testing.T) {
	booking, driveway, driverID := cancelFixture(entity.BookingStatusExpired, entity.PaymentStatusPending, nil)

	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
			return booking, nil
		},
	}
	svc := newBookingService(driveways, bookings, nil, nil)

	_, err := svc.CancelBooking(context.Background(), driverID.String(), booking.ID.String())

	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCancelBooking_LostRaceReportsTerminal(t *testing.T) {
	booking, driveway, driverID := cancelFixture(entity.BookingStatusPending, entity.PaymentStatusPending, nil)

	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
			return booking, nil
		},
		updateStateFn: func(ctx context.Context, b *entity.Booking, prior entity.State) error {
			return repository.ErrStateConflict
		},
	}
	svc := newBookingService(driveways, bookings, nil, nil)

	_, err := svc.CancelBooking(context.Background(), driverID.String(), booking.ID.String())

	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

// --- Sweeps ---

func TestExpireStale(t *testing.T) {
	now := time.Now()
	first, _, _ := cancelFixture(entity.BookingStatusPending, entity.PaymentStatusPending, nil)
	second, _, _ := cancelFixture(entity.BookingStatusPending, entity.PaymentStatusPending, nil)

	updates := 0
	bookings := &mockBookingRepo{
		findExpirableFn: func(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error) {
			assert.True(t, cutoff.Equal(now.Add(-15*time.Minute)))
			return []*entity.Booking{first, second}, nil
		},
		updateStateFn: func(ctx context.Context, b *entity.Booking, prior entity.State) error {
			updates++
			if b == second {
				// Simulate a payment confirmation winning the race.
				return repository.ErrStateConflict
			}
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := newBookingService(&mockDrivewayRepo{}, bookings, nil, pub)

	expired, err := svc.ExpireStale(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 2, updates)
	assert.Equal(t, entity.BookingStatusExpired, first.Status)
	assert.Equal(t, []string{"booking.expired"}, pub.published)
}

func TestCompleteElapsed(t *testing.T) {
	now := time.Now()
	booking, _, _ := cancelFixture(entity.BookingStatusConfirmed, entity.PaymentStatusPaid, nil)
	booking.EndTime = now.Add(-time.Hour)

	bookings := &mockBookingRepo{
		findCompletableFn: func(ctx context.Context, at time.Time) ([]*entity.Booking, error) {
			return []*entity.Booking{booking}, nil
		},
		updateStateFn: func(ctx context.Context, b *entity.Booking, prior entity.State) error {
			return nil
		},
	}
	svc := newBookingService(&mockDrivewayRepo{}, bookings, nil, nil)

	completed, err := svc.CompleteElapsed(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, entity.BookingStatusCompleted, booking.Status)
}
