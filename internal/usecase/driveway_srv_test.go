package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"driveway-booking/internal/data/entity"
	"driveway-booking/internal/data/repository"
	"driveway-booking/internal/dto/request"
	"driveway-booking/internal/pricing"
)

func newDrivewayService(driveways *mockDrivewayRepo) DrivewayService {
	repo := &repository.Repository{Driveway: driveways, Booking: &mockBookingRepo{}}
	return NewDrivewayService(repo, pricing.DefaultConfig(), zap.NewNop())
}

func TestCreateDriveway_PersistsWindows(t *testing.T) {
	ownerID := uuid.New()
	startStr, endStr, start, end := futureWindow()

	var created *entity.Driveway
	var windows []*entity.AvailabilityWindow
	driveways := &mockDrivewayRepo{
		createFn: func(ctx context.Context, driveway *entity.Driveway) error {
			created = driveway
			return nil
		},
		addWindowFn: func(ctx context.Context, window *entity.AvailabilityWindow) error {
			windows = append(windows, window)
			return nil
		},
	}
	svc := newDrivewayService(driveways)

	resp, err := svc.CreateDriveway(context.Background(), ownerID.String(), &request.CreateDrivewayRequest{
		Name:             "Elm St driveway",
		Address:          "4 Elm St",
		BasePricePerHour: 8.50,
		Capacity:         2,
		Windows: []request.AvailabilityWindowRequest{
			{StartTime: startStr, EndTime: endStr, PricePerHour: 6.00},
		},
	})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, ownerID, created.OwnerID)
	assert.Len(t, windows, 1)
	assert.Equal(t, created.ID, windows[0].DrivewayID)
	assert.True(t, windows[0].StartTime.Equal(start))
	assert.True(t, windows[0].EndTime.Equal(end))
	assert.Len(t, resp.Windows, 1)
}

func TestCreateDriveway_BadWindowPersistsNothing(t *testing.T) {
	startStr, endStr, _, _ := futureWindow()
	driveways := &mockDrivewayRepo{
		createFn: func(ctx context.Context, driveway *entity.Driveway) error {
			t.Fatal("driveway persisted despite an invalid window")
			return nil
		},
		addWindowFn: func(ctx context.Context, window *entity.AvailabilityWindow) error {
			t.Fatal("window persisted despite an invalid window")
			return nil
		},
	}
	svc := newDrivewayService(driveways)

	req := &request.CreateDrivewayRequest{
		Name:             "Elm St driveway",
		Address:          "4 Elm St",
		BasePricePerHour: 8.50,
		Capacity:         1,
		Windows: []request.AvailabilityWindowRequest{
			{StartTime: startStr, EndTime: endStr, PricePerHour: 6.00},
			// end before start, should sink the whole request
			{StartTime: endStr, EndTime: startStr, PricePerHour: 6.00},
		},
	}

	_, err := svc.CreateDriveway(context.Background(), uuid.New().String(), req)

	assert.ErrorIs(t, err, pricing.ErrInvalidWindow)
}

func TestCreateDriveway_UnparseableWindowPersistsNothing(t *testing.T) {
	driveways := &mockDrivewayRepo{
		createFn: func(ctx context.Context, driveway *entity.Driveway) error {
			t.Fatal("driveway persisted despite an unparseable window")
			return nil
		},
	}
	svc := newDrivewayService(driveways)

	_, err := svc.CreateDriveway(context.Background(), uuid.New().String(), &request.CreateDrivewayRequest{
		Name:             "Elm St driveway",
		Address:          "4 Elm St",
		BasePricePerHour: 8.50,
		Capacity:         1,
		Windows: []request.AvailabilityWindowRequest{
			{StartTime: "yesterday", EndTime: "tomorrow", PricePerHour: 6.00},
		},
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start_time")
}

func TestQuote_UsesNeutralDemand(t *testing.T) {
	driveway := sampleDriveway(uuid.New())
	startStr, endStr, start, end := futureWindow()

	driveways := &mockDrivewayRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
			return driveway, nil
		},
	}
	svc := newDrivewayService(driveways)

	breakdown, err := svc.Quote(context.Background(), driveway.ID.String(), startStr, endStr)

	assert.NoError(t, err)
	assert.Equal(t, 1.0, breakdown.DemandMultiplier)
	assert.Equal(t, driveway.BasePricePerHour, breakdown.BasePricePerHour)
	assert.Equal(t, end.Sub(start).Hours(), breakdown.Hours)
}
