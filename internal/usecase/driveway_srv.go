package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"driveway-booking/internal/data/entity"
	"driveway-booking/internal/data/repository"
	"driveway-booking/internal/dto/request"
	"driveway-booking/internal/dto/response"
	"driveway-booking/internal/pricing"
	"driveway-booking/pkg/utils"
)

type DrivewayService interface {
	CreateDriveway(ctx context.Context, ownerID string, req *request.CreateDrivewayRequest) (*response.DrivewayResponse, error)
	GetDriveway(ctx context.Context, drivewayID string) (*response.DrivewayResponse, error)

	// Quote prices a prospective window with a neutral demand multiplier.
	// Provisional only: the authoritative price is recomputed at booking
	// time with the same calculator.
	Quote(ctx context.Context, drivewayID string, startStr, endStr string) (*pricing.Breakdown, error)
}

type drivewayService struct {
	repo       *repository.Repository
	pricingCfg pricing.Config
	log        *zap.Logger
	now        func() time.Time
}

func NewDrivewayService(repo *repository.Repository, pricingCfg pricing.Config, log *zap.Logger) DrivewayService {
	return &drivewayService{
		repo:       repo,
		pricingCfg: pricingCfg,
		log:        log.With(zap.String("service", "driveway")),
		now:        time.Now,
	}
}

func (s *drivewayService) CreateDriveway(ctx context.Context, ownerID string, req *request.CreateDrivewayRequest) (*response.DrivewayResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create driveway validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner ID format %s: %w", ownerID, err)
	}

	now := s.now()
	driveway := &entity.Driveway{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:          ownerUUID,
		Name:             req.Name,
		Address:          req.Address,
		BasePricePerHour: req.BasePricePerHour,
		Capacity:         req.Capacity,
	}

	// Every window must parse before anything hits the database, so a bad
	// window cannot leave a half-configured driveway behind.
	windows := make([]*entity.AvailabilityWindow, 0, len(req.Windows))
	for _, w := range req.Windows {
		start, end, err := parseWindow(w.StartTime, w.EndTime)
		if err != nil {
			return nil, err
		}
		if !end.After(start) {
			return nil, pricing.ErrInvalidWindow
		}
		windows = append(windows, &entity.AvailabilityWindow{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: now,
			},
			DrivewayID:   driveway.ID,
			StartTime:    start,
			EndTime:      end,
			PricePerHour: w.PricePerHour,
		})
	}

	if err := s.repo.Driveway.Create(ctx, driveway); err != nil {
		s.log.Error("Failed to create driveway",
			zap.Error(err),
			zap.String("owner_id", ownerID),
		)
		return nil, fmt.Errorf("create driveway: %w", err)
	}

	for _, window := range windows {
		if err := s.repo.Driveway.AddWindow(ctx, window); err != nil {
			return nil, fmt.Errorf("add availability window: %w", err)
		}
	}

	s.log.Info("Driveway created",
		zap.String("driveway_id", driveway.ID.String()),
		zap.String("owner_id", ownerID),
		zap.Int("capacity", driveway.Capacity),
		zap.Int("windows", len(windows)),
	)

	resp := response.DrivewayToResponse(driveway, windows)
	return &resp, nil
}

func (s *drivewayService) GetDriveway(ctx context.Context, drivewayID string) (*response.DrivewayResponse, error) {
	id, err := uuid.Parse(drivewayID)
	if err != nil {
		return nil, fmt.Errorf("invalid driveway ID format %s: %w", drivewayID, err)
	}

	driveway, err := s.repo.Driveway.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load driveway: %w", err)
	}
	if driveway == nil {
		return nil, ErrDrivewayNotFound
	}

	windows, err := s.repo.Driveway.FindWindows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load availability windows: %w", err)
	}

	resp := response.DrivewayToResponse(driveway, windows)
	return &resp, nil
}

func (s *drivewayService) Quote(ctx context.Context, drivewayID string, startStr, endStr string) (*pricing.Breakdown, error) {
	id, err := uuid.Parse(drivewayID)
	if err != nil {
		return nil, fmt.Errorf("invalid driveway ID format %s: %w", drivewayID, err)
	}

	start, end, err := parseWindow(startStr, endStr)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := pricing.ValidateWindow(start, end, now); err != nil {
		return nil, err
	}

	driveway, err := s.repo.Driveway.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load driveway: %w", err)
	}
	if driveway == nil {
		return nil, ErrDrivewayNotFound
	}

	windows, err := s.repo.Driveway.FindWindows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load availability windows: %w", err)
	}

	rate := driveway.RateFor(windows, start, end)
	breakdown, err := s.pricingCfg.Calculate(rate, start, end, 1.0, now)
	if err != nil {
		return nil, err
	}

	return &breakdown, nil
}
