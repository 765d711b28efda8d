package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"driveway-booking/internal/data/entity"
	"driveway-booking/pkg/database"
)

type DrivewayRepository interface {
	Create(ctx context.Context, driveway *entity.Driveway) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Driveway, error)
	AddWindow(ctx context.Context, window *entity.AvailabilityWindow) error
	FindWindows(ctx context.Context, drivewayID uuid.UUID) ([]*entity.AvailabilityWindow, error)
}

type drivewayRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewDrivewayRepository(db database.PgxIface, log *zap.Logger) DrivewayRepository {
	return &drivewayRepository{
		db:  db,
		log: log.With(zap.String("repository", "driveway")),
	}
}

func (r *drivewayRepository) Create(ctx context.Context, driveway *entity.Driveway) error {
	query := `
		INSERT INTO driveways (id, owner_id, name, address, base_price_per_hour, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		driveway.ID,
		driveway.OwnerID,
		driveway.Name,
		driveway.Address,
		driveway.BasePricePerHour,
		driveway.Capacity,
		driveway.CreatedAt,
		driveway.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create driveway",
			zap.Error(err),
			zap.String("owner_id", driveway.OwnerID.String()),
		)
		return fmt.Errorf("create driveway: %w", err)
	}

	return nil
}

func (r *drivewayRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Driveway, error) {
	query := `
		SELECT id, owner_id, name, address, base_price_per_hour, capacity, created_at, updated_at
		FROM driveways
		WHERE id = $1
	`

	var driveway entity.Driveway
	err := r.db.QueryRow(ctx, query, id).Scan(
		&driveway.ID,
		&driveway.OwnerID,
		&driveway.Name,
		&driveway.Address,
		&driveway.BasePricePerHour,
		&driveway.Capacity,
		&driveway.CreatedAt,
		&driveway.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find driveway by ID",
			zap.Error(err),
			zap.String("driveway_id", id.String()),
		)
		return nil, fmt.Errorf("find driveway by ID %s: %w", id.String(), err)
	}

	return &driveway, nil
}

func (r *drivewayRepository) AddWindow(ctx context.Context, window *entity.AvailabilityWindow) error {
	query := `
		INSERT INTO availability_windows (id, driveway_id, start_time, end_time, price_per_hour, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		window.ID,
		window.DrivewayID,
		window.StartTime,
		window.EndTime,
		window.PricePerHour,
		window.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to add availability window",
			zap.Error(err),
			zap.String("driveway_id", window.DrivewayID.String()),
		)
		return fmt.Errorf("add availability window: %w", err)
	}

	return nil
}

func (r *drivewayRepository) FindWindows(ctx context.Context, drivewayID uuid.UUID) ([]*entity.AvailabilityWindow, error) {
	query := `
		SELECT id, driveway_id, start_time, end_time, price_per_hour, created_at
		FROM availability_windows
		WHERE driveway_id = $1
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, drivewayID)
	if err != nil {
		r.log.Error("Failed to find availability windows",
			zap.Error(err),
			zap.String("driveway_id", drivewayID.String()),
		)
		return nil, fmt.Errorf("find availability windows for %s: %w", drivewayID.String(), err)
	}
	defer rows.Close()

	var windows []*entity.AvailabilityWindow
	for rows.Next() {
		var window entity.AvailabilityWindow
		err := rows.Scan(
			&window.ID,
			&window.DrivewayID,
			&window.StartTime,
			&window.EndTime,
			&window.PricePerHour,
			&window.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan availability window row", zap.Error(err))
			return nil, fmt.Errorf("scan availability window row: %w", err)
		}
		windows = append(windows, &window)
	}

	return windows, nil
}
