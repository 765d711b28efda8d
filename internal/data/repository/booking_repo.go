package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"driveway-booking/internal/data/entity"
	"driveway-booking/pkg/database"
)

var (
	// ErrSlotUnavailable is a real business conflict, not a transient fault:
	// the requested window has no spare capacity left. Never retried.
	ErrSlotUnavailable = errors.New("no capacity left for the requested window")

	// ErrStateConflict means a conditional state update lost a race; the row
	// was left untouched.
	ErrStateConflict = errors.New("booking state changed concurrently")
)

type BookingRepository interface {
	// ReserveSlot is the slot-reservation guard: capacity check and insert
	// happen in one transaction holding the driveway row lock, so two
	// concurrent attempts for the last unit cannot both be admitted.
	ReserveSlot(ctx context.Context, booking *entity.Booking) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByPaymentIntentRef(ctx context.Context, intentRef string) (*entity.Booking, error)
	FindForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// UpdateState persists a state-machine transition. The prior joint state
	// is part of the WHERE clause; a lost race returns ErrStateConflict.
	UpdateState(ctx context.Context, booking *entity.Booking, prior entity.State) error
	SetPaymentIntentRef(ctx context.Context, bookingID uuid.UUID, intentRef string) error

	FindExpirable(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error)
	FindCompletable(ctx context.Context, now time.Time) ([]*entity.Booking, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, reference, driveway_id, driver_id, start_time, end_time, total_price, status, payment_status, payment_intent_ref, vehicle_info, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.DrivewayID,
		&booking.DriverID,
		&booking.StartTime,
		&booking.EndTime,
		&booking.TotalPrice,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.PaymentIntentRef,
		&booking.VehicleInfo,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s := booking.State(); !s.Legal() {
		return nil, fmt.Errorf("booking %s loaded with illegal state %s/%s",
			booking.ID.String(), booking.Status, booking.PaymentStatus)
	}
	return &booking, nil
}

func (r *bookingRepository) ReserveSlot(ctx context.Context, booking *entity.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reserve transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the driveway row. Admissions for the same driveway serialize on
	// this lock; different driveways proceed independently.
	var capacity int
	err = tx.QueryRow(ctx,
		`SELECT capacity FROM driveways WHERE id = $1 FOR UPDATE`,
		booking.DrivewayID,
	).Scan(&capacity)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("driveway %s not found", booking.DrivewayID.String())
	}
	if err != nil {
		return fmt.Errorf("lock driveway %s: %w", booking.DrivewayID.String(), err)
	}

	// Count non-terminal bookings overlapping [start, end). Terminal rows
	// never count, which is what makes a synchronous cancel free the slot.
	var overlapping int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE driveway_id = $1
		   AND status IN ('pending', 'confirmed')
		   AND start_time < $3 AND end_time > $2`,
		booking.DrivewayID, booking.StartTime, booking.EndTime,
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("count overlapping bookings: %w", err)
	}

	if overlapping >= capacity {
		r.log.Info("Reservation rejected, no capacity",
			zap.String("driveway_id", booking.DrivewayID.String()),
			zap.Time("start", booking.StartTime),
			zap.Time("end", booking.EndTime),
			zap.Int("overlapping", overlapping),
			zap.Int("capacity", capacity),
		)
		return ErrSlotUnavailable
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		booking.ID,
		booking.Reference,
		booking.DrivewayID,
		booking.DriverID,
		booking.StartTime,
		booking.EndTime,
		booking.TotalPrice,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentIntentRef,
		booking.VehicleInfo,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
		)
		return fmt.Errorf("insert booking %s: %w", booking.Reference, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reserve transaction: %w", err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByPaymentIntentRef(ctx context.Context, intentRef string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_intent_ref = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, intentRef))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by payment intent",
			zap.Error(err),
			zap.String("payment_intent_ref", intentRef),
		)
		return nil, fmt.Errorf("find booking by payment intent %s: %w", intentRef, err)
	}

	return booking, nil
}

// FindForUser returns bookings where the user is the driver or owns the
// driveway.
func (r *bookingRepository) FindForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT b.id, b.reference, b.driveway_id, b.driver_id, b.start_time, b.end_time,
		       b.total_price, b.status, b.payment_status, b.payment_intent_ref, b.vehicle_info, b.created_at, b.updated_at
		FROM bookings b
		JOIN driveways d ON d.id = b.driveway_id
		WHERE b.driver_id = $1 OR d.owner_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings for user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings for user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings b
		JOIN driveways d ON d.id = b.driveway_id
		WHERE b.driver_id = $1 OR d.owner_id = $1
	`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings for user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings for user %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) UpdateState(ctx context.Context, booking *entity.Booking, prior entity.State) error {
	query := `
		UPDATE bookings
		SET status = $2, payment_status = $3, updated_at = $4
		WHERE id = $1 AND status = $5 AND payment_status = $6
	`

	result, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Status,
		booking.PaymentStatus,
		booking.UpdatedAt,
		prior.Status,
		prior.Payment,
	)
	if err != nil {
		r.log.Error("Failed to update booking state",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(booking.Status)),
			zap.String("payment_status", string(booking.PaymentStatus)),
		)
		return fmt.Errorf("update booking %s state: %w", booking.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrStateConflict
	}

	return nil
}

func (r *bookingRepository) SetPaymentIntentRef(ctx context.Context, bookingID uuid.UUID, intentRef string) error {
	query := `
		UPDATE bookings
		SET payment_intent_ref = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, bookingID, intentRef)
	if err != nil {
		r.log.Error("Failed to set payment intent ref",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("set payment intent for booking %s: %w", bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrStateConflict
	}

	return nil
}

func (r *bookingRepository) FindExpirable(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending' AND payment_status = 'pending' AND created_at < $1
	`

	return r.findList(ctx, query, cutoff)
}

func (r *bookingRepository) FindCompletable(ctx context.Context, now time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed' AND end_time <= $1
	`

	return r.findList(ctx, query, now)
}

func (r *bookingRepository) findList(ctx context.Context, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query bookings", zap.Error(err))
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}
