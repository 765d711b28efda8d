package repository

import (
	"driveway-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Driveway DrivewayRepository
	Booking  BookingRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Driveway: NewDrivewayRepository(db, log),
		Booking:  NewBookingRepository(db, log),
	}
}
