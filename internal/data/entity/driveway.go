package entity

import (
	"time"

	"github.com/google/uuid"
)

type Driveway struct {
	Base
	OwnerID          uuid.UUID `db:"owner_id"`
	Name             string    `db:"name"`
	Address          string    `db:"address"`
	BasePricePerHour float64   `db:"base_price_per_hour"`
	Capacity         int       `db:"capacity"`
}

// AvailabilityWindow overrides the driveway base rate for a time range.
// Windows are non-overlapping by convention only; nothing downstream may
// assume that holds.
type AvailabilityWindow struct {
	BaseSimple
	DrivewayID   uuid.UUID `db:"driveway_id"`
	StartTime    time.Time `db:"start_time"`
	EndTime      time.Time `db:"end_time"`
	PricePerHour float64   `db:"price_per_hour"`
}

// Contains reports whether the window fully covers [start, end).
func (w *AvailabilityWindow) Contains(start, end time.Time) bool {
	return !start.Before(w.StartTime) && !end.After(w.EndTime)
}

// RateFor picks the hourly rate for a booking range. When several windows
// fully contain the range the cheapest one wins so the outcome stays
// deterministic regardless of row order.
func (d *Driveway) RateFor(windows []*AvailabilityWindow, start, end time.Time) float64 {
	rate := d.BasePricePerHour
	matched := false
	for _, w := range windows {
		if !w.Contains(start, end) {
			continue
		}
		if !matched || w.PricePerHour < rate {
			rate = w.PricePerHour
			matched = true
		}
	}
	return rate
}
