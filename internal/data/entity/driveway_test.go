package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func window(startHour, endHour int, rate float64) *AvailabilityWindow {
	return &AvailabilityWindow{
		BaseSimple:   BaseSimple{ID: uuid.New()},
		StartTime:    time.Date(2026, 3, 2, startHour, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2026, 3, 2, endHour, 0, 0, 0, time.UTC),
		PricePerHour: rate,
	}
}

func TestRateFor(t *testing.T) {
	d := &Driveway{BasePricePerHour: 10.00}
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }

	// No windows: base rate.
	assert.Equal(t, 10.00, d.RateFor(nil, at(14), at(16)))

	// Fully containing window overrides, even upward.
	assert.Equal(t, 12.00, d.RateFor([]*AvailabilityWindow{window(8, 20, 12.00)}, at(14), at(16)))

	// Partially overlapping window does not apply.
	assert.Equal(t, 10.00, d.RateFor([]*AvailabilityWindow{window(15, 20, 6.00)}, at(14), at(16)))

	// Several containing windows: cheapest wins regardless of order.
	windows := []*AvailabilityWindow{window(8, 20, 12.00), window(0, 24, 7.00)}
	assert.Equal(t, 7.00, d.RateFor(windows, at(14), at(16)))
	windows[0], windows[1] = windows[1], windows[0]
	assert.Equal(t, 7.00, d.RateFor(windows, at(14), at(16)))
}

func TestWindowContains(t *testing.T) {
	w := window(8, 20, 9.00)
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }

	assert.True(t, w.Contains(at(8), at(20)))
	assert.True(t, w.Contains(at(10), at(12)))
	assert.False(t, w.Contains(at(7), at(12)))
	assert.False(t, w.Contains(at(10), at(21)))
}
