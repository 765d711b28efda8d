package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2026-03-02 is a Monday.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func weekday(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC)
}

func TestCalculate_NeutralWeekdayAfternoon(t *testing.T) {
	cfg := DefaultConfig()

	b, err := cfg.Calculate(10.00, weekday(14, 0), weekday(16, 0), 1.0, testNow)

	assert.NoError(t, err)
	assert.Equal(t, 2.0, b.Hours)
	assert.Equal(t, 20.00, b.BaseTotal)
	assert.Equal(t, 1.0, b.TimeMultiplier)
	assert.Equal(t, 1.0, b.DayMultiplier)
	assert.Equal(t, 20.00, b.FinalPrice)
	assert.True(t, b.MeetsMinimum)
}

func TestCalculate_PeakHour(t *testing.T) {
	cfg := DefaultConfig()

	b, err := cfg.Calculate(10.00, weekday(8, 0), weekday(9, 0), 1.0, testNow)

	assert.NoError(t, err)
	assert.Equal(t, 1.0, b.Hours)
	assert.Equal(t, 1.25, b.TimeMultiplier)
	assert.Equal(t, 12.50, b.FinalPrice)
}

func TestCalculate_OffPeakHour(t *testing.T) {
	cfg := DefaultConfig()

	b, err := cfg.Calculate(10.00, weekday(2, 0), weekday(4, 0), 1.0, testNow)

	assert.NoError(t, err)
	assert.Equal(t, 0.85, b.TimeMultiplier)
	assert.Equal(t, 17.00, b.FinalPrice)
}

func TestCalculate_MinimumChargeFloor(t *testing.T) {
	cfg := DefaultConfig()

	// 10 minutes at $4/hr prices well below the floor.
	b, err := cfg.Calculate(4.00, weekday(12, 0), weekday(12, 10), 1.0, testNow)

	assert.NoError(t, err)
	assert.InDelta(t, 1.0/6.0, b.Hours, 1e-9)
	assert.Equal(t, 0.67, b.BaseTotal)
	assert.False(t, b.MeetsMinimum)
	assert.Equal(t, 5.00, b.FinalPrice)
}

func TestCalculate_WeekendMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	saturday := time.Date(2026, 3, 7, 14, 0, 0, 0, time.UTC)

	b, err := cfg.Calculate(10.00, saturday, saturday.Add(2*time.Hour), 1.0, testNow)

	assert.NoError(t, err)
	assert.Equal(t, 1.15, b.DayMultiplier)
	assert.Equal(t, 23.00, b.FinalPrice)
}

func TestCalculate_WeekendPeakStacks(t *testing.T) {
	cfg := DefaultConfig()
	saturday := time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC)

	b, err := cfg.Calculate(10.00, saturday, saturday.Add(time.Hour), 1.0, testNow)

	assert.NoError(t, err)
	assert.Equal(t, 1.25, b.TimeMultiplier)
	assert.Equal(t, 1.15, b.DayMultiplier)
	// 10 * 1.25 * 1.15, rounded at the output boundary
	assert.InDelta(t, 14.375, b.FinalPrice, 0.005)
}

func TestCalculate_DemandMultiplier(t *testing.T) {
	cfg := DefaultConfig()

	b, err := cfg.Calculate(10.00, weekday(14, 0), weekday(16, 0), 1.5, testNow)

	assert.NoError(t, err)
	assert.Equal(t, 1.5, b.DemandMultiplier)
	assert.Equal(t, 30.00, b.FinalPrice)
}

func TestCalculate_Idempotent(t *testing.T) {
	cfg := DefaultConfig()

	first, err := cfg.Calculate(12.34, weekday(9, 30), weekday(11, 45), 1.2, testNow)
	assert.NoError(t, err)

	second, err := cfg.Calculate(12.34, weekday(9, 30), weekday(11, 45), 1.2, testNow)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculate_RejectsInvalidWindow(t *testing.T) {
	cfg := DefaultConfig()

	_, err := cfg.Calculate(10.00, weekday(16, 0), weekday(14, 0), 1.0, testNow)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = cfg.Calculate(10.00, weekday(14, 0), weekday(14, 5), 1.0, testNow)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestValidateWindow(t *testing.T) {
	start := weekday(14, 0)

	assert.NoError(t, ValidateWindow(start, start.Add(time.Hour), testNow))

	// Exactly the minimum duration is allowed.
	assert.NoError(t, ValidateWindow(start, start.Add(MinBookableDuration), testNow))

	assert.ErrorIs(t, ValidateWindow(start, start, testNow), ErrInvalidWindow)
	assert.ErrorIs(t, ValidateWindow(start, start.Add(-time.Hour), testNow), ErrInvalidWindow)
	assert.ErrorIs(t, ValidateWindow(start, start.Add(5*time.Minute), testNow), ErrTooShort)
	assert.ErrorIs(t, ValidateWindow(start, start.Add(time.Hour), start), ErrPastWindow)
	assert.ErrorIs(t, ValidateWindow(start, start.Add(time.Hour), start.Add(time.Minute)), ErrPastWindow)
}

func TestParseHourRanges(t *testing.T) {
	ranges, err := ParseHourRanges("07-10,16-19")
	assert.NoError(t, err)
	assert.Equal(t, []HourRange{{From: 7, To: 10}, {From: 16, To: 19}}, ranges)

	ranges, err = ParseHourRanges("")
	assert.NoError(t, err)
	assert.Nil(t, ranges)

	_, err = ParseHourRanges("10-7")
	assert.Error(t, err)

	_, err = ParseHourRanges("7-25")
	assert.Error(t, err)

	_, err = ParseHourRanges("seven-ten")
	assert.Error(t, err)
}
