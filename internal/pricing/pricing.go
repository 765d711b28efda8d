package pricing

import (
	"math"
	"time"
)

// HourRange is a half-open [From, To) range of local hours of day.
type HourRange struct {
	From int
	To   int
}

func (r HourRange) Contains(hour int) bool {
	return hour >= r.From && hour < r.To
}

// Config holds the deployment-tunable pricing constants. The defaults mirror
// the rates the product launched with; real deployments load them from the
// environment.
type Config struct {
	PeakHours         []HourRange
	OffPeakHours      []HourRange
	PeakMultiplier    float64
	OffPeakMultiplier float64
	WeekendMultiplier float64
	MinimumCharge     float64
}

func DefaultConfig() Config {
	return Config{
		PeakHours:         []HourRange{{From: 7, To: 10}, {From: 16, To: 19}},
		OffPeakHours:      []HourRange{{From: 0, To: 6}},
		PeakMultiplier:    1.25,
		OffPeakMultiplier: 0.85,
		WeekendMultiplier: 1.15,
		MinimumCharge:     5.00,
	}
}

// Breakdown is the full pricing derivation for one booking window. Monetary
// fields are rounded to two decimals; Hours keeps full precision.
type Breakdown struct {
	BasePricePerHour float64 `json:"base_price_per_hour"`
	Hours            float64 `json:"hours"`
	BaseTotal        float64 `json:"base_total"`
	TimeMultiplier   float64 `json:"time_multiplier"`
	DayMultiplier    float64 `json:"day_multiplier"`
	DemandMultiplier float64 `json:"demand_multiplier"`
	RawPrice         float64 `json:"raw_price"`
	FinalPrice       float64 `json:"final_price"`
	MeetsMinimum     bool    `json:"meets_minimum"`
}

// Calculate prices a booking window. Pure and idempotent: identical inputs
// produce an identical breakdown, which is what lets the client's provisional
// quote and the server's authoritative recomputation agree whenever the
// demand multiplier matches.
//
// The window is re-validated here even though callers validate first; an
// invalid window must never produce a price.
func (c Config) Calculate(basePricePerHour float64, start, end time.Time, demandMultiplier float64, now time.Time) (Breakdown, error) {
	if err := ValidateWindow(start, end, now); err != nil {
		return Breakdown{}, err
	}

	hours := end.Sub(start).Seconds() / 3600
	baseTotal := basePricePerHour * hours

	timeMultiplier := 1.0
	hour := start.Hour()
	for _, r := range c.PeakHours {
		if r.Contains(hour) {
			timeMultiplier = c.PeakMultiplier
		}
	}
	for _, r := range c.OffPeakHours {
		if r.Contains(hour) {
			timeMultiplier = c.OffPeakMultiplier
		}
	}

	// Weekends only ever raise the price.
	dayMultiplier := 1.0
	switch start.Weekday() {
	case time.Saturday, time.Sunday:
		dayMultiplier = c.WeekendMultiplier
	}

	rawPrice := baseTotal * timeMultiplier * dayMultiplier * demandMultiplier
	meetsMinimum := rawPrice >= c.MinimumCharge
	finalPrice := math.Max(rawPrice, c.MinimumCharge)

	// Round only at the output boundary, never mid-calculation.
	return Breakdown{
		BasePricePerHour: basePricePerHour,
		Hours:            hours,
		BaseTotal:        round2(baseTotal),
		TimeMultiplier:   timeMultiplier,
		DayMultiplier:    dayMultiplier,
		DemandMultiplier: demandMultiplier,
		RawPrice:         round2(rawPrice),
		FinalPrice:       round2(finalPrice),
		MeetsMinimum:     meetsMinimum,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
