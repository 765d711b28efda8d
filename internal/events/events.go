package events

import "context"

// Routing keys emitted by the booking engine. Delivery is someone else's
// job; this package only defines the contract.
const (
	RKBookingCreated   = "booking.created"
	RKBookingConfirmed = "booking.confirmed"
	RKBookingCancelled = "booking.cancelled"
	RKBookingExpired   = "booking.expired"
)

// Publisher is the notification fan-out boundary. A nil Publisher is legal
// and means events are dropped (tests, degraded deployments).
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type BookingCreated struct {
	BookingID  string  `json:"booking_id"`
	Reference  string  `json:"reference"`
	DrivewayID string  `json:"driveway_id"`
	DriverID   string  `json:"driver_id"`
	Start      int64   `json:"start"` // unix seconds
	End        int64   `json:"end"`
	TotalPrice float64 `json:"total_price"`
}

type BookingConfirmed struct {
	BookingID        string `json:"booking_id"`
	Reference        string `json:"reference"`
	PaymentIntentRef string `json:"payment_intent_ref"`
}

type BookingCancelled struct {
	BookingID string `json:"booking_id"`
	Reference string `json:"reference"`
	Refunded  bool   `json:"refunded"`
}

type BookingExpired struct {
	BookingID string `json:"booking_id"`
	Reference string `json:"reference"`
}
