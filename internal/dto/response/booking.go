package response

import (
	"time"

	"driveway-booking/internal/data/entity"
	"driveway-booking/internal/pricing"
)

type BookingResponse struct {
	ID               string                `json:"id"`
	Reference        string                `json:"reference"`
	DrivewayID       string                `json:"driveway_id"`
	DriverID         string                `json:"driver_id"`
	StartTime        time.Time             `json:"start_time"`
	EndTime          time.Time             `json:"end_time"`
	TotalPrice       float64               `json:"total_price"`
	Status           entity.BookingStatus  `json:"status"`
	PaymentStatus    entity.PaymentStatus  `json:"payment_status"`
	PaymentIntentRef *string               `json:"payment_intent_ref,omitempty"`
	VehicleInfo      *string               `json:"vehicle_info,omitempty"`
	Pricing          *pricing.Breakdown    `json:"pricing,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

type PaymentIntentResponse struct {
	BookingID        string `json:"booking_id"`
	PaymentIntentRef string `json:"payment_intent_ref"`
	ClientSecret     string `json:"client_secret"`
}

func BookingToResponse(booking *entity.Booking, breakdown *pricing.Breakdown) BookingResponse {
	return BookingResponse{
		ID:               booking.ID.String(),
		Reference:        booking.Reference,
		DrivewayID:       booking.DrivewayID.String(),
		DriverID:         booking.DriverID.String(),
		StartTime:        booking.StartTime,
		EndTime:          booking.EndTime,
		TotalPrice:       booking.TotalPrice,
		Status:           booking.Status,
		PaymentStatus:    booking.PaymentStatus,
		PaymentIntentRef: booking.PaymentIntentRef,
		VehicleInfo:      booking.VehicleInfo,
		Pricing:          breakdown,
		CreatedAt:        booking.CreatedAt,
	}
}
