package request

type CreateBookingRequest struct {
	DrivewayID  string  `json:"driveway_id" validate:"required,uuid4"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	VehicleInfo *string `json:"vehicle_info,omitempty"`
}

type CreatePaymentIntentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid4"`
}
