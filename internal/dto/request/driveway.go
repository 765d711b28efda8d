package request

type AvailabilityWindowRequest struct {
	StartTime    string  `json:"start_time" validate:"required"`
	EndTime      string  `json:"end_time" validate:"required"`
	PricePerHour float64 `json:"price_per_hour" validate:"gte=0"`
}

type CreateDrivewayRequest struct {
	Name             string                      `json:"name" validate:"required"`
	Address          string                      `json:"address" validate:"required"`
	BasePricePerHour float64                     `json:"base_price_per_hour" validate:"gte=0"`
	Capacity         int                         `json:"capacity" validate:"required,min=1"`
	Windows          []AvailabilityWindowRequest `json:"windows" validate:"dive"`
}
