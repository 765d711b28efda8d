package response

import (
	"time"

	"driveway-booking/internal/data/entity"
)

type AvailabilityWindowResponse struct {
	ID           string    `json:"id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	PricePerHour float64   `json:"price_per_hour"`
}

type DrivewayResponse struct {
	ID               string                       `json:"id"`
	OwnerID          string                       `json:"owner_id"`
	Name             string                       `json:"name"`
	Address          string                       `json:"address"`
	BasePricePerHour float64                      `json:"base_price_per_hour"`
	Capacity         int                          `json:"capacity"`
	Windows          []AvailabilityWindowResponse `json:"windows,omitempty"`
	CreatedAt        time.Time                    `json:"created_at"`
}

func DrivewayToResponse(driveway *entity.Driveway, windows []*entity.AvailabilityWindow) DrivewayResponse {
	resp := DrivewayResponse{
		ID:               driveway.ID.String(),
		OwnerID:          driveway.OwnerID.String(),
		Name:             driveway.Name,
		Address:          driveway.Address,
		BasePricePerHour: driveway.BasePricePerHour,
		Capacity:         driveway.Capacity,
		CreatedAt:        driveway.CreatedAt,
	}
	for _, w := range windows {
		resp.Windows = append(resp.Windows, AvailabilityWindowResponse{
			ID:           w.ID.String(),
			StartTime:    w.StartTime,
			EndTime:      w.EndTime,
			PricePerHour: w.PricePerHour,
		})
	}
	return resp
}
