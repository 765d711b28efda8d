package adaptor

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"driveway-booking/internal/data/entity"
	"driveway-booking/internal/data/repository"
	"driveway-booking/internal/pricing"
	"driveway-booking/internal/usecase"
	"driveway-booking/pkg/utils"
)

type Handler struct {
	Driveway *DrivewayHandler
	Booking  *BookingHandler
	Payment  *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Driveway: NewDrivewayHandler(service.Driveway, log),
		Booking:  NewBookingHandler(service.Booking, log),
		Payment:  NewPaymentHandler(service.Payment, log),
	}
}

// handleServiceError maps service errors onto HTTP responses. One mapping
// for every handler so a given error class always gets the same status.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, pricing.ErrInvalidWindow),
		errors.Is(err, pricing.ErrTooShort),
		errors.Is(err, pricing.ErrPastWindow):
		log.Warn(operation+" failed - invalid window", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrDrivewayNotFound),
		errors.Is(err, usecase.ErrBookingNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrSelfBooking),
		errors.Is(err, usecase.ErrNotBookingParty):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, repository.ErrSlotUnavailable):
		log.Info(operation+" rejected - slot unavailable", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrAlreadyTerminal),
		errors.Is(err, usecase.ErrPaymentNotApplicable):
		log.Warn(operation+" failed - state conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, entity.ErrIllegalTransition):
		// A race or a programming defect; the details stay in the log.
		log.Error(operation+" failed - illegal state transition", zap.Error(err))
		utils.ResponseInternalError(w, "Booking could not be updated")

	case badInput(err):
		log.Warn(operation+" failed - bad input", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// badInputPrefixes are the exact messages the services produce for
// unparseable caller input. Matching on the prefix keeps internal errors
// that merely mention "invalid" (driver errors, wrapped failures) in the
// 500 bucket where they belong.
var badInputPrefixes = []string{
	"validation failed",
	"invalid start_time",
	"invalid end_time",
	"invalid driver ID format",
	"invalid driveway ID format",
	"invalid booking ID format",
	"invalid owner ID format",
	"invalid user ID format",
}

func badInput(err error) bool {
	msg := err.Error()
	for _, prefix := range badInputPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
