package adaptor

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"driveway-booking/internal/dto/request"
	"driveway-booking/internal/usecase"
	"driveway-booking/pkg/utils"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreatePaymentIntent handles POST /api/payments/create-payment-intent (protected)
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreatePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), userID.String(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create payment intent")
		return
	}

	utils.ResponseCreated(w, "success", intent)
}

// Webhook handles POST /api/payments/webhook. The body carries only the
// gateway event ID; the event itself is fetched back from the gateway so a
// forged request cannot move a booking.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ID == "" {
		utils.ResponseBadRequest(w, "Invalid webhook payload", nil)
		return
	}

	if err := h.service.HandleGatewayEvent(r.Context(), payload.ID); err != nil {
		handleServiceError(w, h.log, err, "handle gateway event")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
