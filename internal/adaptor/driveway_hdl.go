package adaptor

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"driveway-booking/internal/dto/request"
	"driveway-booking/internal/usecase"
	"driveway-booking/pkg/utils"
)

type DrivewayHandler struct {
	service usecase.DrivewayService
	log     *zap.Logger
}

func NewDrivewayHandler(service usecase.DrivewayService, log *zap.Logger) *DrivewayHandler {
	return &DrivewayHandler{
		service: service,
		log:     log.With(zap.String("handler", "driveway")),
	}
}

// CreateDriveway handles POST /api/driveways (protected)
func (h *DrivewayHandler) CreateDriveway(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateDrivewayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	driveway, err := h.service.CreateDriveway(r.Context(), ownerID.String(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create driveway")
		return
	}

	utils.ResponseCreated(w, "success", driveway)
}

// GetDriveway handles GET /api/driveways/{id}
func (h *DrivewayHandler) GetDriveway(w http.ResponseWriter, r *http.Request) {
	drivewayID := chi.URLParam(r, "id")
	if drivewayID == "" {
		utils.ResponseBadRequest(w, "Driveway ID is required", nil)
		return
	}

	driveway, err := h.service.GetDriveway(r.Context(), drivewayID)
	if err != nil {
		handleServiceError(w, h.log, err, "get driveway")
		return
	}

	utils.ResponseSuccess(w, "success", driveway)
}

// Quote handles GET /api/driveways/{id}/quote?start=...&end=...
// Prices a prospective window without reserving anything.
func (h *DrivewayHandler) Quote(w http.ResponseWriter, r *http.Request) {
	drivewayID := chi.URLParam(r, "id")
	if drivewayID == "" {
		utils.ResponseBadRequest(w, "Driveway ID is required", nil)
		return
	}

	query := r.URL.Query()
	start := query.Get("start")
	end := query.Get("end")
	if start == "" || end == "" {
		utils.ResponseBadRequest(w, "Query parameters start and end are required", nil)
		return
	}

	breakdown, err := h.service.Quote(r.Context(), drivewayID, start, end)
	if err != nil {
		handleServiceError(w, h.log, err, "quote driveway")
		return
	}

	utils.ResponseSuccess(w, "success", breakdown)
}
