package handlers

import (
	"errors"

	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/services"
	"rapidaid/internal/utils"
	"rapidaid/internal/validators"

	"github.com/gin-gonic/gin"
)

type AmbulanceHandler struct {
	fleetService    services.FleetService
	trackingService services.TrackingService
	accountRepo     interfaces.AccountRepository
}

func NewAmbulanceHandler(fleetService services.FleetService, trackingService services.TrackingService, accountRepo interfaces.AccountRepository) *AmbulanceHandler {
	return &AmbulanceHandler{
		fleetService:    fleetService,
		trackingService: trackingService,
		accountRepo:     accountRepo,
	}
}

// RegisterAmbulance adds a vehicle to the fleet.
func (h *AmbulanceHandler) RegisterAmbulance(c *gin.Context) {
	var request validators.RegisterAmbulanceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateRegisterAmbulance(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	ambulance, err := h.fleetService.RegisterAmbulance(c.Request.Context(), &request)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, "Ambulance registered", ambulance)
}

func (h *AmbulanceHandler) GetAmbulance(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ambulance, err := h.fleetService.GetAmbulance(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrAmbulanceNotFound) {
			utils.NotFoundResponse(c, "Ambulance")
			return
		}
		utils.ServiceUnavailableResponse(c, "Fleet store is temporarily unavailable")
		return
	}

	utils.SuccessResponse(c, "Ambulance retrieved", ambulance)
}

func (h *AmbulanceHandler) ListAmbulances(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	ambulances, total, err := h.fleetService.ListAmbulances(c.Request.Context(), params)
	if err != nil {
		utils.ServiceUnavailableResponse(c, "Fleet store is temporarily unavailable")
		return
	}

	utils.SuccessResponseWithMeta(c, "Ambulances retrieved", ambulances, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

func (h *AmbulanceHandler) GetAvailable(c *gin.Context) {
	ambulances, err := h.fleetService.GetAvailable(c.Request.Context())
	if err != nil {
		utils.ServiceUnavailableResponse(c, "Fleet store is temporarily unavailable")
		return
	}

	utils.SuccessResponseWithMeta(c, "Available ambulances retrieved", ambulances, &utils.Meta{Count: len(ambulances)})
}

// GetNearby lists available ambulances around a point, nearest first.
func (h *AmbulanceHandler) GetNearby(c *gin.Context) {
	var query validators.NearbyQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateNearbyQuery(&query); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	nearby, err := h.fleetService.GetNearby(c.Request.Context(), query.Latitude, query.Longitude, query.RadiusKM)
	if err != nil {
		utils.ServiceUnavailableResponse(c, "Fleet store is temporarily unavailable")
		return
	}

	utils.SuccessResponseWithMeta(c, "Nearby ambulances retrieved", nearby, &utils.Meta{Count: len(nearby)})
}

// FleetPositions serves the police map overlay from the geo index.
func (h *AmbulanceHandler) FleetPositions(c *gin.Context) {
	var query validators.NearbyQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}

	overview, err := h.fleetService.FleetPositions(c.Request.Context(), query.Latitude, query.Longitude, query.RadiusKM)
	if err != nil {
		utils.ServiceUnavailableResponse(c, "Fleet index is temporarily unavailable")
		return
	}

	utils.SuccessResponseWithMeta(c, "Fleet positions retrieved", overview, &utils.Meta{Count: len(overview.Units)})
}

// SetStatus applies a manual status change for the signed-in crew.
func (h *AmbulanceHandler) SetStatus(c *gin.Context) {
	ambulanceID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	var request validators.AmbulanceStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateAmbulanceStatus(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	err := h.fleetService.SetManualStatus(c.Request.Context(), ambulanceID, models.AmbulanceStatus(request.Status))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAmbulanceBusy):
			utils.ConflictResponse(c, "Ambulance has an active case", nil)
		case errors.Is(err, models.ErrInvalidTransition):
			utils.BadRequestResponse(c, "Status cannot be set manually")
		case errors.Is(err, models.ErrAmbulanceNotFound):
			utils.NotFoundResponse(c, "Ambulance")
		default:
			utils.ServiceUnavailableResponse(c, "Fleet store is temporarily unavailable")
		}
		return
	}

	utils.SuccessResponse(c, "Status updated", nil)
}

// UpdateLocation ingests a position report from the signed-in crew.
func (h *AmbulanceHandler) UpdateLocation(c *gin.Context) {
	ambulanceID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	var request validators.LocationUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateLocationUpdate(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	location, err := h.trackingService.IngestLocation(c.Request.Context(), ambulanceID, &request)
	if err != nil {
		if errors.Is(err, models.ErrAmbulanceNotFound) {
			utils.NotFoundResponse(c, "Ambulance")
			return
		}
		utils.ServiceUnavailableResponse(c, "Fleet store is temporarily unavailable")
		return
	}

	if location == nil {
		utils.SuccessResponse(c, "Location report ignored", nil)
		return
	}

	utils.SuccessResponse(c, "Location updated", location)
}
