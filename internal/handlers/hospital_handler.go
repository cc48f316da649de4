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

type HospitalHandler struct {
	hospitalRepo    interfaces.HospitalRepository
	matchingService services.MatchingService
	accountRepo     interfaces.AccountRepository
}

func NewHospitalHandler(hospitalRepo interfaces.HospitalRepository, matchingService services.MatchingService, accountRepo interfaces.AccountRepository) *HospitalHandler {
	return &HospitalHandler{
		hospitalRepo:    hospitalRepo,
		matchingService: matchingService,
		accountRepo:     accountRepo,
	}
}

func (h *HospitalHandler) GetHospital(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	hospital, err := h.hospitalRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrHospitalNotFound) {
			utils.NotFoundResponse(c, "Hospital")
			return
		}
		utils.ServiceUnavailableResponse(c, "Hospital store is temporarily unavailable")
		return
	}

	utils.SuccessResponse(c, "Hospital retrieved", hospital)
}

func (h *HospitalHandler) ListHospitals(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	hospitals, total, err := h.hospitalRepo.List(c.Request.Context(), params)
	if err != nil {
		utils.ServiceUnavailableResponse(c, "Hospital store is temporarily unavailable")
		return
	}

	utils.SuccessResponseWithMeta(c, "Hospitals retrieved", hospitals, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// RankHospitals lists hospitals with free beds around a point, nearest first.
func (h *HospitalHandler) RankHospitals(c *gin.Context) {
	var query validators.NearbyQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateNearbyQuery(&query); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	ranked, err := h.matchingService.RankHospitals(c.Request.Context(), models.NewLocation(query.Latitude, query.Longitude))
	if err != nil {
		utils.ServiceUnavailableResponse(c, "Hospital store is temporarily unavailable")
		return
	}

	utils.SuccessResponseWithMeta(c, "Hospitals ranked", ranked, &utils.Meta{Count: len(ranked)})
}

// UpdateBeds sets the signed-in hospital's free bed count.
func (h *HospitalHandler) UpdateBeds(c *gin.Context) {
	hospitalID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	var request validators.UpdateBedsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateUpdateBeds(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	if err := h.hospitalRepo.SetBeds(c.Request.Context(), hospitalID, *request.AvailableBeds); err != nil {
		if errors.Is(err, models.ErrHospitalNotFound) {
			utils.NotFoundResponse(c, "Hospital")
			return
		}
		utils.ServiceUnavailableResponse(c, "Hospital store is temporarily unavailable")
		return
	}

	utils.SuccessResponse(c, "Bed count updated", gin.H{"available_beds": *request.AvailableBeds})
}

// AddPushToken registers a device token for case broadcast notifications.
func (h *HospitalHandler) AddPushToken(c *gin.Context) {
	hospitalID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	var request validators.PushTokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidatePushToken(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	if err := h.hospitalRepo.AddPushToken(c.Request.Context(), hospitalID, request.Token); err != nil {
		if errors.Is(err, models.ErrHospitalNotFound) {
			utils.NotFoundResponse(c, "Hospital")
			return
		}
		utils.ServiceUnavailableResponse(c, "Hospital store is temporarily unavailable")
		return
	}

	utils.SuccessResponse(c, "Push token registered", nil)
}

func (h *HospitalHandler) RemovePushToken(c *gin.Context) {
	hospitalID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	var request validators.PushTokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidatePushToken(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	if err := h.hospitalRepo.RemovePushToken(c.Request.Context(), hospitalID, request.Token); err != nil {
		if errors.Is(err, models.ErrHospitalNotFound) {
			utils.NotFoundResponse(c, "Hospital")
			return
		}
		utils.ServiceUnavailableResponse(c, "Hospital store is temporarily unavailable")
		return
	}

	utils.SuccessResponse(c, "Push token removed", nil)
}
