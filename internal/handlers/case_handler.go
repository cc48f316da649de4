package handlers

import (
	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/services"
	"rapidaid/internal/utils"
	"rapidaid/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CaseHandler struct {
	dispatchService services.DispatchService
	accountRepo     interfaces.AccountRepository
}

func NewCaseHandler(dispatchService services.DispatchService, accountRepo interfaces.AccountRepository) *CaseHandler {
	return &CaseHandler{
		dispatchService: dispatchService,
		accountRepo:     accountRepo,
	}
}

// CreateCase raises a new emergency case from an ambulance crew.
func (h *CaseHandler) CreateCase(c *gin.Context) {
	var request validators.CreateCaseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateCreateCase(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	createdBy, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	created, err := h.dispatchService.CreateCase(c.Request.Context(), createdBy, &request)
	if err != nil {
		respondCaseError(c, h.dispatchService, primitive.NilObjectID, err)
		return
	}

	utils.CreatedResponse(c, "Case created successfully", created)
}

func (h *CaseHandler) GetCase(c *gin.Context) {
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	result, err := h.dispatchService.GetCase(c.Request.Context(), caseID)
	if err != nil {
		respondCaseError(c, nil, primitive.NilObjectID, err)
		return
	}

	utils.SuccessResponse(c, "Case retrieved successfully", result)
}

// GetPendingCases lists open cases sorted by distance from the viewer.
func (h *CaseHandler) GetPendingCases(c *gin.Context) {
	var query struct {
		Latitude  float64 `form:"latitude"`
		Longitude float64 `form:"longitude"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}

	viewer := models.NewLocation(query.Latitude, query.Longitude)
	views, err := h.dispatchService.GetPendingCases(c.Request.Context(), viewer)
	if err != nil {
		respondCaseError(c, nil, primitive.NilObjectID, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Pending cases retrieved", views, &utils.Meta{Count: len(views)})
}

// AcceptCase commits the signed-in hospital to a pending case.
func (h *CaseHandler) AcceptCase(c *gin.Context) {
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	hospitalID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	accepted, err := h.dispatchService.AcceptCase(c.Request.Context(), caseID, hospitalID)
	if err != nil {
		respondCaseError(c, h.dispatchService, caseID, err)
		return
	}

	utils.SuccessResponse(c, "Case accepted", accepted)
}

// DispatchAmbulance binds a chosen ambulance to a case.
func (h *CaseHandler) DispatchAmbulance(c *gin.Context) {
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var request validators.DispatchCaseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateDispatchCase(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	ambulanceID, err := primitive.ObjectIDFromHex(request.AmbulanceID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ambulance ID")
		return
	}

	dispatched, err := h.dispatchService.DispatchAmbulance(c.Request.Context(), caseID, ambulanceID)
	if err != nil {
		respondCaseError(c, h.dispatchService, caseID, err)
		return
	}

	utils.SuccessResponse(c, "Ambulance dispatched", dispatched)
}

// SelfDispatch lets the case-raising crew take the case themselves without
// waiting for a hospital.
func (h *CaseHandler) SelfDispatch(c *gin.Context) {
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ambulanceID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	dispatched, err := h.dispatchService.DispatchAmbulance(c.Request.Context(), caseID, ambulanceID)
	if err != nil {
		respondCaseError(c, h.dispatchService, caseID, err)
		return
	}

	utils.SuccessResponse(c, "Ambulance dispatched", dispatched)
}

func (h *CaseHandler) MarkArrived(c *gin.Context) {
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ambulanceID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	arrived, err := h.dispatchService.MarkArrived(c.Request.Context(), caseID, ambulanceID)
	if err != nil {
		respondCaseError(c, h.dispatchService, caseID, err)
		return
	}

	utils.SuccessResponse(c, "Arrival recorded", arrived)
}

func (h *CaseHandler) CompleteCase(c *gin.Context) {
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ambulanceID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	completed, err := h.dispatchService.CompleteCase(c.Request.Context(), caseID, ambulanceID)
	if err != nil {
		respondCaseError(c, h.dispatchService, caseID, err)
		return
	}

	utils.SuccessResponse(c, "Case completed", completed)
}

func (h *CaseHandler) CancelCase(c *gin.Context) {
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var request validators.CancelCaseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateCancelCase(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	canceled, err := h.dispatchService.CancelCase(c.Request.Context(), caseID, request.Reason, request.CanceledBy)
	if err != nil {
		respondCaseError(c, h.dispatchService, caseID, err)
		return
	}

	utils.SuccessResponse(c, "Case canceled", canceled)
}

// GetRoutes returns traffic-ranked route options for the case's ambulance.
func (h *CaseHandler) GetRoutes(c *gin.Context) {
	caseID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	routes, err := h.dispatchService.GetRoutes(c.Request.Context(), caseID)
	if err != nil {
		respondCaseError(c, h.dispatchService, caseID, err)
		return
	}

	utils.SuccessResponse(c, "Routes retrieved", routes)
}

// GetHospitalCases lists the signed-in hospital's case history.
func (h *CaseHandler) GetHospitalCases(c *gin.Context) {
	hospitalID, ok := entityID(c, h.accountRepo)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	cases, total, err := h.dispatchService.GetHospitalCases(c.Request.Context(), hospitalID, params)
	if err != nil {
		respondCaseError(c, nil, primitive.NilObjectID, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Cases retrieved", cases, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}
