package handlers

import (
	"context"
	"errors"
	"net/http"

	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/services"
	"rapidaid/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// accountID pulls the authenticated account ID set by the auth middleware.
func accountID(c *gin.Context) (primitive.ObjectID, bool) {
	id, exists := c.Get("account_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}

	oid, ok := id.(primitive.ObjectID)
	if !ok {
		utils.BadRequestResponse(c, "Invalid account ID")
		return primitive.NilObjectID, false
	}

	return oid, true
}

// entityID resolves the operational entity (ambulance or hospital document)
// behind the signed-in account.
func entityID(c *gin.Context, accounts interfaces.AccountRepository) (primitive.ObjectID, bool) {
	id, ok := accountID(c)
	if !ok {
		return primitive.NilObjectID, false
	}

	account, err := accounts.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	if account.EntityID == nil {
		utils.ForbiddenResponse(c)
		return primitive.NilObjectID, false
	}

	return *account.EntityID, true
}

func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ID")
		return primitive.NilObjectID, false
	}
	return oid, true
}

// respondCaseError maps domain errors to HTTP responses. Conflicts and
// rejected transitions include the case's current state so the caller can
// reconcile instead of guessing.
func respondCaseError(c *gin.Context, dispatch services.DispatchService, caseID primitive.ObjectID, err error) {
	switch {
	case errors.Is(err, models.ErrCaseNotFound):
		utils.NotFoundResponse(c, "Case")
	case errors.Is(err, models.ErrAmbulanceNotFound):
		utils.NotFoundResponse(c, "Ambulance")
	case errors.Is(err, models.ErrHospitalNotFound):
		utils.NotFoundResponse(c, "Hospital")
	case errors.Is(err, models.ErrConflictAlreadyBound):
		utils.ConflictResponse(c, utils.ErrAlreadyAccepted, currentCase(c.Request.Context(), dispatch, caseID))
	case errors.Is(err, models.ErrAmbulanceBusy):
		utils.ConflictResponse(c, "Ambulance already has an active case", nil)
	case errors.Is(err, models.ErrNoBedsAvailable):
		utils.ErrorResponse(c, http.StatusConflict, "NO_BEDS", "Hospital has no available beds")
	case errors.Is(err, models.ErrInvalidTransition):
		utils.InvalidTransitionResponse(c, "Case does not allow this transition", currentCase(c.Request.Context(), dispatch, caseID))
	case models.IsDomainErr(err):
		utils.BadRequestResponse(c, err.Error())
	default:
		utils.ServiceUnavailableResponse(c, "Case store is temporarily unavailable")
	}
}

func currentCase(ctx context.Context, dispatch services.DispatchService, caseID primitive.ObjectID) *models.Case {
	if dispatch == nil || caseID.IsZero() {
		return nil
	}
	current, err := dispatch.GetCase(ctx, caseID)
	if err != nil {
		return nil
	}
	return current
}
