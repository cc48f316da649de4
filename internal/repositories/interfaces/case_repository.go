package interfaces

import (
	"context"

	"rapidaid/internal/models"
	"rapidaid/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CaseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Guarded transition writes. Each of these is a single conditional
	// document update; when the guard no longer holds the write matches
	// nothing and the repository reports the domain conflict instead of
	// overwriting a concurrent actor's state.

	// AcceptForHospital binds the hospital snapshot and moves the case to
	// accepted, guarded on status == pending and hospital_id == nil.
	// Returns models.ErrConflictAlreadyBound when another hospital won.
	AcceptForHospital(ctx context.Context, caseID primitive.ObjectID, snapshot *models.HospitalSnapshot) error

	// BindAmbulance binds the ambulance snapshot and moves the case to
	// newStatus, guarded on ambulance_id == nil and a non-terminal status.
	// Returns models.ErrConflictAlreadyBound when another ambulance won.
	BindAmbulance(ctx context.Context, caseID primitive.ObjectID, snapshot *models.AmbulanceSnapshot, newStatus models.CaseStatus) error

	// TransitionStatus moves the case from exactly `from` to `to`, guarded on
	// the current stored status. Returns models.ErrInvalidTransition when the
	// stored status is no longer `from`.
	TransitionStatus(ctx context.Context, caseID primitive.ObjectID, from, to models.CaseStatus, updates map[string]interface{}) error

	// Queries
	GetPending(ctx context.Context) ([]*models.Case, error)
	GetActiveByAmbulance(ctx context.Context, ambulanceID primitive.ObjectID) (*models.Case, error)
	GetByHospital(ctx context.Context, hospitalID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Case, int64, error)
	GetByStatus(ctx context.Context, status models.CaseStatus, params *utils.PaginationParams) ([]*models.Case, int64, error)
}
