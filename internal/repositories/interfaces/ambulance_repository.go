package interfaces

import (
	"context"

	"rapidaid/internal/models"
	"rapidaid/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AmbulanceRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, ambulance *models.Ambulance) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Ambulance, int64, error)

	// BindCase reserves the ambulance for a case: a compare-and-set guarded on
	// active_case_id == nil. Returns models.ErrAmbulanceBusy when the ambulance
	// already carries one.
	BindCase(ctx context.Context, ambulanceID, caseID primitive.ObjectID, status models.AmbulanceStatus, destination *models.Destination, severity models.CaseSeverity) error

	// ReleaseCase clears the active case binding and puts the ambulance back to
	// the given status, guarded on active_case_id == caseID so a stale release
	// cannot clobber a newer binding.
	ReleaseCase(ctx context.Context, ambulanceID, caseID primitive.ObjectID, status models.AmbulanceStatus) error

	// SetStatus applies a manual status change, guarded on active_case_id == nil
	// because statuses with a bound case are only reachable through BindCase.
	SetStatus(ctx context.Context, ambulanceID primitive.ObjectID, status models.AmbulanceStatus) error

	UpdateLocation(ctx context.Context, ambulanceID primitive.ObjectID, location *models.Location) error
	UpdateDestination(ctx context.Context, ambulanceID primitive.ObjectID, destination *models.Destination) error

	// Queries
	GetAvailable(ctx context.Context) ([]*models.Ambulance, error)
	GetByStatus(ctx context.Context, status models.AmbulanceStatus) ([]*models.Ambulance, error)
	GetByVehicleNumber(ctx context.Context, vehicleNumber string) (*models.Ambulance, error)
}
