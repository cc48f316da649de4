package interfaces

import (
	"context"

	"rapidaid/internal/models"
	"rapidaid/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HospitalRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, hospital *models.Hospital) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Hospital, int64, error)

	// Bed accounting. DecrementBeds is guarded on available_beds > 0 and
	// returns models.ErrNoBedsAvailable when the count is exhausted.
	DecrementBeds(ctx context.Context, hospitalID primitive.ObjectID) error
	SetBeds(ctx context.Context, hospitalID primitive.ObjectID, beds int) error

	// Push token management for case broadcast
	AddPushToken(ctx context.Context, hospitalID primitive.ObjectID, token string) error
	RemovePushToken(ctx context.Context, hospitalID primitive.ObjectID, token string) error

	GetAll(ctx context.Context) ([]*models.Hospital, error)
	GetWithBeds(ctx context.Context) ([]*models.Hospital, error)
}
