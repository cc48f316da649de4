package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/services"
	"rapidaid/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ambulanceRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewAmbulanceRepository(db *mongo.Database, cache services.CacheService) interfaces.AmbulanceRepository {
	return &ambulanceRepository{
		collection: db.Collection("ambulances"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *ambulanceRepository) Create(ctx context.Context, ambulance *models.Ambulance) error {
	ambulance.ID = primitive.NewObjectID()
	if ambulance.Status == "" {
		ambulance.Status = models.AmbulanceStatusOffline
	}
	ambulance.CreatedAt = time.Now()
	ambulance.UpdatedAt = ambulance.CreatedAt

	_, err := r.collection.InsertOne(ctx, ambulance)
	if err != nil {
		return fmt.Errorf("failed to create ambulance: %w", err)
	}

	return nil
}

func (r *ambulanceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	if a := r.getFromCache(ctx, id.Hex()); a != nil {
		return a, nil
	}

	var ambulance models.Ambulance
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ambulance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrAmbulanceNotFound
		}
		return nil, fmt.Errorf("failed to get ambulance: %w", err)
	}

	r.cacheAmbulance(ctx, &ambulance)

	return &ambulance, nil
}

func (r *ambulanceRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update ambulance: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrAmbulanceNotFound
	}

	r.invalidateCache(ctx, id.Hex())

	return nil
}

func (r *ambulanceRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Ambulance, int64, error) {
	filter := params.GetSearchFilter([]string{"driver_name", "vehicle_number"})

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ambulances: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ambulances: %w", err)
	}
	defer cursor.Close(ctx)

	var ambulances []*models.Ambulance
	if err := cursor.All(ctx, &ambulances); err != nil {
		return nil, 0, fmt.Errorf("failed to decode ambulances: %w", err)
	}

	return ambulances, total, nil
}

// BindCase is the ambulance-side compare-and-set. The active_case_id == nil
// guard makes one case per ambulance a store-level rule, not a service-level
// convention.
func (r *ambulanceRepository) BindCase(ctx context.Context, ambulanceID, caseID primitive.ObjectID, status models.AmbulanceStatus, destination *models.Destination, severity models.CaseSeverity) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":            ambulanceID,
			"active_case_id": nil,
		},
		bson.M{"$set": bson.M{
			"active_case_id":   caseID,
			"status":           status,
			"destination":      destination,
			"patient_severity": severity,
			"updated_at":       time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to bind case to ambulance: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": ambulanceID})
		if err != nil {
			return fmt.Errorf("failed to get ambulance: %w", err)
		}
		if count == 0 {
			return models.ErrAmbulanceNotFound
		}
		return models.ErrAmbulanceBusy
	}

	r.invalidateCache(ctx, ambulanceID.Hex())

	return nil
}

// ReleaseCase clears the binding, guarded on the case that is actually bound.
func (r *ambulanceRepository) ReleaseCase(ctx context.Context, ambulanceID, caseID primitive.ObjectID, status models.AmbulanceStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":            ambulanceID,
			"active_case_id": caseID,
		},
		bson.M{"$set": bson.M{
			"active_case_id":   nil,
			"status":           status,
			"destination":      nil,
			"patient_severity": nil,
			"updated_at":       time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to release ambulance: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrAmbulanceNotFound
	}

	r.invalidateCache(ctx, ambulanceID.Hex())

	return nil
}

func (r *ambulanceRepository) SetStatus(ctx context.Context, ambulanceID primitive.ObjectID, status models.AmbulanceStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":            ambulanceID,
			"active_case_id": nil,
		},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set ambulance status: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": ambulanceID})
		if err != nil {
			return fmt.Errorf("failed to get ambulance: %w", err)
		}
		if count == 0 {
			return models.ErrAmbulanceNotFound
		}
		return models.ErrAmbulanceBusy
	}

	r.invalidateCache(ctx, ambulanceID.Hex())

	return nil
}

func (r *ambulanceRepository) UpdateLocation(ctx context.Context, ambulanceID primitive.ObjectID, location *models.Location) error {
	now := time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": ambulanceID},
		bson.M{"$set": bson.M{
			"current_location":     location,
			"last_location_update": now,
			"updated_at":           now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update ambulance location: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrAmbulanceNotFound
	}

	// Keep the geo index in step with the document
	if r.cache != nil && location.HasCoordinates() {
		r.cache.GeoAdd(ctx, utils.CacheFleetGeoKey, ambulanceID.Hex(), location.Longitude(), location.Latitude())
	}
	r.invalidateCache(ctx, ambulanceID.Hex())

	return nil
}

func (r *ambulanceRepository) UpdateDestination(ctx context.Context, ambulanceID primitive.ObjectID, destination *models.Destination) error {
	return r.Update(ctx, ambulanceID, map[string]interface{}{
		"destination": destination,
	})
}

// Queries
func (r *ambulanceRepository) GetAvailable(ctx context.Context) ([]*models.Ambulance, error) {
	return r.findAll(ctx, bson.M{
		"status":         models.AmbulanceStatusAvailable,
		"active_case_id": nil,
	})
}

func (r *ambulanceRepository) GetByStatus(ctx context.Context, status models.AmbulanceStatus) ([]*models.Ambulance, error) {
	return r.findAll(ctx, bson.M{"status": status})
}

func (r *ambulanceRepository) GetByVehicleNumber(ctx context.Context, vehicleNumber string) (*models.Ambulance, error) {
	var ambulance models.Ambulance
	err := r.collection.FindOne(ctx, bson.M{"vehicle_number": vehicleNumber}).Decode(&ambulance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrAmbulanceNotFound
		}
		return nil, fmt.Errorf("failed to get ambulance by vehicle number: %w", err)
	}

	return &ambulance, nil
}

func (r *ambulanceRepository) findAll(ctx context.Context, filter bson.M) ([]*models.Ambulance, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get ambulances: %w", err)
	}
	defer cursor.Close(ctx)

	var ambulances []*models.Ambulance
	if err := cursor.All(ctx, &ambulances); err != nil {
		return nil, fmt.Errorf("failed to decode ambulances: %w", err)
	}

	return ambulances, nil
}

// Cache helpers
func (r *ambulanceRepository) cacheAmbulance(ctx context.Context, a *models.Ambulance) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, utils.CacheAmbulancePrefix+a.ID.Hex(), a, utils.CacheAmbulanceTTL)
}

func (r *ambulanceRepository) getFromCache(ctx context.Context, id string) *models.Ambulance {
	if r.cache == nil {
		return nil
	}

	var ambulance models.Ambulance
	if err := r.cache.Get(ctx, utils.CacheAmbulancePrefix+id, &ambulance); err != nil {
		return nil
	}
	return &ambulance
}

func (r *ambulanceRepository) invalidateCache(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, utils.CacheAmbulancePrefix+id)
}
