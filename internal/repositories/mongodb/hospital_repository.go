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

type hospitalRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewHospitalRepository(db *mongo.Database, cache services.CacheService) interfaces.HospitalRepository {
	return &hospitalRepository{
		collection: db.Collection("hospitals"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *hospitalRepository) Create(ctx context.Context, hospital *models.Hospital) error {
	hospital.ID = primitive.NewObjectID()
	hospital.CreatedAt = time.Now()
	hospital.UpdatedAt = hospital.CreatedAt

	_, err := r.collection.InsertOne(ctx, hospital)
	if err != nil {
		return fmt.Errorf("failed to create hospital: %w", err)
	}

	return nil
}

func (r *hospitalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error) {
	if h := r.getFromCache(ctx, id.Hex()); h != nil {
		return h, nil
	}

	var hospital models.Hospital
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&hospital)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrHospitalNotFound
		}
		return nil, fmt.Errorf("failed to get hospital: %w", err)
	}

	r.cacheHospital(ctx, &hospital)

	return &hospital, nil
}

func (r *hospitalRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update hospital: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrHospitalNotFound
	}

	r.invalidateCache(ctx, id.Hex())

	return nil
}

func (r *hospitalRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Hospital, int64, error) {
	filter := params.GetSearchFilter([]string{"name", "address"})

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count hospitals: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list hospitals: %w", err)
	}
	defer cursor.Close(ctx)

	var hospitals []*models.Hospital
	if err := cursor.All(ctx, &hospitals); err != nil {
		return nil, 0, fmt.Errorf("failed to decode hospitals: %w", err)
	}

	return hospitals, total, nil
}

// DecrementBeds is conditional on available_beds > 0, so concurrent
// acceptances cannot drive the count negative.
func (r *hospitalRepository) DecrementBeds(ctx context.Context, hospitalID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":            hospitalID,
			"available_beds": bson.M{"$gt": 0},
		},
		bson.M{
			"$inc": bson.M{"available_beds": -1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to decrement beds: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": hospitalID})
		if err != nil {
			return fmt.Errorf("failed to get hospital: %w", err)
		}
		if count == 0 {
			return models.ErrHospitalNotFound
		}
		return models.ErrNoBedsAvailable
	}

	r.invalidateCache(ctx, hospitalID.Hex())

	return nil
}

func (r *hospitalRepository) SetBeds(ctx context.Context, hospitalID primitive.ObjectID, beds int) error {
	return r.Update(ctx, hospitalID, map[string]interface{}{
		"available_beds": beds,
	})
}

// Push token management
func (r *hospitalRepository) AddPushToken(ctx context.Context, hospitalID primitive.ObjectID, token string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": hospitalID},
		bson.M{
			"$addToSet": bson.M{"push_tokens": token},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add push token: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrHospitalNotFound
	}

	r.invalidateCache(ctx, hospitalID.Hex())

	return nil
}

func (r *hospitalRepository) RemovePushToken(ctx context.Context, hospitalID primitive.ObjectID, token string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": hospitalID},
		bson.M{
			"$pull": bson.M{"push_tokens": token},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to remove push token: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrHospitalNotFound
	}

	r.invalidateCache(ctx, hospitalID.Hex())

	return nil
}

func (r *hospitalRepository) GetAll(ctx context.Context) ([]*models.Hospital, error) {
	return r.findAll(ctx, bson.M{})
}

func (r *hospitalRepository) GetWithBeds(ctx context.Context) ([]*models.Hospital, error) {
	return r.findAll(ctx, bson.M{"available_beds": bson.M{"$gt": 0}})
}

func (r *hospitalRepository) findAll(ctx context.Context, filter bson.M) ([]*models.Hospital, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get hospitals: %w", err)
	}
	defer cursor.Close(ctx)

	var hospitals []*models.Hospital
	if err := cursor.All(ctx, &hospitals); err != nil {
		return nil, fmt.Errorf("failed to decode hospitals: %w", err)
	}

	return hospitals, nil
}

// Cache helpers
func (r *hospitalRepository) cacheHospital(ctx context.Context, h *models.Hospital) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, utils.CacheHospitalPrefix+h.ID.Hex(), h, utils.CacheHospitalTTL)
}

func (r *hospitalRepository) getFromCache(ctx context.Context, id string) *models.Hospital {
	if r.cache == nil {
		return nil
	}

	var hospital models.Hospital
	if err := r.cache.Get(ctx, utils.CacheHospitalPrefix+id, &hospital); err != nil {
		return nil
	}
	return &hospital
}

func (r *hospitalRepository) invalidateCache(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, utils.CacheHospitalPrefix+id)
}
