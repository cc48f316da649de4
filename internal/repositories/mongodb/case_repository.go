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

type caseRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewCaseRepository(db *mongo.Database, cache services.CacheService) interfaces.CaseRepository {
	return &caseRepository{
		collection: db.Collection("cases"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *caseRepository) Create(ctx context.Context, c *models.Case) error {
	c.ID = primitive.NewObjectID()
	c.Status = models.CaseStatusPending
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	_, err := r.collection.InsertOne(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}

	r.cacheCase(ctx, c)

	return nil
}

func (r *caseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	// Try cache first for active cases
	if c := r.getCaseFromCache(ctx, id.Hex()); c != nil {
		return c, nil
	}

	var c models.Case
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	r.cacheCase(ctx, &c)

	return &c, nil
}

func (r *caseRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrCaseNotFound
	}

	r.invalidateCaseCache(ctx, id.Hex())

	return nil
}

// AcceptForHospital is the hospital-side conditional write. The filter demands
// a pending case with no hospital bound, so only the first acceptance matches;
// every later one falls through to the conflict diagnosis below.
func (r *caseRepository) AcceptForHospital(ctx context.Context, caseID primitive.ObjectID, snapshot *models.HospitalSnapshot) error {
	now := time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":         caseID,
			"status":      models.CaseStatusPending,
			"hospital_id": nil,
		},
		bson.M{"$set": bson.M{
			"status":      models.CaseStatusAccepted,
			"hospital_id": snapshot.HospitalID,
			"hospital":    snapshot,
			"accepted_at": now,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to accept case: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.diagnoseAcceptConflict(ctx, caseID)
	}

	r.invalidateCaseCache(ctx, caseID.Hex())

	return nil
}

func (r *caseRepository) diagnoseAcceptConflict(ctx context.Context, caseID primitive.ObjectID) error {
	var c models.Case
	err := r.collection.FindOne(ctx, bson.M{"_id": caseID}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ErrCaseNotFound
		}
		return fmt.Errorf("failed to get case: %w", err)
	}

	if c.HospitalID != nil {
		return models.ErrConflictAlreadyBound
	}
	return models.ErrInvalidTransition
}

// BindAmbulance is the ambulance-side conditional write. A case can take an
// ambulance while pending or accepted; the ambulance_id == nil guard makes the
// binding exclusive.
func (r *caseRepository) BindAmbulance(ctx context.Context, caseID primitive.ObjectID, snapshot *models.AmbulanceSnapshot, newStatus models.CaseStatus) error {
	now := time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":          caseID,
			"ambulance_id": nil,
			"status": bson.M{"$in": []models.CaseStatus{
				models.CaseStatusPending,
				models.CaseStatusAccepted,
			}},
		},
		bson.M{"$set": bson.M{
			"status":       newStatus,
			"ambulance_id": snapshot.AmbulanceID,
			"ambulance":    snapshot,
			"en_route_at":  now,
			"updated_at":   now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to bind ambulance to case: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.diagnoseBindConflict(ctx, caseID)
	}

	r.invalidateCaseCache(ctx, caseID.Hex())

	return nil
}

func (r *caseRepository) diagnoseBindConflict(ctx context.Context, caseID primitive.ObjectID) error {
	var c models.Case
	err := r.collection.FindOne(ctx, bson.M{"_id": caseID}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ErrCaseNotFound
		}
		return fmt.Errorf("failed to get case: %w", err)
	}

	if c.AmbulanceID != nil {
		return models.ErrConflictAlreadyBound
	}
	return models.ErrInvalidTransition
}

// TransitionStatus applies a plain state-machine step, guarded on the exact
// stored status so stale actors lose instead of overwriting.
func (r *caseRepository) TransitionStatus(ctx context.Context, caseID primitive.ObjectID, from, to models.CaseStatus, updates map[string]interface{}) error {
	set := bson.M{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range updates {
		set[k] = v
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": caseID, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to transition case: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": caseID})
		if err != nil {
			return fmt.Errorf("failed to get case: %w", err)
		}
		if count == 0 {
			return models.ErrCaseNotFound
		}
		return models.ErrInvalidTransition
	}

	r.invalidateCaseCache(ctx, caseID.Hex())

	return nil
}

// Queries
func (r *caseRepository) GetPending(ctx context.Context) ([]*models.Case, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": models.CaseStatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to get pending cases: %w", err)
	}
	defer cursor.Close(ctx)

	var cases []*models.Case
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, fmt.Errorf("failed to decode pending cases: %w", err)
	}

	return cases, nil
}

func (r *caseRepository) GetActiveByAmbulance(ctx context.Context, ambulanceID primitive.ObjectID) (*models.Case, error) {
	var c models.Case
	err := r.collection.FindOne(ctx, bson.M{
		"ambulance_id": ambulanceID,
		"status": bson.M{"$in": []models.CaseStatus{
			models.CaseStatusEnRoute,
			models.CaseStatusArrived,
		}},
	}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get active case: %w", err)
	}

	return &c, nil
}

func (r *caseRepository) GetByHospital(ctx context.Context, hospitalID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Case, int64, error) {
	return r.findPage(ctx, bson.M{"hospital_id": hospitalID}, params)
}

func (r *caseRepository) GetByStatus(ctx context.Context, status models.CaseStatus, params *utils.PaginationParams) ([]*models.Case, int64, error) {
	return r.findPage(ctx, bson.M{"status": status}, params)
}

func (r *caseRepository) findPage(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Case, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count cases: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get cases: %w", err)
	}
	defer cursor.Close(ctx)

	var cases []*models.Case
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, 0, fmt.Errorf("failed to decode cases: %w", err)
	}

	return cases, total, nil
}

// Cache helpers. Misses and failures are silent; the store stays authoritative.
func (r *caseRepository) cacheCase(ctx context.Context, c *models.Case) {
	if r.cache == nil || c.IsTerminal() {
		return
	}
	r.cache.Set(ctx, utils.CacheCasePrefix+c.ID.Hex(), c, utils.CacheCaseTTL)
}

func (r *caseRepository) getCaseFromCache(ctx context.Context, id string) *models.Case {
	if r.cache == nil {
		return nil
	}

	var c models.Case
	if err := r.cache.Get(ctx, utils.CacheCasePrefix+id, &c); err != nil {
		return nil
	}
	return &c
}

func (r *caseRepository) invalidateCaseCache(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, utils.CacheCasePrefix+id)
}
