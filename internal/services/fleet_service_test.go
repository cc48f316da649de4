package services

import (
	"context"
	"testing"
	"time"

	"rapidaid/internal/models"
	"rapidaid/internal/utils"
	"rapidaid/internal/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newFleetFixture(t *testing.T) (*fakeAmbulanceRepo, *fakeCache, FleetService) {
	t.Helper()
	repo := newFakeAmbulanceRepo()
	cacheStore := newFakeCache()
	return repo, cacheStore, NewFleetService(repo, cacheStore, testLogger(t))
}

func availableAt(repo *fakeAmbulanceRepo, vehicle string, lat, lng float64, updated time.Time) *models.Ambulance {
	loc := models.NewLocation(lat, lng)
	return repo.add(&models.Ambulance{
		DriverName:         "Driver " + vehicle,
		VehicleNumber:      vehicle,
		Status:             models.AmbulanceStatusAvailable,
		CurrentLocation:    &loc,
		LastLocationUpdate: &updated,
	})
}

func TestGetNearbySortsByDistance(t *testing.T) {
	repo, _, service := newFleetFixture(t)
	now := time.Now()

	far := availableAt(repo, "KA-01-AB-0001", 12.9900, 77.6200, now)
	near := availableAt(repo, "KA-01-AB-0002", 12.9730, 77.5950, now)

	// Offline, never listed
	loc := models.NewLocation(12.9720, 77.5940)
	repo.add(&models.Ambulance{
		VehicleNumber:   "KA-01-AB-0003",
		Status:          models.AmbulanceStatusOffline,
		CurrentLocation: &loc,
	})
	// Available but position unknown
	repo.add(&models.Ambulance{
		VehicleNumber: "KA-01-AB-0004",
		Status:        models.AmbulanceStatusAvailable,
	})

	nearby, err := service.GetNearby(context.Background(), 12.9716, 77.5946, 10)
	require.NoError(t, err)

	require.Len(t, nearby, 2)
	assert.Equal(t, near.ID, nearby[0].Ambulance.ID)
	assert.Equal(t, far.ID, nearby[1].Ambulance.ID)
	assert.Less(t, nearby[0].DistanceKM, nearby[1].DistanceKM)
	assert.Greater(t, nearby[0].ETAMinutes, 0)
}

func TestGetNearbyAppliesRadius(t *testing.T) {
	repo, _, service := newFleetFixture(t)
	now := time.Now()

	availableAt(repo, "KA-01-AB-0001", 12.9730, 77.5950, now)
	// ~15 km out
	availableAt(repo, "KA-01-AB-0002", 13.1000, 77.6000, now)

	// Zero radius falls back to the default search radius
	nearby, err := service.GetNearby(context.Background(), 12.9716, 77.5946, 0)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, "KA-01-AB-0001", nearby[0].Ambulance.VehicleNumber)

	wide, err := service.GetNearby(context.Background(), 12.9716, 77.5946, utils.MaxSearchRadiusKM)
	require.NoError(t, err)
	assert.Len(t, wide, 2)
}

func TestGetNearbyTieBreaksByFreshestPosition(t *testing.T) {
	repo, _, service := newFleetFixture(t)

	stale := availableAt(repo, "KA-01-AB-0001", 12.9730, 77.5950, time.Now().Add(-10*time.Minute))
	fresh := availableAt(repo, "KA-01-AB-0002", 12.9730, 77.5950, time.Now())

	nearby, err := service.GetNearby(context.Background(), 12.9716, 77.5946, 5)
	require.NoError(t, err)

	require.Len(t, nearby, 2)
	assert.Equal(t, fresh.ID, nearby[0].Ambulance.ID)
	assert.Equal(t, stale.ID, nearby[1].Ambulance.ID)
}

func TestRegisterAmbulanceRejectsDuplicateVehicle(t *testing.T) {
	_, _, service := newFleetFixture(t)

	req := &validators.RegisterAmbulanceRequest{
		DriverName:    "Suresh",
		VehicleNumber: "KA-01-AB-1234",
	}

	first, err := service.RegisterAmbulance(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceStatusOffline, first.Status)
	assert.Equal(t, 1, first.Capacity)

	_, err = service.RegisterAmbulance(context.Background(), req)
	assert.Error(t, err)
}

func TestSetManualStatusRejectsCaseBoundStatuses(t *testing.T) {
	repo, _, service := newFleetFixture(t)
	a := availableAt(repo, "KA-01-AB-0001", 12.9730, 77.5950, time.Now())

	for _, status := range []models.AmbulanceStatus{models.AmbulanceStatusBusy, models.AmbulanceStatusEnRoute} {
		err := service.SetManualStatus(context.Background(), a.ID, status)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	}

	err := service.SetManualStatus(context.Background(), a.ID, "teleporting")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	require.NoError(t, service.SetManualStatus(context.Background(), a.ID, models.AmbulanceStatusOffline))
	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceStatusOffline, stored.Status)
}

func TestSetManualStatusRejectedWhileCaseBound(t *testing.T) {
	repo, _, service := newFleetFixture(t)
	a := availableAt(repo, "KA-01-AB-0001", 12.9730, 77.5950, time.Now())

	caseID := primitive.NewObjectID()
	require.NoError(t, repo.BindCase(context.Background(), a.ID, caseID, models.AmbulanceStatusEnRoute, nil, models.SeverityCritical))

	err := service.SetManualStatus(context.Background(), a.ID, models.AmbulanceStatusAvailable)
	assert.ErrorIs(t, err, models.ErrAmbulanceBusy)
}

func TestFleetPositionsReadsGeoIndex(t *testing.T) {
	_, cacheStore, service := newFleetFixture(t)

	require.NoError(t, cacheStore.GeoAdd(context.Background(), utils.CacheFleetGeoKey, "unit-1", 77.5950, 12.9730))
	require.NoError(t, cacheStore.GeoAdd(context.Background(), utils.CacheFleetGeoKey, "unit-2", 80.2707, 13.0827))

	overview, err := service.FleetPositions(context.Background(), 12.9716, 77.5946, 0)
	require.NoError(t, err)

	require.Len(t, overview.Units, 1)
	assert.Equal(t, "unit-1", overview.Units[0].Member)
	assert.Greater(t, overview.Units[0].DistanceKM, 0.0)
}

func TestFleetPositionsFramesUnitsWithBounds(t *testing.T) {
	_, cacheStore, service := newFleetFixture(t)

	require.NoError(t, cacheStore.GeoAdd(context.Background(), utils.CacheFleetGeoKey, "unit-1", 77.5950, 12.9730))
	require.NoError(t, cacheStore.GeoAdd(context.Background(), utils.CacheFleetGeoKey, "unit-2", 77.6146, 12.9352))

	overview, err := service.FleetPositions(context.Background(), 12.9716, 77.5946, 10)
	require.NoError(t, err)

	require.Len(t, overview.Units, 2)
	require.NotNil(t, overview.Bounds)
	assert.Equal(t, 12.9730, overview.Bounds.Northeast.Lat)
	assert.Equal(t, 77.6146, overview.Bounds.Northeast.Lng)
	assert.Equal(t, 12.9352, overview.Bounds.Southwest.Lat)
	assert.Equal(t, 77.5950, overview.Bounds.Southwest.Lng)

	empty, err := service.FleetPositions(context.Background(), 51.5074, -0.1278, 10)
	require.NoError(t, err)
	assert.Empty(t, empty.Units)
	assert.Nil(t, empty.Bounds)
}
