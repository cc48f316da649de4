package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"rapidaid/internal/models"
	"rapidaid/internal/utils"
	"rapidaid/internal/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func floatPtr(v float64) *float64 { return &v }

func newTrackingFixture(t *testing.T, provider *fakeMapsProvider) (*fakeAmbulanceRepo, *fakeCache, *trackingService) {
	t.Helper()
	repo := newFakeAmbulanceRepo()
	cacheStore := newFakeCache()

	service := NewTrackingService(repo, newFakeCaseRepo(), cacheStore, provider, nil, testLogger(t), utils.LocationUpdateInterval)
	return repo, cacheStore, service.(*trackingService)
}

func TestIngestLocationDropsSamplesWithoutCoordinates(t *testing.T) {
	repo, _, service := newTrackingFixture(t, &fakeMapsProvider{})
	a := repo.add(&models.Ambulance{
		VehicleNumber: "KA-01-AB-1234",
		Status:        models.AmbulanceStatusAvailable,
	})

	location, err := service.IngestLocation(context.Background(), a.ID, &validators.LocationUpdateRequest{
		Latitude: floatPtr(12.9716),
	})
	require.NoError(t, err)
	assert.Nil(t, location)

	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CurrentLocation)
}

func TestIngestLocationResolvesAddress(t *testing.T) {
	repo, _, service := newTrackingFixture(t, &fakeMapsProvider{address: "MG Road, Bengaluru"})
	a := repo.add(&models.Ambulance{
		VehicleNumber: "KA-01-AB-1234",
		Status:        models.AmbulanceStatusAvailable,
	})

	location, err := service.IngestLocation(context.Background(), a.ID, &validators.LocationUpdateRequest{
		Latitude:  floatPtr(12.9716),
		Longitude: floatPtr(77.5946),
		Accuracy:  12.5,
	})
	require.NoError(t, err)
	require.NotNil(t, location)
	assert.Equal(t, "MG Road, Bengaluru", location.Address)
	assert.Equal(t, 12.5, location.Accuracy)

	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentLocation)
	assert.Equal(t, 12.9716, stored.CurrentLocation.Latitude())
	assert.NotNil(t, stored.LastLocationUpdate)
}

func TestIngestLocationNormalizesCoordinates(t *testing.T) {
	repo, _, service := newTrackingFixture(t, &fakeMapsProvider{})
	a := repo.add(&models.Ambulance{
		VehicleNumber: "KA-01-AB-1234",
		Status:        models.AmbulanceStatusAvailable,
	})

	// Longitude wrapped past the antimeridian comes back into range
	location, err := service.IngestLocation(context.Background(), a.ID, &validators.LocationUpdateRequest{
		Latitude:  floatPtr(12.9716),
		Longitude: floatPtr(437.5946),
	})
	require.NoError(t, err)
	require.NotNil(t, location)
	assert.InDelta(t, 77.5946, location.Longitude(), 1e-9)
	assert.Equal(t, 12.9716, location.Latitude())
}

func TestIngestLocationDegradesOnGeocodeFailure(t *testing.T) {
	repo, _, service := newTrackingFixture(t, &fakeMapsProvider{geocodeErr: errors.New("geocoder down")})
	a := repo.add(&models.Ambulance{
		VehicleNumber: "KA-01-AB-1234",
		Status:        models.AmbulanceStatusAvailable,
	})

	location, err := service.IngestLocation(context.Background(), a.ID, &validators.LocationUpdateRequest{
		Latitude:  floatPtr(12.9716),
		Longitude: floatPtr(77.5946),
	})
	require.NoError(t, err)
	require.NotNil(t, location)
	assert.Equal(t, utils.UnresolvedAddress, location.Address)
}

func TestIngestLocationPublishesForActiveCase(t *testing.T) {
	repo, cacheStore, service := newTrackingFixture(t, &fakeMapsProvider{address: "Hosur Road"})
	caseID := primitive.NewObjectID()
	a := repo.add(&models.Ambulance{
		VehicleNumber: "KA-01-AB-1234",
		Status:        models.AmbulanceStatusEnRoute,
		ActiveCaseID:  &caseID,
	})

	_, err := service.IngestLocation(context.Background(), a.ID, &validators.LocationUpdateRequest{
		Latitude:  floatPtr(12.9500),
		Longitude: floatPtr(77.6000),
	})
	require.NoError(t, err)

	channels := cacheStore.publishedChannels()
	require.Len(t, channels, 1)
	assert.Equal(t, "tracking:case_"+caseID.Hex(), channels[0])
}

func TestIngestLocationIdleAmbulanceNotPublished(t *testing.T) {
	repo, cacheStore, service := newTrackingFixture(t, &fakeMapsProvider{})
	a := repo.add(&models.Ambulance{
		VehicleNumber: "KA-01-AB-1234",
		Status:        models.AmbulanceStatusAvailable,
	})

	_, err := service.IngestLocation(context.Background(), a.ID, &validators.LocationUpdateRequest{
		Latitude:  floatPtr(12.9500),
		Longitude: floatPtr(77.6000),
	})
	require.NoError(t, err)

	assert.Empty(t, cacheStore.publishedChannels())
}

func TestFeedPublishesActiveFleetOnTick(t *testing.T) {
	repo, cacheStore, service := newTrackingFixture(t, &fakeMapsProvider{})

	caseID := primitive.NewObjectID()
	loc := models.NewLocation(12.9500, 77.6000)
	repo.add(&models.Ambulance{
		VehicleNumber:   "KA-01-AB-1234",
		Status:          models.AmbulanceStatusEnRoute,
		ActiveCaseID:    &caseID,
		CurrentLocation: &loc,
		Destination: &models.Destination{
			Name:     "City General",
			Location: models.NewLocation(12.9352, 77.6146),
		},
	})
	// Active status but no position yet: skipped
	otherCase := primitive.NewObjectID()
	repo.add(&models.Ambulance{
		VehicleNumber: "KA-02-CD-5678",
		Status:        models.AmbulanceStatusBusy,
		ActiveCaseID:  &otherCase,
	})

	ticks := make(chan time.Time, 1)
	service.tick = func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.StartFeed(ctx)
		close(done)
	}()

	ticks <- time.Now()

	deadline := time.After(2 * time.Second)
	for len(cacheStore.publishedChannels()) == 0 {
		select {
		case <-deadline:
			t.Fatal("feed never published a tracking sample")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	channels := cacheStore.publishedChannels()
	require.Len(t, channels, 1)
	assert.Equal(t, "tracking:case_"+caseID.Hex(), channels[0])
}

func TestFeedStopsOnContextCancel(t *testing.T) {
	_, _, service := newTrackingFixture(t, &fakeMapsProvider{})

	ticks := make(chan time.Time)
	service.tick = func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.StartFeed(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feed did not stop on context cancellation")
	}
}
