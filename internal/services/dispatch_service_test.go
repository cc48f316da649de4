package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"rapidaid/internal/models"
	"rapidaid/internal/utils"
	"rapidaid/internal/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type dispatchFixture struct {
	caseRepo      *fakeCaseRepo
	ambulanceRepo *fakeAmbulanceRepo
	hospitalRepo  *fakeHospitalRepo
	mapsProvider  *fakeMapsProvider
	notifier      *fakeNotifier
	service       DispatchService
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()

	log := testLogger(t)
	caseRepo := newFakeCaseRepo()
	ambulanceRepo := newFakeAmbulanceRepo()
	hospitalRepo := newFakeHospitalRepo()
	mapsProvider := &fakeMapsProvider{directionsErr: errors.New("provider down")}
	notifier := &fakeNotifier{}

	matching := NewMatchingService(hospitalRepo, mapsProvider, log)
	service := NewDispatchService(caseRepo, ambulanceRepo, hospitalRepo, matching, notifier, log)

	return &dispatchFixture{
		caseRepo:      caseRepo,
		ambulanceRepo: ambulanceRepo,
		hospitalRepo:  hospitalRepo,
		mapsProvider:  mapsProvider,
		notifier:      notifier,
		service:       service,
	}
}

func (f *dispatchFixture) createCase(t *testing.T) *models.Case {
	t.Helper()
	c, err := f.service.CreateCase(context.Background(), primitive.NewObjectID(), &validators.CreateCaseRequest{
		PatientName: "Ravi Kumar",
		Age:         54,
		Severity:    string(models.SeverityCritical),
		Latitude:    12.9716,
		Longitude:   77.5946,
		Address:     "MG Road, Bengaluru",
	})
	require.NoError(t, err)
	return c
}

func (f *dispatchFixture) addHospital(beds int) *models.Hospital {
	return f.hospitalRepo.add(&models.Hospital{
		Name:          "City General",
		Address:       "Koramangala",
		AvailableBeds: beds,
		Location:      models.NewLocation(12.9352, 77.6146),
	})
}

func (f *dispatchFixture) addAmbulance() *models.Ambulance {
	loc := models.NewLocation(12.9500, 77.6000)
	return f.ambulanceRepo.add(&models.Ambulance{
		DriverName:      "Suresh",
		VehicleNumber:   "KA-01-AB-1234",
		Status:          models.AmbulanceStatusAvailable,
		CurrentLocation: &loc,
	})
}

func TestCreateCaseStartsPending(t *testing.T) {
	f := newDispatchFixture(t)

	c := f.createCase(t)

	assert.Equal(t, models.CaseStatusPending, c.Status)
	assert.Nil(t, c.HospitalID)
	assert.Nil(t, c.AmbulanceID)
	assert.NotEmpty(t, c.CaseNumber)
	assert.Contains(t, f.notifier.Events(), utils.EventCaseCreated)
}

func TestAcceptCaseBindsHospitalAndDecrementsBeds(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	hospital := f.addHospital(5)

	accepted, err := f.service.AcceptCase(context.Background(), c.ID, hospital.ID)
	require.NoError(t, err)

	assert.Equal(t, models.CaseStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.HospitalID)
	assert.Equal(t, hospital.ID, *accepted.HospitalID)
	require.NotNil(t, accepted.Hospital)
	assert.Equal(t, "City General", accepted.Hospital.Name)
	// The snapshot keeps the pre-decrement count
	assert.Equal(t, 5, accepted.Hospital.AvailableBeds)
	assert.Greater(t, accepted.Hospital.DistanceKM, 0.0)
	require.NotNil(t, accepted.AcceptedAt)

	stored, err := f.hospitalRepo.GetByID(context.Background(), hospital.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.AvailableBeds)
}

func TestAcceptCaseFirstHospitalWins(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	first := f.addHospital(5)
	second := f.hospitalRepo.add(&models.Hospital{
		Name:          "Lakeside Care",
		AvailableBeds: 3,
		Location:      models.NewLocation(12.9800, 77.6100),
	})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, hospitalID := range []primitive.ObjectID{first.ID, second.ID} {
		wg.Add(1)
		go func(slot int, id primitive.ObjectID) {
			defer wg.Done()
			_, results[slot] = f.service.AcceptCase(context.Background(), c.ID, id)
		}(i, hospitalID)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, models.ErrConflictAlreadyBound)
		}
	}
	assert.Equal(t, 1, winners)

	final, err := f.service.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusAccepted, final.Status)
	require.NotNil(t, final.HospitalID)
}

func TestAcceptCaseNoBeds(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	hospital := f.addHospital(0)

	_, err := f.service.AcceptCase(context.Background(), c.ID, hospital.ID)
	assert.ErrorIs(t, err, models.ErrNoBedsAvailable)

	unchanged, err := f.service.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusPending, unchanged.Status)
}

func TestAcceptCaseRetriesTransientFailures(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	hospital := f.addHospital(2)

	f.caseRepo.failNext("accept", 2)

	accepted, err := f.service.AcceptCase(context.Background(), c.ID, hospital.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusAccepted, accepted.Status)
}

func TestAcceptCaseSurvivesBedDecrementFailure(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	hospital := f.addHospital(5)

	// Exhaust every retry of the decrement; the acceptance must still hold.
	f.hospitalRepo.decrementFailures = utils.StoreRetryAttempts

	accepted, err := f.service.AcceptCase(context.Background(), c.ID, hospital.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusAccepted, accepted.Status)

	stored, err := f.hospitalRepo.GetByID(context.Background(), hospital.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.AvailableBeds)
}

func TestDispatchAmbulanceBindsBothSides(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	hospital := f.addHospital(3)
	ambulance := f.addAmbulance()

	_, err := f.service.AcceptCase(context.Background(), c.ID, hospital.ID)
	require.NoError(t, err)

	dispatched, err := f.service.DispatchAmbulance(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)

	assert.Equal(t, models.CaseStatusEnRoute, dispatched.Status)
	require.NotNil(t, dispatched.AmbulanceID)
	assert.Equal(t, ambulance.ID, *dispatched.AmbulanceID)
	require.NotNil(t, dispatched.Ambulance)
	assert.Equal(t, "KA-01-AB-1234", dispatched.Ambulance.VehicleNumber)
	assert.Greater(t, dispatched.Ambulance.ETAMinutes, 0)

	bound, err := f.ambulanceRepo.GetByID(context.Background(), ambulance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceStatusEnRoute, bound.Status)
	require.NotNil(t, bound.ActiveCaseID)
	assert.Equal(t, c.ID, *bound.ActiveCaseID)
	require.NotNil(t, bound.Destination)
	assert.Equal(t, "City General", bound.Destination.Name)
}

func TestDispatchCarriesETAOntoDestination(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	ambulance := f.addAmbulance()

	dispatched, err := f.service.DispatchAmbulance(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)
	require.NotNil(t, dispatched.Ambulance)

	bound, err := f.ambulanceRepo.GetByID(context.Background(), ambulance.ID)
	require.NoError(t, err)
	require.NotNil(t, bound.Destination)

	assert.Equal(t, dispatched.Ambulance.ETAMinutes, bound.Destination.ETAMinutes)
	assert.Equal(t, dispatched.Ambulance.ETAText, bound.Destination.ETAText)
	assert.Greater(t, bound.Destination.ETAMinutes, 0)
}

func TestSelfDispatchSkipsAcceptance(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	ambulance := f.addAmbulance()

	dispatched, err := f.service.DispatchAmbulance(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)

	assert.Equal(t, models.CaseStatusEnRoute, dispatched.Status)
	assert.Nil(t, dispatched.HospitalID)

	bound, err := f.ambulanceRepo.GetByID(context.Background(), ambulance.ID)
	require.NoError(t, err)
	require.NotNil(t, bound.Destination)
	assert.Equal(t, "Case site", bound.Destination.Name)
}

func TestDispatchBusyAmbulanceRejected(t *testing.T) {
	f := newDispatchFixture(t)
	first := f.createCase(t)
	second := f.createCase(t)
	ambulance := f.addAmbulance()

	_, err := f.service.DispatchAmbulance(context.Background(), first.ID, ambulance.ID)
	require.NoError(t, err)

	_, err = f.service.DispatchAmbulance(context.Background(), second.ID, ambulance.ID)
	assert.ErrorIs(t, err, models.ErrAmbulanceBusy)

	// The first binding is untouched
	bound, err := f.ambulanceRepo.GetByID(context.Background(), ambulance.ID)
	require.NoError(t, err)
	require.NotNil(t, bound.ActiveCaseID)
	assert.Equal(t, first.ID, *bound.ActiveCaseID)
}

func TestDispatchConflictReleasesReservedAmbulance(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	winner := f.addAmbulance()
	loser := f.ambulanceRepo.add(&models.Ambulance{
		DriverName:    "Manoj",
		VehicleNumber: "KA-02-CD-5678",
		Status:        models.AmbulanceStatusAvailable,
	})

	_, err := f.service.DispatchAmbulance(context.Background(), c.ID, winner.ID)
	require.NoError(t, err)

	_, err = f.service.DispatchAmbulance(context.Background(), c.ID, loser.ID)
	assert.ErrorIs(t, err, models.ErrConflictAlreadyBound)

	// The losing ambulance's reservation was rolled back
	released, err := f.ambulanceRepo.GetByID(context.Background(), loser.ID)
	require.NoError(t, err)
	assert.Nil(t, released.ActiveCaseID)
	assert.Equal(t, models.AmbulanceStatusAvailable, released.Status)
}

func TestArrivalAndCompletionFlow(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	ambulance := f.addAmbulance()

	_, err := f.service.DispatchAmbulance(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)

	arrived, err := f.service.MarkArrived(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusArrived, arrived.Status)
	require.NotNil(t, arrived.ArrivedAt)

	onScene, err := f.ambulanceRepo.GetByID(context.Background(), ambulance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceStatusBusy, onScene.Status)
	assert.NotNil(t, onScene.ActiveCaseID)

	completed, err := f.service.CompleteCase(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	freed, err := f.ambulanceRepo.GetByID(context.Background(), ambulance.ID)
	require.NoError(t, err)
	assert.Nil(t, freed.ActiveCaseID)
	assert.Equal(t, models.AmbulanceStatusAvailable, freed.Status)
}

func TestMarkArrivedByUnboundAmbulanceRejected(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	bound := f.addAmbulance()
	other := f.ambulanceRepo.add(&models.Ambulance{
		DriverName:    "Prakash",
		VehicleNumber: "KA-03-EF-9012",
		Status:        models.AmbulanceStatusAvailable,
	})

	_, err := f.service.DispatchAmbulance(context.Background(), c.ID, bound.ID)
	require.NoError(t, err)

	_, err = f.service.MarkArrived(context.Background(), c.ID, other.ID)
	assert.ErrorIs(t, err, models.ErrConflictAlreadyBound)
}

func TestMarkArrivedRequiresEnRoute(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	ambulance := f.addAmbulance()

	_, err := f.service.DispatchAmbulance(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)

	_, err = f.service.MarkArrived(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)

	// A second arrival finds the case already in arrived
	_, err = f.service.MarkArrived(context.Background(), c.ID, ambulance.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestCancelReleasesBoundAmbulance(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	ambulance := f.addAmbulance()

	_, err := f.service.DispatchAmbulance(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)

	canceled, err := f.service.CancelCase(context.Background(), c.ID, "patient declined transport", "ambulance")
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusCanceled, canceled.Status)
	assert.Equal(t, "patient declined transport", canceled.CancellationReason)
	require.NotNil(t, canceled.CanceledAt)

	freed, err := f.ambulanceRepo.GetByID(context.Background(), ambulance.ID)
	require.NoError(t, err)
	assert.Nil(t, freed.ActiveCaseID)
	assert.Equal(t, models.AmbulanceStatusAvailable, freed.Status)
}

func TestCancelTerminalCaseRejected(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	ambulance := f.addAmbulance()

	_, err := f.service.DispatchAmbulance(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)
	_, err = f.service.MarkArrived(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)
	_, err = f.service.CompleteCase(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)

	_, err = f.service.CancelCase(context.Background(), c.ID, "too late", "admin")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	unchanged, err := f.service.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusCompleted, unchanged.Status)
}

func TestGetRoutesRequiresBoundAmbulanceWithPosition(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)

	_, err := f.service.GetRoutes(context.Background(), c.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	ambulance := f.ambulanceRepo.add(&models.Ambulance{
		DriverName:    "Suresh",
		VehicleNumber: "KA-01-AB-1234",
		Status:        models.AmbulanceStatusAvailable,
	})
	_, err = f.service.DispatchAmbulance(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)

	_, err = f.service.GetRoutes(context.Background(), c.ID)
	assert.ErrorIs(t, err, models.ErrGeoLookupFailed)
}

func TestGetRoutesFallsBackWhenProviderFails(t *testing.T) {
	f := newDispatchFixture(t)
	c := f.createCase(t)
	ambulance := f.addAmbulance()

	_, err := f.service.DispatchAmbulance(context.Background(), c.ID, ambulance.ID)
	require.NoError(t, err)

	routes, err := f.service.GetRoutes(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.True(t, routes[0].Fallback)
	assert.True(t, routes[0].Recommended)
	assert.Equal(t, utils.NoTrafficDelay, routes[0].TrafficDelayText)
}

func TestGetPendingCasesSortedByDistance(t *testing.T) {
	f := newDispatchFixture(t)

	near := f.createCase(t)
	far, err := f.service.CreateCase(context.Background(), primitive.NewObjectID(), &validators.CreateCaseRequest{
		PatientName: "Lakshmi Devi",
		Age:         67,
		Severity:    string(models.SeverityStable),
		Latitude:    13.1986,
		Longitude:   77.7066,
	})
	require.NoError(t, err)

	views, err := f.service.GetPendingCases(context.Background(), models.NewLocation(12.9716, 77.5946))
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, near.ID, views[0].Case.ID)
	assert.Equal(t, far.ID, views[1].Case.ID)
	assert.Less(t, views[0].DistanceKM, views[1].DistanceKM)
}
