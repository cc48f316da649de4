package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseTransitions(t *testing.T) {
	tests := []struct {
		from    CaseStatus
		to      CaseStatus
		allowed bool
	}{
		{CaseStatusPending, CaseStatusAccepted, true},
		{CaseStatusPending, CaseStatusEnRoute, true}, // self-dispatch shortcut
		{CaseStatusPending, CaseStatusCanceled, true},
		{CaseStatusPending, CaseStatusArrived, false},
		{CaseStatusPending, CaseStatusCompleted, false},

		{CaseStatusAccepted, CaseStatusEnRoute, true},
		{CaseStatusAccepted, CaseStatusCanceled, true},
		{CaseStatusAccepted, CaseStatusPending, false},
		{CaseStatusAccepted, CaseStatusArrived, false},

		{CaseStatusEnRoute, CaseStatusArrived, true},
		{CaseStatusEnRoute, CaseStatusCanceled, true},
		{CaseStatusEnRoute, CaseStatusCompleted, false},
		{CaseStatusEnRoute, CaseStatusAccepted, false},

		{CaseStatusArrived, CaseStatusCompleted, true},
		{CaseStatusArrived, CaseStatusCanceled, false},
		{CaseStatusArrived, CaseStatusEnRoute, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	all := []CaseStatus{
		CaseStatusPending, CaseStatusAccepted, CaseStatusEnRoute,
		CaseStatusArrived, CaseStatusCompleted, CaseStatusCanceled,
	}

	for _, terminal := range []CaseStatus{CaseStatusCompleted, CaseStatusCanceled} {
		assert.True(t, terminal.IsTerminal())
		for _, next := range all {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s must be rejected", terminal, next)
		}
	}

	for _, active := range []CaseStatus{CaseStatusPending, CaseStatusAccepted, CaseStatusEnRoute, CaseStatusArrived} {
		assert.False(t, active.IsTerminal())
	}
}

func TestCaseStatusValid(t *testing.T) {
	assert.True(t, CaseStatusPending.Valid())
	assert.True(t, CaseStatusCanceled.Valid())
	assert.False(t, CaseStatus("resurrected").Valid())
	assert.False(t, CaseStatus("").Valid())
}

func TestSeverityValid(t *testing.T) {
	assert.True(t, SeverityCritical.Valid())
	assert.True(t, SeveritySerious.Valid())
	assert.True(t, SeverityStable.Valid())
	assert.False(t, CaseSeverity("mild").Valid())
}

func TestAmbulanceStatusActive(t *testing.T) {
	assert.True(t, AmbulanceStatusBusy.Active())
	assert.True(t, AmbulanceStatusEnRoute.Active())
	assert.False(t, AmbulanceStatusAvailable.Active())
	assert.False(t, AmbulanceStatusIdle.Active())
	assert.False(t, AmbulanceStatusOffline.Active())

	assert.True(t, AmbulanceStatusAvailable.Valid())
	assert.False(t, AmbulanceStatus("warping").Valid())
}

func TestLocationAccessors(t *testing.T) {
	loc := NewLocation(12.9716, 77.5946)

	assert.Equal(t, "Point", loc.Type)
	assert.Equal(t, 12.9716, loc.Latitude())
	assert.Equal(t, 77.5946, loc.Longitude())
	assert.True(t, loc.HasCoordinates())

	var empty Location
	assert.False(t, empty.HasCoordinates())
	assert.Equal(t, 0.0, empty.Latitude())
	assert.Equal(t, 0.0, empty.Longitude())
}

func TestSnapshotsCaptureCurrentState(t *testing.T) {
	h := &Hospital{Name: "City General", AvailableBeds: 5}
	hs := h.Snapshot(3.2)
	assert.Equal(t, "City General", hs.Name)
	assert.Equal(t, 5, hs.AvailableBeds)
	assert.Equal(t, 3.2, hs.DistanceKM)
	assert.False(t, hs.AcceptedAt.IsZero())

	a := &Ambulance{DriverName: "Suresh", VehicleNumber: "KA-01-AB-1234"}
	as := a.Snapshot(7, "7 min")
	assert.Equal(t, "KA-01-AB-1234", as.VehicleNumber)
	assert.Equal(t, 7, as.ETAMinutes)
	assert.Equal(t, "7 min", as.ETAText)
}
