package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AmbulanceStatus string

const (
	AmbulanceStatusAvailable AmbulanceStatus = "available"
	AmbulanceStatusBusy      AmbulanceStatus = "busy"
	AmbulanceStatusEnRoute   AmbulanceStatus = "en_route"
	AmbulanceStatusIdle      AmbulanceStatus = "idle"
	AmbulanceStatusOffline   AmbulanceStatus = "offline"
)

func (s AmbulanceStatus) Valid() bool {
	switch s {
	case AmbulanceStatusAvailable, AmbulanceStatusBusy, AmbulanceStatusEnRoute,
		AmbulanceStatusIdle, AmbulanceStatusOffline:
		return true
	}
	return false
}

// Active reports whether the status implies a bound case. The invariant is
// that ActiveCaseID is non-nil exactly when the status is busy or en_route.
func (s AmbulanceStatus) Active() bool {
	return s == AmbulanceStatusBusy || s == AmbulanceStatusEnRoute
}

type Destination struct {
	HospitalID *primitive.ObjectID `json:"hospital_id,omitempty" bson:"hospital_id,omitempty"`
	Name       string              `json:"name" bson:"name"`
	Location   Location            `json:"location" bson:"location"`
	ETAMinutes int                 `json:"eta_minutes" bson:"eta_minutes"`
	ETAText    string              `json:"eta_text" bson:"eta_text"`
}

type Ambulance struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverName    string             `json:"driver_name" bson:"driver_name" validate:"required"`
	VehicleNumber string             `json:"vehicle_number" bson:"vehicle_number" validate:"required"`
	VehicleType   string             `json:"vehicle_type" bson:"vehicle_type"`
	Capacity      int                `json:"capacity" bson:"capacity" default:"1"`

	Status             AmbulanceStatus     `json:"status" bson:"status" default:"offline"`
	CurrentLocation    *Location           `json:"current_location" bson:"current_location"`
	LastLocationUpdate *time.Time          `json:"last_location_update" bson:"last_location_update"`
	ActiveCaseID       *primitive.ObjectID `json:"active_case_id" bson:"active_case_id"`
	Destination        *Destination        `json:"destination" bson:"destination"`
	PatientSeverity    *CaseSeverity       `json:"patient_severity" bson:"patient_severity"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (a *Ambulance) IsAvailable() bool {
	return a.Status == AmbulanceStatusAvailable && a.ActiveCaseID == nil
}

// Snapshot captures the denormalized ambulance info bound onto a case.
func (a *Ambulance) Snapshot(etaMinutes int, etaText string) *AmbulanceSnapshot {
	return &AmbulanceSnapshot{
		AmbulanceID:   a.ID,
		DriverName:    a.DriverName,
		VehicleNumber: a.VehicleNumber,
		ETAMinutes:    etaMinutes,
		ETAText:       etaText,
		AssignedAt:    time.Now(),
	}
}
