package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CaseStatus string
type CaseSeverity string

const (
	CaseStatusPending   CaseStatus = "pending"
	CaseStatusAccepted  CaseStatus = "accepted"
	CaseStatusEnRoute   CaseStatus = "en_route"
	CaseStatusArrived   CaseStatus = "arrived"
	CaseStatusCompleted CaseStatus = "completed"
	CaseStatusCanceled  CaseStatus = "canceled"

	SeverityCritical CaseSeverity = "critical"
	SeveritySerious  CaseSeverity = "serious"
	SeverityStable   CaseSeverity = "stable"
)

// caseTransitions is the complete transition table. pending -> en_route is the
// self-dispatch shortcut; everything not listed here is rejected.
var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusPending:   {CaseStatusAccepted, CaseStatusEnRoute, CaseStatusCanceled},
	CaseStatusAccepted:  {CaseStatusEnRoute, CaseStatusCanceled},
	CaseStatusEnRoute:   {CaseStatusArrived, CaseStatusCanceled},
	CaseStatusArrived:   {CaseStatusCompleted},
	CaseStatusCompleted: {},
	CaseStatusCanceled:  {},
}

func (s CaseStatus) Valid() bool {
	_, ok := caseTransitions[s]
	return ok
}

func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusCompleted || s == CaseStatusCanceled
}

func (s CaseStatus) CanTransitionTo(next CaseStatus) bool {
	for _, allowed := range caseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s CaseSeverity) Valid() bool {
	switch s {
	case SeverityCritical, SeveritySerious, SeverityStable:
		return true
	}
	return false
}

type Patient struct {
	Name     string `json:"name" bson:"name" validate:"required"`
	Age      int    `json:"age" bson:"age" validate:"required,gt=0"`
	Gender   string `json:"gender" bson:"gender"`
	Symptoms string `json:"symptoms" bson:"symptoms"`
}

// AmbulanceSnapshot is the point-in-time copy of ambulance info taken when the
// ambulance is bound to a case. It is created once at the transition boundary
// and never mutated afterwards.
type AmbulanceSnapshot struct {
	AmbulanceID   primitive.ObjectID `json:"ambulance_id" bson:"ambulance_id"`
	DriverName    string             `json:"driver_name" bson:"driver_name"`
	VehicleNumber string             `json:"vehicle_number" bson:"vehicle_number"`
	ETAMinutes    int                `json:"eta_minutes" bson:"eta_minutes"`
	ETAText       string             `json:"eta_text" bson:"eta_text"`
	AssignedAt    time.Time          `json:"assigned_at" bson:"assigned_at"`
}

// HospitalSnapshot is the point-in-time copy of hospital info taken at
// acceptance, including the bed count as it was when the hospital committed.
type HospitalSnapshot struct {
	HospitalID    primitive.ObjectID `json:"hospital_id" bson:"hospital_id"`
	Name          string             `json:"name" bson:"name"`
	Address       string             `json:"address" bson:"address"`
	Contact       string             `json:"contact" bson:"contact"`
	DistanceKM    float64            `json:"distance_km" bson:"distance_km"`
	AvailableBeds int                `json:"available_beds" bson:"available_beds"`
	AcceptedAt    time.Time          `json:"accepted_at" bson:"accepted_at"`
}

type Case struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CaseNumber string             `json:"case_number" bson:"case_number"`
	Patient    Patient            `json:"patient" bson:"patient" validate:"required"`
	Severity   CaseSeverity       `json:"severity" bson:"severity" validate:"required"`
	Location   Location           `json:"location" bson:"location" validate:"required"`
	Status     CaseStatus         `json:"status" bson:"status" default:"pending"`

	// CreatedBy is the ambulance account that raised the case; it is kept for
	// display and is distinct from AmbulanceID, which is only set once an
	// ambulance is actually bound to the case.
	CreatedBy   primitive.ObjectID  `json:"created_by" bson:"created_by"`
	AmbulanceID *primitive.ObjectID `json:"ambulance_id" bson:"ambulance_id"`
	HospitalID  *primitive.ObjectID `json:"hospital_id" bson:"hospital_id"`
	Ambulance   *AmbulanceSnapshot  `json:"ambulance" bson:"ambulance"`
	Hospital    *HospitalSnapshot   `json:"hospital" bson:"hospital"`

	CancellationReason string `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CanceledBy         string `json:"canceled_by,omitempty" bson:"canceled_by,omitempty"`

	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
	AcceptedAt  *time.Time `json:"accepted_at" bson:"accepted_at"`
	EnRouteAt   *time.Time `json:"en_route_at" bson:"en_route_at"`
	ArrivedAt   *time.Time `json:"arrived_at" bson:"arrived_at"`
	CompletedAt *time.Time `json:"completed_at" bson:"completed_at"`
	CanceledAt  *time.Time `json:"canceled_at" bson:"canceled_at"`
}

func (c *Case) IsTerminal() bool {
	return c.Status.IsTerminal()
}
