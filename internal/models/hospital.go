package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Hospital struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name" validate:"required"`
	Address       string             `json:"address" bson:"address"`
	Contact       string             `json:"contact" bson:"contact"`
	ContactPhone  string             `json:"contact_phone" bson:"contact_phone"`
	AvailableBeds int                `json:"available_beds" bson:"available_beds"`
	Location      Location           `json:"location" bson:"location" validate:"required"`
	PushTokens    []string           `json:"-" bson:"push_tokens"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (h *Hospital) HasBeds() bool {
	return h.AvailableBeds > 0
}

// Snapshot captures the denormalized hospital info bound onto a case at
// acceptance time, including the pre-decrement bed count.
func (h *Hospital) Snapshot(distanceKM float64) *HospitalSnapshot {
	return &HospitalSnapshot{
		HospitalID:    h.ID,
		Name:          h.Name,
		Address:       h.Address,
		Contact:       h.Contact,
		DistanceKM:    distanceKM,
		AvailableBeds: h.AvailableBeds,
		AcceptedAt:    time.Now(),
	}
}

// RankedHospital is a hospital annotated with its distance from a case
// location, as returned by matching.
type RankedHospital struct {
	Hospital   *Hospital `json:"hospital"`
	DistanceKM float64   `json:"distance_km"`
	ETAMinutes int       `json:"eta_minutes"`
	ETAText    string    `json:"eta_text"`
}
