package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountRole string

const (
	RoleAmbulance AccountRole = "ambulance"
	RoleHospital  AccountRole = "hospital"
	RolePolice    AccountRole = "police"
	RoleAdmin     AccountRole = "admin"
)

func (r AccountRole) Valid() bool {
	switch r {
	case RoleAmbulance, RoleHospital, RolePolice, RoleAdmin:
		return true
	}
	return false
}

// Account is the common envelope for every signed-in party. Exactly one of
// the role detail structs is set, matching Role, so handlers read typed
// fields instead of digging through a free-form details map.
type Account struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Role         AccountRole        `json:"role" bson:"role" validate:"required"`
	Name         string             `json:"name" bson:"name" validate:"required"`
	Phone        string             `json:"phone" bson:"phone"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash"`

	// EntityID links the account to the fleet or hospital document it operates.
	EntityID *primitive.ObjectID `json:"entity_id,omitempty" bson:"entity_id,omitempty"`

	Ambulance *AmbulanceDetails `json:"ambulance,omitempty" bson:"ambulance,omitempty"`
	Hospital  *HospitalDetails  `json:"hospital,omitempty" bson:"hospital,omitempty"`
	Police    *PoliceDetails    `json:"police,omitempty" bson:"police,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at" bson:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

type AmbulanceDetails struct {
	DriverName    string `json:"driver_name" bson:"driver_name"`
	VehicleNumber string `json:"vehicle_number" bson:"vehicle_number"`
	VehicleType   string `json:"vehicle_type" bson:"vehicle_type"`
	Capacity      int    `json:"capacity" bson:"capacity"`
}

type HospitalDetails struct {
	HospitalName  string `json:"hospital_name" bson:"hospital_name"`
	Address       string `json:"address" bson:"address"`
	ContactNumber string `json:"contact_number" bson:"contact_number"`
	TotalBeds     int    `json:"total_beds" bson:"total_beds"`
}

type PoliceDetails struct {
	StationName string `json:"station_name" bson:"station_name"`
	BadgeNumber string `json:"badge_number" bson:"badge_number"`
	Jurisdiction string `json:"jurisdiction" bson:"jurisdiction"`
}
