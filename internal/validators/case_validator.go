package validators

import (
	"rapidaid/internal/utils"
)

type CreateCaseRequest struct {
	PatientName string  `json:"patient_name" validate:"required,min=2,max=100"`
	Age         int     `json:"age" validate:"required,gt=0"`
	Gender      string  `json:"gender" validate:"omitempty,oneof=male female other"`
	Symptoms    string  `json:"symptoms" validate:"omitempty,max=2000"`
	Severity    string  `json:"severity" validate:"required,severity"`
	Latitude    float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"min=-180,max=180"`
	Address     string  `json:"address" validate:"omitempty,max=255"`
}

type AcceptCaseRequest struct {
	HospitalID string `json:"hospital_id" validate:"required,object_id"`
}

type DispatchCaseRequest struct {
	AmbulanceID string `json:"ambulance_id" validate:"required,object_id"`
}

type CancelCaseRequest struct {
	Reason     string `json:"reason" validate:"required,max=255"`
	CanceledBy string `json:"canceled_by" validate:"required,oneof=ambulance hospital admin"`
}

type LocationUpdateRequest struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Accuracy  float64  `json:"accuracy" validate:"omitempty,min=0"`
}

func ValidateCreateCase(req *CreateCaseRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.Age > utils.MaxPatientAge {
		errors = append(errors, ValidationError{
			Field:   "age",
			Message: "Patient age is out of range",
		})
	}

	if !utils.IsValidCoordinates(req.Latitude, req.Longitude) {
		errors = append(errors, ValidationError{
			Field:   "location",
			Message: "Invalid GPS coordinates",
		})
	}

	if req.Latitude == 0 && req.Longitude == 0 {
		errors = append(errors, ValidationError{
			Field:   "location",
			Message: "Case location is required",
		})
	}

	return errors
}

func ValidateAcceptCase(req *AcceptCaseRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateDispatchCase(req *DispatchCaseRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateCancelCase(req *CancelCaseRequest) ValidationErrors {
	return ValidateStruct(req)
}

// ValidateLocationUpdate treats missing coordinates as a rejected sample, not
// a malformed request; the tracking feed drops those silently.
func ValidateLocationUpdate(req *LocationUpdateRequest) ValidationErrors {
	return ValidateStruct(req)
}
