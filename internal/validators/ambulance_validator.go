package validators

type RegisterAmbulanceRequest struct {
	DriverName    string `json:"driver_name" validate:"required,min=2,max=100"`
	VehicleNumber string `json:"vehicle_number" validate:"required,vehicle_number"`
	VehicleType   string `json:"vehicle_type" validate:"omitempty,oneof=basic advanced mobile_icu neonatal"`
	Capacity      int    `json:"capacity" validate:"omitempty,min=1,max=10"`
	ContactPhone  string `json:"contact_phone" validate:"omitempty,phone_number"`
}

// AmbulanceStatusRequest covers manual status changes only. busy and en_route
// are reachable solely through case transitions.
type AmbulanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available idle offline"`
}

type NearbyQueryRequest struct {
	Latitude  float64 `json:"latitude" form:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" form:"longitude" validate:"min=-180,max=180"`
	RadiusKM  float64 `json:"radius_km" form:"radius_km" validate:"omitempty,min=0.1,max=50"`
}

func ValidateRegisterAmbulance(req *RegisterAmbulanceRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateAmbulanceStatus(req *AmbulanceStatusRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateNearbyQuery(req *NearbyQueryRequest) ValidationErrors {
	return ValidateStruct(req)
}
