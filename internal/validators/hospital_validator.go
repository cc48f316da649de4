package validators

type RegisterHospitalRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=150"`
	Address       string  `json:"address" validate:"omitempty,max=255"`
	Contact       string  `json:"contact" validate:"omitempty,max=100"`
	ContactPhone  string  `json:"contact_phone" validate:"omitempty,phone_number"`
	AvailableBeds int     `json:"available_beds" validate:"min=0"`
	Latitude      float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude     float64 `json:"longitude" validate:"min=-180,max=180"`
}

type UpdateBedsRequest struct {
	AvailableBeds *int `json:"available_beds" validate:"required,min=0"`
}

type PushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

func ValidateRegisterHospital(req *RegisterHospitalRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateUpdateBeds(req *UpdateBedsRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidatePushToken(req *PushTokenRequest) ValidationErrors {
	return ValidateStruct(req)
}
