package validators

type RegisterAccountRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,phone_number"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=ambulance hospital police admin"`

	// Exactly one of these should match Role; cross-checked below.
	Ambulance *RegisterAmbulanceRequest `json:"ambulance,omitempty"`
	Hospital  *RegisterHospitalRequest  `json:"hospital,omitempty"`
	Police    *PoliceDetailsRequest     `json:"police,omitempty"`
}

type PoliceDetailsRequest struct {
	StationName  string `json:"station_name" validate:"required,min=2,max=150"`
	BadgeNumber  string `json:"badge_number" validate:"omitempty,max=30"`
	Jurisdiction string `json:"jurisdiction" validate:"omitempty,max=150"`
}

type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,phone_number"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func ValidateRegisterAccount(req *RegisterAccountRequest) ValidationErrors {
	errors := ValidateStruct(req)

	switch req.Role {
	case "ambulance":
		if req.Ambulance == nil {
			errors = append(errors, ValidationError{Field: "ambulance", Message: "Ambulance details are required for ambulance accounts"})
		} else {
			errors = append(errors, ValidateStruct(req.Ambulance)...)
		}
	case "hospital":
		if req.Hospital == nil {
			errors = append(errors, ValidationError{Field: "hospital", Message: "Hospital details are required for hospital accounts"})
		} else {
			errors = append(errors, ValidateStruct(req.Hospital)...)
		}
	case "police":
		if req.Police == nil {
			errors = append(errors, ValidationError{Field: "police", Message: "Police details are required for police accounts"})
		} else {
			errors = append(errors, ValidateStruct(req.Police)...)
		}
	}

	return errors
}

func ValidateLogin(req *LoginRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateRefreshToken(req *RefreshTokenRequest) ValidationErrors {
	return ValidateStruct(req)
}
