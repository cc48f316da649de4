package utils

import "time"

// Application Constants
const (
	AppName    = "RapidAid"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour

	// Dispatch Constants
	DefaultNearbyRadiusKM  = 5.0  // kilometers
	MaxSearchRadiusKM      = 50.0 // kilometers
	AssumedSpeedKmh        = 40.0 // intra-city fallback speed for ETA
	LocationUpdateInterval = 10 * time.Second
	CaseBroadcastTopic     = "hospitals"

	// Store retry policy for transient failures
	StoreRetryAttempts  = 3
	StoreRetryBaseDelay = 200 * time.Millisecond

	// Patient Constants
	MinPatientAge = 1
	MaxPatientAge = 130

	// Live tracking
	UnresolvedAddress = "Address unavailable"
	NoTrafficDelay    = "No delay"
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrValidationFailed   = "validation failed"
	ErrCaseNotFound       = "case not found"
	ErrAmbulanceNotFound  = "ambulance not found"
	ErrHospitalNotFound   = "hospital not found"
	ErrNoAmbulanceNearby  = "no ambulances available nearby"
	ErrAlreadyAccepted    = "case already accepted elsewhere"
)

// Cache Keys
const (
	CacheCasePrefix      = "case:"
	CacheAmbulancePrefix = "ambulance:"
	CacheHospitalPrefix  = "hospital:"
	CacheFleetGeoKey     = "fleet:locations"

	CacheCaseTTL      = 30 * time.Minute
	CacheAmbulanceTTL = 5 * time.Minute
	CacheHospitalTTL  = 15 * time.Minute
)

// Event Types
const (
	EventCaseCreated    = "case_created"
	EventCaseAccepted   = "case_accepted"
	EventCaseDispatched = "case_dispatched"
	EventCaseEnRoute    = "case_en_route"
	EventCaseArrived    = "case_arrived"
	EventCaseCompleted  = "case_completed"
	EventCaseCanceled   = "case_canceled"
	EventLocationUpdate = "location_update"
	EventFleetUpdate    = "fleet_update"
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)
