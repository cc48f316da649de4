package models

import "errors"

// Domain errors. All of these are recoverable at the call site; only
// ErrStoreUnavailable is eligible for automatic retry.
var (
	// ErrInvalidTransition is returned when a case transition is attempted
	// from a state that does not permit it. Never retried.
	ErrInvalidTransition = errors.New("invalid case transition")

	// ErrConflictAlreadyBound is returned when a concurrent actor already
	// bound the case's hospital or ambulance. The caller must re-read the
	// case and present the actual state instead of retrying blindly.
	ErrConflictAlreadyBound = errors.New("case already bound by another party")

	// ErrAmbulanceBusy is returned when binding a case to an ambulance that
	// already carries an active one.
	ErrAmbulanceBusy = errors.New("ambulance already has an active case")

	// ErrGeoLookupFailed marks a geocoding or routing provider failure.
	// Callers degrade to best-effort data rather than failing the operation.
	ErrGeoLookupFailed = errors.New("geo lookup failed")

	// ErrStoreUnavailable marks a transient store failure, eligible for
	// bounded retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrNoBedsAvailable   = errors.New("hospital has no available beds")
	ErrCaseNotFound      = errors.New("case not found")
	ErrAmbulanceNotFound = errors.New("ambulance not found")
	ErrHospitalNotFound  = errors.New("hospital not found")
)

// IsDomainErr reports whether err is one of the domain sentinels above.
// Anything else coming out of a repository is treated as transient.
func IsDomainErr(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidTransition,
		ErrConflictAlreadyBound,
		ErrAmbulanceBusy,
		ErrGeoLookupFailed,
		ErrNoBedsAvailable,
		ErrCaseNotFound,
		ErrAmbulanceNotFound,
		ErrHospitalNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
