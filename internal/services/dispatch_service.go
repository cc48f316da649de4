package services

import (
	"context"
	"time"

	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/utils"
	"rapidaid/internal/validators"
	"rapidaid/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DispatchService interface {
	// Case lifecycle
	CreateCase(ctx context.Context, createdBy primitive.ObjectID, req *validators.CreateCaseRequest) (*models.Case, error)
	AcceptCase(ctx context.Context, caseID, hospitalID primitive.ObjectID) (*models.Case, error)
	DispatchAmbulance(ctx context.Context, caseID, ambulanceID primitive.ObjectID) (*models.Case, error)
	MarkArrived(ctx context.Context, caseID, ambulanceID primitive.ObjectID) (*models.Case, error)
	CompleteCase(ctx context.Context, caseID, ambulanceID primitive.ObjectID) (*models.Case, error)
	CancelCase(ctx context.Context, caseID primitive.ObjectID, reason, canceledBy string) (*models.Case, error)

	// Queries
	GetCase(ctx context.Context, caseID primitive.ObjectID) (*models.Case, error)
	GetPendingCases(ctx context.Context, viewer models.Location) ([]*PendingCaseView, error)
	GetHospitalCases(ctx context.Context, hospitalID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Case, int64, error)

	// GetRoutes returns traffic-ranked route options for the case's bound
	// ambulance: toward the patient while en route, toward the hospital after
	// arrival.
	GetRoutes(ctx context.Context, caseID primitive.ObjectID) ([]*models.RouteOption, error)
}

type dispatchService struct {
	caseRepo      interfaces.CaseRepository
	ambulanceRepo interfaces.AmbulanceRepository
	hospitalRepo  interfaces.HospitalRepository
	matching      MatchingService
	notifications NotificationService
	logger        *logger.Logger
}

func NewDispatchService(
	caseRepo interfaces.CaseRepository,
	ambulanceRepo interfaces.AmbulanceRepository,
	hospitalRepo interfaces.HospitalRepository,
	matching MatchingService,
	notifications NotificationService,
	logger *logger.Logger,
) DispatchService {
	return &dispatchService{
		caseRepo:      caseRepo,
		ambulanceRepo: ambulanceRepo,
		hospitalRepo:  hospitalRepo,
		matching:      matching,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *dispatchService) CreateCase(ctx context.Context, createdBy primitive.ObjectID, req *validators.CreateCaseRequest) (*models.Case, error) {
	location := models.NewLocation(req.Latitude, req.Longitude)
	location.Address = req.Address

	c := &models.Case{
		CaseNumber: utils.GenerateCaseNumber(),
		Patient: models.Patient{
			Name:     req.PatientName,
			Age:      req.Age,
			Gender:   req.Gender,
			Symptoms: req.Symptoms,
		},
		Severity:  models.CaseSeverity(req.Severity),
		Location:  location,
		CreatedBy: createdBy,
	}

	err := s.withRetry(ctx, "create case", func() error {
		return s.caseRepo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.BroadcastNewCase(ctx, c)

	return c, nil
}

func (s *dispatchService) AcceptCase(ctx context.Context, caseID, hospitalID primitive.ObjectID) (*models.Case, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	hospital, err := s.hospitalRepo.GetByID(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	if !hospital.HasBeds() {
		return nil, models.ErrNoBedsAvailable
	}

	distance := utils.CalculateDistance(
		c.Location.Latitude(), c.Location.Longitude(),
		hospital.Location.Latitude(), hospital.Location.Longitude(),
	)
	snapshot := hospital.Snapshot(distance)

	// The conditional write decides the race; whoever matches first wins.
	err = s.withRetry(ctx, "accept case", func() error {
		return s.caseRepo.AcceptForHospital(ctx, caseID, snapshot)
	})
	if err != nil {
		return nil, err
	}

	// The case document is authoritative. A failed decrement leaves the bed
	// count optimistic, not the acceptance invalid.
	err = s.withRetry(ctx, "decrement beds", func() error {
		return s.hospitalRepo.DecrementBeds(ctx, hospitalID)
	})
	if err != nil {
		s.logger.WithCaseID(caseID).WithHospitalID(hospitalID).WithError(err).
			Warn("Bed decrement failed after acceptance")
	}

	accepted, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyCaseAccepted(ctx, accepted)

	return accepted, nil
}

func (s *dispatchService) DispatchAmbulance(ctx context.Context, caseID, ambulanceID primitive.ObjectID) (*models.Case, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransitionTo(models.CaseStatusEnRoute) {
		return nil, models.ErrInvalidTransition
	}

	ambulance, err := s.ambulanceRepo.GetByID(ctx, ambulanceID)
	if err != nil {
		return nil, err
	}

	eta := s.etaToCase(ambulance, c)
	snapshot := ambulance.Snapshot(eta, utils.FormatETA(eta))
	destination := s.buildDestination(ctx, c, eta)

	// Reserve the ambulance first. If the case side then loses its race the
	// reservation is rolled back; the reverse order could strand a case with
	// an ambulance that was grabbed in between.
	err = s.withRetry(ctx, "reserve ambulance", func() error {
		return s.ambulanceRepo.BindCase(ctx, ambulanceID, caseID, models.AmbulanceStatusEnRoute, destination, c.Severity)
	})
	if err != nil {
		return nil, err
	}

	err = s.withRetry(ctx, "bind ambulance to case", func() error {
		return s.caseRepo.BindAmbulance(ctx, caseID, snapshot, models.CaseStatusEnRoute)
	})
	if err != nil {
		if releaseErr := s.ambulanceRepo.ReleaseCase(ctx, ambulanceID, caseID, models.AmbulanceStatusAvailable); releaseErr != nil {
			s.logger.WithAmbulanceID(ambulanceID).WithError(releaseErr).
				Error("Failed to release ambulance after bind conflict")
		}
		return nil, err
	}

	dispatched, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyCaseDispatched(ctx, dispatched)

	return dispatched, nil
}

func (s *dispatchService) MarkArrived(ctx context.Context, caseID, ambulanceID primitive.ObjectID) (*models.Case, error) {
	if err := s.checkBoundAmbulance(ctx, caseID, ambulanceID); err != nil {
		return nil, err
	}

	err := s.withRetry(ctx, "mark arrived", func() error {
		return s.caseRepo.TransitionStatus(ctx, caseID, models.CaseStatusEnRoute, models.CaseStatusArrived, map[string]interface{}{
			"arrived_at": time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	// On scene the crew is busy with the patient but the case stays bound.
	if err := s.ambulanceRepo.Update(ctx, ambulanceID, map[string]interface{}{
		"status": models.AmbulanceStatusBusy,
	}); err != nil {
		s.logger.WithAmbulanceID(ambulanceID).WithError(err).Warn("Failed to update ambulance status on arrival")
	}

	arrived, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyCaseStatusChanged(ctx, arrived, utils.EventCaseArrived)

	return arrived, nil
}

func (s *dispatchService) CompleteCase(ctx context.Context, caseID, ambulanceID primitive.ObjectID) (*models.Case, error) {
	if err := s.checkBoundAmbulance(ctx, caseID, ambulanceID); err != nil {
		return nil, err
	}

	err := s.withRetry(ctx, "complete case", func() error {
		return s.caseRepo.TransitionStatus(ctx, caseID, models.CaseStatusArrived, models.CaseStatusCompleted, map[string]interface{}{
			"completed_at": time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.releaseAmbulance(ctx, ambulanceID, caseID)

	completed, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyCaseStatusChanged(ctx, completed, utils.EventCaseCompleted)

	return completed, nil
}

func (s *dispatchService) CancelCase(ctx context.Context, caseID primitive.ObjectID, reason, canceledBy string) (*models.Case, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransitionTo(models.CaseStatusCanceled) {
		return nil, models.ErrInvalidTransition
	}

	// Guarded on the status we read; a concurrent transition makes this fail
	// cleanly instead of cancelling a case that moved on.
	err = s.withRetry(ctx, "cancel case", func() error {
		return s.caseRepo.TransitionStatus(ctx, caseID, c.Status, models.CaseStatusCanceled, map[string]interface{}{
			"cancellation_reason": reason,
			"canceled_by":         canceledBy,
			"canceled_at":         time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	if c.AmbulanceID != nil {
		s.releaseAmbulance(ctx, *c.AmbulanceID, caseID)
	}

	canceled, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyCaseStatusChanged(ctx, canceled, utils.EventCaseCanceled)

	return canceled, nil
}

func (s *dispatchService) GetCase(ctx context.Context, caseID primitive.ObjectID) (*models.Case, error) {
	return s.caseRepo.GetByID(ctx, caseID)
}

func (s *dispatchService) GetPendingCases(ctx context.Context, viewer models.Location) ([]*PendingCaseView, error) {
	pending, err := s.caseRepo.GetPending(ctx)
	if err != nil {
		return nil, err
	}

	return s.matching.SortPendingCases(pending, viewer), nil
}

func (s *dispatchService) GetHospitalCases(ctx context.Context, hospitalID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Case, int64, error) {
	return s.caseRepo.GetByHospital(ctx, hospitalID, params)
}

func (s *dispatchService) GetRoutes(ctx context.Context, caseID primitive.ObjectID) ([]*models.RouteOption, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.AmbulanceID == nil {
		return nil, models.ErrInvalidTransition
	}

	ambulance, err := s.ambulanceRepo.GetByID(ctx, *c.AmbulanceID)
	if err != nil {
		return nil, err
	}
	if ambulance.CurrentLocation == nil || !ambulance.CurrentLocation.HasCoordinates() {
		return nil, models.ErrGeoLookupFailed
	}

	destination := c.Location
	if c.Status == models.CaseStatusArrived && c.HospitalID != nil {
		hospital, err := s.hospitalRepo.GetByID(ctx, *c.HospitalID)
		if err == nil {
			destination = hospital.Location
		}
	}

	return s.matching.RankRoutes(ctx, *ambulance.CurrentLocation, destination), nil
}

// checkBoundAmbulance verifies the acting ambulance is the one bound to the
// case.
func (s *dispatchService) checkBoundAmbulance(ctx context.Context, caseID, ambulanceID primitive.ObjectID) error {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return err
	}
	if c.AmbulanceID == nil || *c.AmbulanceID != ambulanceID {
		return models.ErrConflictAlreadyBound
	}
	return nil
}

func (s *dispatchService) releaseAmbulance(ctx context.Context, ambulanceID, caseID primitive.ObjectID) {
	err := s.withRetry(ctx, "release ambulance", func() error {
		return s.ambulanceRepo.ReleaseCase(ctx, ambulanceID, caseID, models.AmbulanceStatusAvailable)
	})
	if err != nil {
		s.logger.WithAmbulanceID(ambulanceID).WithCaseID(caseID).WithError(err).
			Error("Failed to release ambulance")
	}
}

func (s *dispatchService) etaToCase(ambulance *models.Ambulance, c *models.Case) int {
	if ambulance.CurrentLocation == nil || !ambulance.CurrentLocation.HasCoordinates() {
		return 0
	}

	distance := utils.CalculateDistance(
		ambulance.CurrentLocation.Latitude(), ambulance.CurrentLocation.Longitude(),
		c.Location.Latitude(), c.Location.Longitude(),
	)
	return utils.EstimateETAMinutes(distance, utils.AssumedSpeedKmh)
}

func (s *dispatchService) buildDestination(ctx context.Context, c *models.Case, etaMinutes int) *models.Destination {
	if c.HospitalID == nil {
		return &models.Destination{
			Name:       "Case site",
			Location:   c.Location,
			ETAMinutes: etaMinutes,
			ETAText:    utils.FormatETA(etaMinutes),
		}
	}

	hospital, err := s.hospitalRepo.GetByID(ctx, *c.HospitalID)
	if err != nil {
		s.logger.WithCaseID(c.ID).WithError(err).Warn("Failed to load destination hospital")
		return nil
	}

	return &models.Destination{
		HospitalID: &hospital.ID,
		Name:       hospital.Name,
		Location:   hospital.Location,
		ETAMinutes: etaMinutes,
		ETAText:    utils.FormatETA(etaMinutes),
	}
}

func (s *dispatchService) withRetry(ctx context.Context, op string, fn func() error) error {
	return withRetry(ctx, s.logger, op, fn)
}
