package services

import (
	"context"
	"time"

	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/utils"
	"rapidaid/internal/validators"
	"rapidaid/pkg/logger"
	"rapidaid/pkg/maps"
	"rapidaid/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TrackingService interface {
	// IngestLocation records a position report from an ambulance. A report
	// without coordinates is dropped silently and returns a nil location.
	IngestLocation(ctx context.Context, ambulanceID primitive.ObjectID, req *validators.LocationUpdateRequest) (*models.Location, error)

	// StartFeed runs the periodic live-tracking publisher until ctx is
	// canceled. Each tick republishes every active ambulance's latest
	// position with its case context.
	StartFeed(ctx context.Context)
}

type trackingService struct {
	ambulanceRepo interfaces.AmbulanceRepository
	caseRepo      interfaces.CaseRepository
	cache         CacheService
	mapsProvider  maps.MapsProvider
	wsHandler     *websocket.Handler
	logger        *logger.Logger
	interval      time.Duration

	// tick is swapped out in tests to drive the feed manually.
	tick func(time.Duration) (<-chan time.Time, func())
}

func NewTrackingService(
	ambulanceRepo interfaces.AmbulanceRepository,
	caseRepo interfaces.CaseRepository,
	cache CacheService,
	mapsProvider maps.MapsProvider,
	wsHandler *websocket.Handler,
	logger *logger.Logger,
	interval time.Duration,
) TrackingService {
	if interval <= 0 {
		interval = utils.LocationUpdateInterval
	}

	return &trackingService{
		ambulanceRepo: ambulanceRepo,
		caseRepo:      caseRepo,
		cache:         cache,
		mapsProvider:  mapsProvider,
		wsHandler:     wsHandler,
		logger:        logger,
		interval:      interval,
		tick:          defaultTick,
	}
}

func defaultTick(d time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(d)
	return ticker.C, ticker.Stop
}

func (s *trackingService) IngestLocation(ctx context.Context, ambulanceID primitive.ObjectID, req *validators.LocationUpdateRequest) (*models.Location, error) {
	// No coordinates means no sample, not an error.
	if req.Latitude == nil || req.Longitude == nil {
		s.logger.WithAmbulanceID(ambulanceID).Debug("Dropping location report without coordinates")
		return nil, nil
	}

	lat, lng := utils.NormalizeCoordinates(*req.Latitude, *req.Longitude)
	location := models.NewLocation(lat, lng)
	location.Accuracy = req.Accuracy
	location.Address = s.resolveAddress(ctx, lat, lng)

	err := withRetry(ctx, s.logger, "update location", func() error {
		return s.ambulanceRepo.UpdateLocation(ctx, ambulanceID, &location)
	})
	if err != nil {
		return nil, err
	}

	ambulance, err := s.ambulanceRepo.GetByID(ctx, ambulanceID)
	if err != nil {
		return &location, nil
	}

	if ambulance.ActiveCaseID != nil {
		s.publishSample(ctx, ambulance)
	}

	return &location, nil
}

func (s *trackingService) StartFeed(ctx context.Context) {
	ch, stop := s.tick(s.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			s.publishActiveFleet(ctx)
		}
	}
}

func (s *trackingService) publishActiveFleet(ctx context.Context) {
	for _, status := range []models.AmbulanceStatus{models.AmbulanceStatusEnRoute, models.AmbulanceStatusBusy} {
		ambulances, err := s.ambulanceRepo.GetByStatus(ctx, status)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load active fleet for tracking feed")
			continue
		}

		for _, a := range ambulances {
			if a.ActiveCaseID == nil {
				continue
			}
			s.publishSample(ctx, a)
		}
	}
}

// publishSample pushes one ambulance position, with its case context, to the
// case room, the police feed and the redis tracking channel.
func (s *trackingService) publishSample(ctx context.Context, ambulance *models.Ambulance) {
	if ambulance.CurrentLocation == nil || !ambulance.CurrentLocation.HasCoordinates() {
		return
	}

	caseID := *ambulance.ActiveCaseID
	position := utils.NewPointFromCoordinates(ambulance.CurrentLocation.Coordinates)

	data := map[string]interface{}{
		"case_id":      caseID.Hex(),
		"ambulance_id": ambulance.ID.Hex(),
		"latitude":     position.Lat,
		"longitude":    position.Lng,
		"address":      ambulance.CurrentLocation.Address,
		"status":       ambulance.Status,
	}

	if ambulance.PatientSeverity != nil {
		data["severity"] = *ambulance.PatientSeverity
	}

	if ambulance.Destination != nil && ambulance.Destination.Location.HasCoordinates() {
		distance := utils.CalculateDistance(
			position.Lat, position.Lng,
			ambulance.Destination.Location.Latitude(), ambulance.Destination.Location.Longitude(),
		)
		eta := utils.EstimateETAMinutes(distance, utils.AssumedSpeedKmh)
		data["destination"] = ambulance.Destination.Name
		data["eta_minutes"] = eta
		data["eta_text"] = utils.FormatETA(eta)
	}

	if s.wsHandler != nil {
		s.wsHandler.SendCaseUpdate(caseID, utils.EventLocationUpdate, data)
		s.wsHandler.SendPoliceBroadcast(utils.EventFleetUpdate, data)
	}

	if s.cache != nil {
		if err := s.cache.Publish(ctx, "tracking:case_"+caseID.Hex(), data); err != nil {
			s.logger.WithCaseID(caseID).WithError(err).Debug("Failed to publish tracking sample")
		}
	}
}

// resolveAddress reverse-geocodes a position. Lookup failure degrades to the
// placeholder address; a sample is never dropped for missing geocoding.
func (s *trackingService) resolveAddress(ctx context.Context, lat, lng float64) string {
	if s.mapsProvider == nil {
		return utils.UnresolvedAddress
	}

	resp, err := s.mapsProvider.ReverseGeocode(ctx, lat, lng)
	if err != nil || len(resp.Results) == 0 {
		if err != nil {
			s.logger.WithError(err).Debug("Reverse geocoding failed")
		}
		return utils.UnresolvedAddress
	}

	return resp.Results[0].Address
}
