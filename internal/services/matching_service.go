package services

import (
	"context"
	"fmt"
	"sort"

	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/utils"
	"rapidaid/pkg/logger"
	"rapidaid/pkg/maps"
)

type MatchingService interface {
	// RankHospitals returns every hospital with free beds, nearest first, with
	// straight-line distance and ETA filled in.
	RankHospitals(ctx context.Context, origin models.Location) ([]*models.RankedHospital, error)

	// SortPendingCases orders pending cases by distance from the viewer.
	SortPendingCases(cases []*models.Case, viewer models.Location) []*PendingCaseView

	// RankRoutes asks the routing provider for traffic-priced alternatives
	// between origin and destination, fastest-in-traffic first. Provider
	// failure degrades to a single straight-line fallback entry.
	RankRoutes(ctx context.Context, origin, destination models.Location) []*models.RouteOption
}

// PendingCaseView is a pending case annotated with its distance from the
// viewing hospital.
type PendingCaseView struct {
	Case       *models.Case `json:"case"`
	DistanceKM float64      `json:"distance_km"`
	ETAMinutes int          `json:"eta_minutes"`
	ETAText    string       `json:"eta_text"`
}

type matchingService struct {
	hospitalRepo interfaces.HospitalRepository
	mapsProvider maps.MapsProvider
	logger       *logger.Logger
}

func NewMatchingService(hospitalRepo interfaces.HospitalRepository, mapsProvider maps.MapsProvider, logger *logger.Logger) MatchingService {
	return &matchingService{
		hospitalRepo: hospitalRepo,
		mapsProvider: mapsProvider,
		logger:       logger,
	}
}

func (s *matchingService) RankHospitals(ctx context.Context, origin models.Location) ([]*models.RankedHospital, error) {
	hospitals, err := s.hospitalRepo.GetWithBeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rank hospitals: %w", err)
	}

	ranked := make([]*models.RankedHospital, 0, len(hospitals))
	for _, h := range hospitals {
		if !h.Location.HasCoordinates() {
			continue
		}

		distance := utils.CalculateDistance(
			origin.Latitude(), origin.Longitude(),
			h.Location.Latitude(), h.Location.Longitude(),
		)
		if distance > utils.MaxSearchRadiusKM {
			continue
		}

		eta := utils.EstimateETAMinutes(distance, utils.AssumedSpeedKmh)
		ranked = append(ranked, &models.RankedHospital{
			Hospital:   h,
			DistanceKM: distance,
			ETAMinutes: eta,
			ETAText:    utils.FormatETA(eta),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].DistanceKM < ranked[j].DistanceKM
	})

	return ranked, nil
}

func (s *matchingService) SortPendingCases(cases []*models.Case, viewer models.Location) []*PendingCaseView {
	views := make([]*PendingCaseView, 0, len(cases))
	for _, c := range cases {
		distance := utils.CalculateDistance(
			viewer.Latitude(), viewer.Longitude(),
			c.Location.Latitude(), c.Location.Longitude(),
		)
		eta := utils.EstimateETAMinutes(distance, utils.AssumedSpeedKmh)

		views = append(views, &PendingCaseView{
			Case:       c,
			DistanceKM: distance,
			ETAMinutes: eta,
			ETAText:    utils.FormatETA(eta),
		})
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].DistanceKM != views[j].DistanceKM {
			return views[i].DistanceKM < views[j].DistanceKM
		}
		// Same distance: newest case first
		return views[i].Case.CreatedAt.After(views[j].Case.CreatedAt)
	})

	return views
}

func (s *matchingService) RankRoutes(ctx context.Context, origin, destination models.Location) []*models.RouteOption {
	if s.mapsProvider == nil {
		return []*models.RouteOption{s.fallbackRoute(origin, destination)}
	}

	resp, err := s.mapsProvider.GetDirections(ctx, &maps.DirectionsRequest{
		Origin: maps.Location{
			Latitude:  origin.Latitude(),
			Longitude: origin.Longitude(),
		},
		Destination: maps.Location{
			Latitude:  destination.Latitude(),
			Longitude: destination.Longitude(),
		},
		Mode:         "driving",
		Alternatives: true,
		WithTraffic:  true,
	})
	if err != nil || len(resp.Routes) == 0 {
		if err != nil {
			s.logger.WithError(err).Warn("Route provider failed, using straight-line fallback")
		}
		return []*models.RouteOption{s.fallbackRoute(origin, destination)}
	}

	options := make([]*models.RouteOption, 0, len(resp.Routes))
	for _, route := range resp.Routes {
		duration := route.Duration.Value / 60
		inTraffic := duration
		if route.DurationInTraffic.Value > 0 {
			inTraffic = route.DurationInTraffic.Value / 60
		}

		delay := inTraffic - duration
		if delay < 0 {
			delay = 0
		}
		delayText := utils.NoTrafficDelay
		if delay > 0 {
			delayText = fmt.Sprintf("%d min delay", delay)
		}

		options = append(options, &models.RouteOption{
			Summary:                  route.Summary,
			DistanceKM:               route.Distance.Value / 1000,
			DurationMinutes:          duration,
			DurationInTrafficMinutes: inTraffic,
			TrafficDelayMinutes:      delay,
			TrafficDelayText:         delayText,
			Polyline:                 route.Polyline,
		})
	}

	sort.Slice(options, func(i, j int) bool {
		return options[i].DurationInTrafficMinutes < options[j].DurationInTrafficMinutes
	})
	options[0].Recommended = true

	return options
}

func (s *matchingService) fallbackRoute(origin, destination models.Location) *models.RouteOption {
	distance := utils.CalculateDistance(
		origin.Latitude(), origin.Longitude(),
		destination.Latitude(), destination.Longitude(),
	)
	eta := utils.EstimateETAMinutes(distance, utils.AssumedSpeedKmh)

	return &models.RouteOption{
		Summary:                  "Direct route (estimated)",
		DistanceKM:               distance,
		DurationMinutes:          eta,
		DurationInTrafficMinutes: eta,
		TrafficDelayMinutes:      0,
		TrafficDelayText:         utils.NoTrafficDelay,
		Recommended:              true,
		Fallback:                 true,
	}
}
