package services

import (
	"context"
	"fmt"
	"sort"

	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/utils"
	"rapidaid/internal/validators"
	"rapidaid/pkg/cache"
	"rapidaid/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FleetService interface {
	RegisterAmbulance(ctx context.Context, req *validators.RegisterAmbulanceRequest) (*models.Ambulance, error)
	GetAmbulance(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error)
	ListAmbulances(ctx context.Context, params *utils.PaginationParams) ([]*models.Ambulance, int64, error)
	GetAvailable(ctx context.Context) ([]*models.Ambulance, error)

	// GetNearby returns available ambulances within radiusKM of the point,
	// nearest first. Zero radius means the default search radius.
	GetNearby(ctx context.Context, lat, lng, radiusKM float64) ([]*NearbyAmbulance, error)

	// FleetPositions reads the redis geo index for a quick map overlay. It
	// covers every tracked ambulance regardless of status.
	FleetPositions(ctx context.Context, lat, lng, radiusKM float64) (*FleetOverview, error)

	// SetManualStatus applies driver-initiated status changes. Statuses that
	// imply a bound case are rejected; those only move via dispatch.
	SetManualStatus(ctx context.Context, id primitive.ObjectID, status models.AmbulanceStatus) error
}

// FleetOverview is the police map overlay: tracked units plus the bounding
// box that frames them.
type FleetOverview struct {
	Units  []cache.GeoMember `json:"units"`
	Bounds *utils.Bounds     `json:"bounds,omitempty"`
}

// NearbyAmbulance is an available ambulance annotated with its distance from
// a case location.
type NearbyAmbulance struct {
	Ambulance  *models.Ambulance `json:"ambulance"`
	DistanceKM float64           `json:"distance_km"`
	ETAMinutes int               `json:"eta_minutes"`
	ETAText    string            `json:"eta_text"`
}

type fleetService struct {
	ambulanceRepo interfaces.AmbulanceRepository
	cache         CacheService
	logger        *logger.Logger
}

func NewFleetService(ambulanceRepo interfaces.AmbulanceRepository, cache CacheService, logger *logger.Logger) FleetService {
	return &fleetService{
		ambulanceRepo: ambulanceRepo,
		cache:         cache,
		logger:        logger,
	}
}

func (s *fleetService) RegisterAmbulance(ctx context.Context, req *validators.RegisterAmbulanceRequest) (*models.Ambulance, error) {
	if existing, err := s.ambulanceRepo.GetByVehicleNumber(ctx, req.VehicleNumber); err == nil && existing != nil {
		return nil, fmt.Errorf("vehicle number already registered")
	}

	capacity := req.Capacity
	if capacity == 0 {
		capacity = 1
	}

	ambulance := &models.Ambulance{
		DriverName:    req.DriverName,
		VehicleNumber: req.VehicleNumber,
		VehicleType:   req.VehicleType,
		Capacity:      capacity,
		Status:        models.AmbulanceStatusOffline,
	}

	if err := s.ambulanceRepo.Create(ctx, ambulance); err != nil {
		return nil, err
	}

	s.logger.WithAmbulanceID(ambulance.ID).Info("Ambulance registered")

	return ambulance, nil
}

func (s *fleetService) GetAmbulance(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	return s.ambulanceRepo.GetByID(ctx, id)
}

func (s *fleetService) ListAmbulances(ctx context.Context, params *utils.PaginationParams) ([]*models.Ambulance, int64, error) {
	return s.ambulanceRepo.List(ctx, params)
}

func (s *fleetService) GetAvailable(ctx context.Context) ([]*models.Ambulance, error) {
	return s.ambulanceRepo.GetAvailable(ctx)
}

func (s *fleetService) GetNearby(ctx context.Context, lat, lng, radiusKM float64) ([]*NearbyAmbulance, error) {
	if radiusKM <= 0 {
		radiusKM = utils.DefaultNearbyRadiusKM
	}
	if radiusKM > utils.MaxSearchRadiusKM {
		radiusKM = utils.MaxSearchRadiusKM
	}

	available, err := s.ambulanceRepo.GetAvailable(ctx)
	if err != nil {
		return nil, err
	}

	nearby := make([]*NearbyAmbulance, 0, len(available))
	for _, a := range available {
		if a.CurrentLocation == nil || !a.CurrentLocation.HasCoordinates() {
			continue
		}

		distance := utils.CalculateDistance(
			lat, lng,
			a.CurrentLocation.Latitude(), a.CurrentLocation.Longitude(),
		)
		if distance > radiusKM {
			continue
		}

		eta := utils.EstimateETAMinutes(distance, utils.AssumedSpeedKmh)
		nearby = append(nearby, &NearbyAmbulance{
			Ambulance:  a,
			DistanceKM: distance,
			ETAMinutes: eta,
			ETAText:    utils.FormatETA(eta),
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].DistanceKM != nearby[j].DistanceKM {
			return nearby[i].DistanceKM < nearby[j].DistanceKM
		}
		// Same distance: the freshest position report wins
		iUpd := nearby[i].Ambulance.LastLocationUpdate
		jUpd := nearby[j].Ambulance.LastLocationUpdate
		if iUpd == nil {
			return false
		}
		if jUpd == nil {
			return true
		}
		return iUpd.After(*jUpd)
	})

	return nearby, nil
}

func (s *fleetService) FleetPositions(ctx context.Context, lat, lng, radiusKM float64) (*FleetOverview, error) {
	if radiusKM <= 0 {
		radiusKM = utils.MaxSearchRadiusKM
	}

	units, err := s.cache.GeoSearch(ctx, utils.CacheFleetGeoKey, lng, lat, radiusKM)
	if err != nil {
		return nil, err
	}

	points := make([]utils.Point, 0, len(units))
	for _, unit := range units {
		points = append(points, utils.Point{Lat: unit.Latitude, Lng: unit.Longitude})
	}

	return &FleetOverview{
		Units:  units,
		Bounds: utils.CalculateBounds(points),
	}, nil
}

func (s *fleetService) SetManualStatus(ctx context.Context, id primitive.ObjectID, status models.AmbulanceStatus) error {
	if !status.Valid() || status.Active() {
		return models.ErrInvalidTransition
	}

	if err := s.ambulanceRepo.SetStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.WithAmbulanceID(id).WithField("status", status).Info("Ambulance status changed")

	return nil
}
