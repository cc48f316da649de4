package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"rapidaid/internal/models"
	"rapidaid/internal/utils"
	"rapidaid/pkg/cache"
	"rapidaid/pkg/logger"
	"rapidaid/pkg/maps"
	"rapidaid/pkg/push"
	"rapidaid/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text", Output: "stderr"})
	if err != nil {
		t.Fatalf("failed to build test logger: %v", err)
	}
	return log
}

var errStoreDown = errors.New("store down")

// fakeCaseRepo is an in-memory case store that mirrors the guarded-write
// semantics of the mongo repository, including the conflict diagnosis on a
// missed guard.
type fakeCaseRepo struct {
	mu    sync.Mutex
	cases map[primitive.ObjectID]*models.Case

	// failuresLeft injects transient errors per operation name, counting down
	// on each call.
	failuresLeft map[string]int
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{
		cases:        make(map[primitive.ObjectID]*models.Case),
		failuresLeft: make(map[string]int),
	}
}

func (r *fakeCaseRepo) failNext(op string, times int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failuresLeft[op] = times
}

func (r *fakeCaseRepo) transientFailure(op string) bool {
	if r.failuresLeft[op] > 0 {
		r.failuresLeft[op]--
		return true
	}
	return false
}

func (r *fakeCaseRepo) Create(ctx context.Context, c *models.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transientFailure("create") {
		return errStoreDown
	}

	c.ID = primitive.NewObjectID()
	if c.Status == "" {
		c.Status = models.CaseStatusPending
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	clone := *c
	r.cases[c.ID] = &clone
	return nil
}

func (r *fakeCaseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, models.ErrCaseNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCaseRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cases[id]; !ok {
		return models.ErrCaseNotFound
	}
	return nil
}

func (r *fakeCaseRepo) AcceptForHospital(ctx context.Context, caseID primitive.ObjectID, snapshot *models.HospitalSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transientFailure("accept") {
		return errStoreDown
	}

	c, ok := r.cases[caseID]
	if !ok {
		return models.ErrCaseNotFound
	}
	if c.Status != models.CaseStatusPending || c.HospitalID != nil {
		if c.HospitalID != nil {
			return models.ErrConflictAlreadyBound
		}
		return models.ErrInvalidTransition
	}

	now := time.Now()
	c.Status = models.CaseStatusAccepted
	c.HospitalID = &snapshot.HospitalID
	c.Hospital = snapshot
	c.AcceptedAt = &now
	c.UpdatedAt = now
	return nil
}

func (r *fakeCaseRepo) BindAmbulance(ctx context.Context, caseID primitive.ObjectID, snapshot *models.AmbulanceSnapshot, newStatus models.CaseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transientFailure("bind") {
		return errStoreDown
	}

	c, ok := r.cases[caseID]
	if !ok {
		return models.ErrCaseNotFound
	}
	bindable := c.Status == models.CaseStatusPending || c.Status == models.CaseStatusAccepted
	if c.AmbulanceID != nil || !bindable {
		if c.AmbulanceID != nil {
			return models.ErrConflictAlreadyBound
		}
		return models.ErrInvalidTransition
	}

	now := time.Now()
	c.Status = newStatus
	c.AmbulanceID = &snapshot.AmbulanceID
	c.Ambulance = snapshot
	c.EnRouteAt = &now
	c.UpdatedAt = now
	return nil
}

func (r *fakeCaseRepo) TransitionStatus(ctx context.Context, caseID primitive.ObjectID, from, to models.CaseStatus, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transientFailure("transition") {
		return errStoreDown
	}

	c, ok := r.cases[caseID]
	if !ok {
		return models.ErrCaseNotFound
	}
	if c.Status != from {
		return models.ErrInvalidTransition
	}

	now := time.Now()
	c.Status = to
	c.UpdatedAt = now
	for key, value := range updates {
		switch key {
		case "arrived_at":
			if ts, ok := value.(time.Time); ok {
				c.ArrivedAt = &ts
			}
		case "completed_at":
			if ts, ok := value.(time.Time); ok {
				c.CompletedAt = &ts
			}
		case "canceled_at":
			if ts, ok := value.(time.Time); ok {
				c.CanceledAt = &ts
			}
		case "cancellation_reason":
			c.CancellationReason, _ = value.(string)
		case "canceled_by":
			c.CanceledBy, _ = value.(string)
		}
	}
	return nil
}

func (r *fakeCaseRepo) GetPending(ctx context.Context) ([]*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*models.Case
	for _, c := range r.cases {
		if c.Status == models.CaseStatusPending {
			clone := *c
			pending = append(pending, &clone)
		}
	}
	return pending, nil
}

func (r *fakeCaseRepo) GetActiveByAmbulance(ctx context.Context, ambulanceID primitive.ObjectID) (*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cases {
		if c.AmbulanceID != nil && *c.AmbulanceID == ambulanceID && !c.IsTerminal() {
			clone := *c
			return &clone, nil
		}
	}
	return nil, models.ErrCaseNotFound
}

func (r *fakeCaseRepo) GetByHospital(ctx context.Context, hospitalID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Case, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Case
	for _, c := range r.cases {
		if c.HospitalID != nil && *c.HospitalID == hospitalID {
			clone := *c
			result = append(result, &clone)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeCaseRepo) GetByStatus(ctx context.Context, status models.CaseStatus, params *utils.PaginationParams) ([]*models.Case, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Case
	for _, c := range r.cases {
		if c.Status == status {
			clone := *c
			result = append(result, &clone)
		}
	}
	return result, int64(len(result)), nil
}

// fakeAmbulanceRepo mirrors the CAS binding semantics of the mongo
// implementation.
type fakeAmbulanceRepo struct {
	mu         sync.Mutex
	ambulances map[primitive.ObjectID]*models.Ambulance
}

func newFakeAmbulanceRepo() *fakeAmbulanceRepo {
	return &fakeAmbulanceRepo{ambulances: make(map[primitive.ObjectID]*models.Ambulance)}
}

func (r *fakeAmbulanceRepo) add(a *models.Ambulance) *models.Ambulance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	clone := *a
	r.ambulances[a.ID] = &clone
	return a
}

func (r *fakeAmbulanceRepo) Create(ctx context.Context, a *models.Ambulance) error {
	if a.Status == "" {
		a.Status = models.AmbulanceStatusOffline
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.add(a)
	return nil
}

func (r *fakeAmbulanceRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ambulances[id]
	if !ok {
		return nil, models.ErrAmbulanceNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAmbulanceRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ambulances[id]
	if !ok {
		return models.ErrAmbulanceNotFound
	}
	if status, ok := updates["status"].(models.AmbulanceStatus); ok {
		a.Status = status
	}
	a.UpdatedAt = time.Now()
	return nil
}

func (r *fakeAmbulanceRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Ambulance, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Ambulance
	for _, a := range r.ambulances {
		clone := *a
		result = append(result, &clone)
	}
	return result, int64(len(result)), nil
}

func (r *fakeAmbulanceRepo) BindCase(ctx context.Context, ambulanceID, caseID primitive.ObjectID, status models.AmbulanceStatus, destination *models.Destination, severity models.CaseSeverity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ambulances[ambulanceID]
	if !ok {
		return models.ErrAmbulanceNotFound
	}
	if a.ActiveCaseID != nil {
		return models.ErrAmbulanceBusy
	}
	a.ActiveCaseID = &caseID
	a.Status = status
	a.Destination = destination
	a.PatientSeverity = &severity
	a.UpdatedAt = time.Now()
	return nil
}

func (r *fakeAmbulanceRepo) ReleaseCase(ctx context.Context, ambulanceID, caseID primitive.ObjectID, status models.AmbulanceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ambulances[ambulanceID]
	if !ok || a.ActiveCaseID == nil || *a.ActiveCaseID != caseID {
		return models.ErrAmbulanceNotFound
	}
	a.ActiveCaseID = nil
	a.Status = status
	a.Destination = nil
	a.PatientSeverity = nil
	a.UpdatedAt = time.Now()
	return nil
}

func (r *fakeAmbulanceRepo) SetStatus(ctx context.Context, ambulanceID primitive.ObjectID, status models.AmbulanceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ambulances[ambulanceID]
	if !ok {
		return models.ErrAmbulanceNotFound
	}
	if a.ActiveCaseID != nil {
		return models.ErrAmbulanceBusy
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	return nil
}

func (r *fakeAmbulanceRepo) UpdateLocation(ctx context.Context, ambulanceID primitive.ObjectID, location *models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ambulances[ambulanceID]
	if !ok {
		return models.ErrAmbulanceNotFound
	}
	now := time.Now()
	a.CurrentLocation = location
	a.LastLocationUpdate = &now
	a.UpdatedAt = now
	return nil
}

func (r *fakeAmbulanceRepo) UpdateDestination(ctx context.Context, ambulanceID primitive.ObjectID, destination *models.Destination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ambulances[ambulanceID]
	if !ok {
		return models.ErrAmbulanceNotFound
	}
	a.Destination = destination
	return nil
}

func (r *fakeAmbulanceRepo) GetAvailable(ctx context.Context) ([]*models.Ambulance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Ambulance
	for _, a := range r.ambulances {
		if a.Status == models.AmbulanceStatusAvailable && a.ActiveCaseID == nil {
			clone := *a
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (r *fakeAmbulanceRepo) GetByStatus(ctx context.Context, status models.AmbulanceStatus) ([]*models.Ambulance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Ambulance
	for _, a := range r.ambulances {
		if a.Status == status {
			clone := *a
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (r *fakeAmbulanceRepo) GetByVehicleNumber(ctx context.Context, vehicleNumber string) (*models.Ambulance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.ambulances {
		if a.VehicleNumber == vehicleNumber {
			clone := *a
			return &clone, nil
		}
	}
	return nil, models.ErrAmbulanceNotFound
}

// fakeHospitalRepo keeps the bed-count guard of the mongo implementation.
type fakeHospitalRepo struct {
	mu        sync.Mutex
	hospitals map[primitive.ObjectID]*models.Hospital

	decrementFailures int
}

func newFakeHospitalRepo() *fakeHospitalRepo {
	return &fakeHospitalRepo{hospitals: make(map[primitive.ObjectID]*models.Hospital)}
}

func (r *fakeHospitalRepo) add(h *models.Hospital) *models.Hospital {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}
	clone := *h
	r.hospitals[h.ID] = &clone
	return h
}

func (r *fakeHospitalRepo) Create(ctx context.Context, h *models.Hospital) error {
	h.CreatedAt = time.Now()
	h.UpdatedAt = h.CreatedAt
	r.add(h)
	return nil
}

func (r *fakeHospitalRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hospitals[id]
	if !ok {
		return nil, models.ErrHospitalNotFound
	}
	clone := *h
	return &clone, nil
}

func (r *fakeHospitalRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeHospitalRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Hospital, int64, error) {
	all, err := r.GetAll(ctx)
	return all, int64(len(all)), err
}

func (r *fakeHospitalRepo) DecrementBeds(ctx context.Context, hospitalID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.decrementFailures > 0 {
		r.decrementFailures--
		return errStoreDown
	}

	h, ok := r.hospitals[hospitalID]
	if !ok {
		return models.ErrHospitalNotFound
	}
	if h.AvailableBeds <= 0 {
		return models.ErrNoBedsAvailable
	}
	h.AvailableBeds--
	return nil
}

func (r *fakeHospitalRepo) SetBeds(ctx context.Context, hospitalID primitive.ObjectID, beds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hospitals[hospitalID]
	if !ok {
		return models.ErrHospitalNotFound
	}
	h.AvailableBeds = beds
	return nil
}

func (r *fakeHospitalRepo) AddPushToken(ctx context.Context, hospitalID primitive.ObjectID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hospitals[hospitalID]
	if !ok {
		return models.ErrHospitalNotFound
	}
	h.PushTokens = append(h.PushTokens, token)
	return nil
}

func (r *fakeHospitalRepo) RemovePushToken(ctx context.Context, hospitalID primitive.ObjectID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hospitals[hospitalID]
	if !ok {
		return models.ErrHospitalNotFound
	}
	kept := h.PushTokens[:0]
	for _, t := range h.PushTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	h.PushTokens = kept
	return nil
}

func (r *fakeHospitalRepo) GetAll(ctx context.Context) ([]*models.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Hospital
	for _, h := range r.hospitals {
		clone := *h
		result = append(result, &clone)
	}
	return result, nil
}

func (r *fakeHospitalRepo) GetWithBeds(ctx context.Context) ([]*models.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Hospital
	for _, h := range r.hospitals {
		if h.AvailableBeds > 0 {
			clone := *h
			result = append(result, &clone)
		}
	}
	return result, nil
}

type published struct {
	channel string
	message interface{}
}

// fakeCache is an in-memory CacheService with a working geo index.
type fakeCache struct {
	mu        sync.Mutex
	geo       map[string]map[string][2]float64 // key -> member -> (lng, lat)
	published []published
}

func newFakeCache() *fakeCache {
	return &fakeCache{geo: make(map[string]map[string][2]float64)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("cache miss")
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error { return nil }

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (c *fakeCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}

func (c *fakeCache) GeoAdd(ctx context.Context, key, member string, longitude, latitude float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.geo[key] == nil {
		c.geo[key] = make(map[string][2]float64)
	}
	c.geo[key][member] = [2]float64{longitude, latitude}
	return nil
}

func (c *fakeCache) GeoSearch(ctx context.Context, key string, longitude, latitude, radiusKM float64) ([]cache.GeoMember, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var members []cache.GeoMember
	for member, coords := range c.geo[key] {
		distance := utils.CalculateDistance(latitude, longitude, coords[1], coords[0])
		if distance > radiusKM {
			continue
		}
		members = append(members, cache.GeoMember{
			Member:     member,
			Longitude:  coords[0],
			Latitude:   coords[1],
			DistanceKM: distance,
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].DistanceKM < members[j].DistanceKM })
	return members, nil
}

func (c *fakeCache) GeoRemove(ctx context.Context, key, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.geo[key], member)
	return nil
}

func (c *fakeCache) Publish(ctx context.Context, channel string, message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{channel: channel, message: message})
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

func (c *fakeCache) publishedChannels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	channels := make([]string, 0, len(c.published))
	for _, p := range c.published {
		channels = append(channels, p.channel)
	}
	return channels
}

// fakeMapsProvider serves canned directions and reverse-geocode responses.
type fakeMapsProvider struct {
	directions    *maps.DirectionsResponse
	directionsErr error
	address       string
	geocodeErr    error
}

func (p *fakeMapsProvider) Geocode(ctx context.Context, address string) (*maps.GeocodeResponse, error) {
	return &maps.GeocodeResponse{}, nil
}

func (p *fakeMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*maps.GeocodeResponse, error) {
	if p.geocodeErr != nil {
		return nil, p.geocodeErr
	}
	if p.address == "" {
		return &maps.GeocodeResponse{}, nil
	}
	return &maps.GeocodeResponse{
		Results: []maps.GeocodeResult{{Address: p.address}},
	}, nil
}

func (p *fakeMapsProvider) GetDirections(ctx context.Context, request *maps.DirectionsRequest) (*maps.DirectionsResponse, error) {
	if p.directionsErr != nil {
		return nil, p.directionsErr
	}
	return p.directions, nil
}

// fakePushProvider records every push request it receives.
type fakePushProvider struct {
	mu      sync.Mutex
	sent    []*push.NotificationRequest
	sendErr error
	bulkErr error
}

func (p *fakePushProvider) SendNotification(ctx context.Context, request *push.NotificationRequest) (*push.NotificationResponse, error) {
	if p.sendErr != nil {
		return nil, p.sendErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, request)
	return &push.NotificationResponse{Success: true}, nil
}

func (p *fakePushProvider) SendBulkNotifications(ctx context.Context, requests []*push.NotificationRequest) ([]*push.NotificationResponse, error) {
	if p.bulkErr != nil {
		return nil, p.bulkErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, requests...)
	return make([]*push.NotificationResponse, len(requests)), nil
}

func (p *fakePushProvider) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	return nil
}

func (p *fakePushProvider) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	return nil
}

func (p *fakePushProvider) requests() []*push.NotificationRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*push.NotificationRequest(nil), p.sent...)
}

// fakeSMSProvider records every text it is asked to send.
type fakeSMSProvider struct {
	mu   sync.Mutex
	sent []*sms.SMSRequest
}

func (p *fakeSMSProvider) SendSMS(ctx context.Context, request *sms.SMSRequest) (*sms.SMSResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, request)
	return &sms.SMSResponse{Status: "sent"}, nil
}

func (p *fakeSMSProvider) SendBulkSMS(ctx context.Context, requests []*sms.SMSRequest) ([]*sms.SMSResponse, error) {
	responses := make([]*sms.SMSResponse, len(requests))
	for i, req := range requests {
		responses[i], _ = p.SendSMS(ctx, req)
	}
	return responses, nil
}

func (p *fakeSMSProvider) recipients() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	numbers := make([]string, 0, len(p.sent))
	for _, req := range p.sent {
		numbers = append(numbers, req.To)
	}
	return numbers
}

// fakeNotifier records the events it was asked to send.
type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func (n *fakeNotifier) BroadcastNewCase(ctx context.Context, c *models.Case) {
	n.record(utils.EventCaseCreated)
}

func (n *fakeNotifier) NotifyCaseAccepted(ctx context.Context, c *models.Case) {
	n.record(utils.EventCaseAccepted)
}

func (n *fakeNotifier) NotifyCaseDispatched(ctx context.Context, c *models.Case) {
	n.record(utils.EventCaseDispatched)
}

func (n *fakeNotifier) NotifyCaseStatusChanged(ctx context.Context, c *models.Case, event string) {
	n.record(event)
}

func (n *fakeNotifier) SendSMSAlert(ctx context.Context, phone, message string) {}
