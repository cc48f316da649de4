package services

import (
	"context"
	"fmt"

	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/utils"
	"rapidaid/pkg/logger"
	"rapidaid/pkg/push"
	"rapidaid/pkg/sms"
	"rapidaid/pkg/websocket"
)

// NotificationService fans dispatch events out to push, SMS and websocket
// listeners. Every delivery is best-effort: a failed notification is logged
// and never fails the operation that triggered it.
type NotificationService interface {
	BroadcastNewCase(ctx context.Context, c *models.Case)
	NotifyCaseAccepted(ctx context.Context, c *models.Case)
	NotifyCaseDispatched(ctx context.Context, c *models.Case)
	NotifyCaseStatusChanged(ctx context.Context, c *models.Case, event string)
	SendSMSAlert(ctx context.Context, phone, message string)
}

type notificationService struct {
	pushProvider push.PushProvider
	smsProvider  sms.SMSProvider
	hospitalRepo interfaces.HospitalRepository
	wsHandler    *websocket.Handler
	logger       *logger.Logger
}

func NewNotificationService(pushProvider push.PushProvider, smsProvider sms.SMSProvider, hospitalRepo interfaces.HospitalRepository, wsHandler *websocket.Handler, logger *logger.Logger) NotificationService {
	return &notificationService{
		pushProvider: pushProvider,
		smsProvider:  smsProvider,
		hospitalRepo: hospitalRepo,
		wsHandler:    wsHandler,
		logger:       logger,
	}
}

func (s *notificationService) BroadcastNewCase(ctx context.Context, c *models.Case) {
	data := caseEventData(c)

	if s.wsHandler != nil {
		s.wsHandler.SendHospitalBroadcast(utils.EventCaseCreated, data)
		s.wsHandler.SendPoliceBroadcast(utils.EventCaseCreated, data)
	}

	if !s.pushHospitalBroadcast(ctx, c) {
		s.smsHospitalContacts(ctx, c)
	}

	s.logger.LogCaseEvent(c.ID, utils.EventCaseCreated, map[string]interface{}{
		"severity": c.Severity,
	})
}

// pushHospitalBroadcast fans the new case out over push: the shared hospital
// topic plus every device token registered by a hospital with free beds. It
// reports whether any push delivery went through, so the caller can decide on
// the SMS fallback.
func (s *notificationService) pushHospitalBroadcast(ctx context.Context, c *models.Case) bool {
	if s.pushProvider == nil {
		return false
	}

	base := push.NotificationRequest{
		Title: "New emergency case",
		Body:  fmt.Sprintf("%s case near %s", c.Severity, c.Location.Address),
		Data: map[string]string{
			"case_id":  c.ID.Hex(),
			"severity": string(c.Severity),
			"event":    utils.EventCaseCreated,
		},
	}

	delivered := false

	topicReq := base
	topicReq.Topic = utils.CaseBroadcastTopic
	if _, err := s.pushProvider.SendNotification(ctx, &topicReq); err != nil {
		s.logger.WithCaseID(c.ID).WithError(err).Warn("Failed to broadcast case to hospital topic")
	} else {
		delivered = true
	}

	hospitals, err := s.hospitalRepo.GetWithBeds(ctx)
	if err != nil {
		s.logger.WithCaseID(c.ID).WithError(err).Warn("Failed to load hospitals for case broadcast")
		return delivered
	}

	var tokenReqs []*push.NotificationRequest
	for _, h := range hospitals {
		for _, token := range h.PushTokens {
			req := base
			req.Token = token
			tokenReqs = append(tokenReqs, &req)
		}
	}
	if len(tokenReqs) == 0 {
		return delivered
	}

	if _, err := s.pushProvider.SendBulkNotifications(ctx, tokenReqs); err != nil {
		s.logger.WithCaseID(c.ID).WithError(err).Warn("Failed to push case to hospital devices")
	} else {
		delivered = true
	}

	return delivered
}

// smsHospitalContacts is the fallback channel when no push delivery went
// through: every hospital with free beds gets a text on its contact number.
func (s *notificationService) smsHospitalContacts(ctx context.Context, c *models.Case) {
	if s.smsProvider == nil {
		return
	}

	hospitals, err := s.hospitalRepo.GetWithBeds(ctx)
	if err != nil {
		s.logger.WithCaseID(c.ID).WithError(err).Warn("Failed to load hospitals for SMS fallback")
		return
	}

	message := fmt.Sprintf("RapidAid: new %s case %s near %s", c.Severity, c.CaseNumber, c.Location.Address)
	for _, h := range hospitals {
		s.SendSMSAlert(ctx, h.ContactPhone, message)
	}
}

func (s *notificationService) NotifyCaseAccepted(ctx context.Context, c *models.Case) {
	data := caseEventData(c)
	if c.Hospital != nil {
		data["hospital_name"] = c.Hospital.Name
		data["distance_km"] = c.Hospital.DistanceKM
	}

	if s.wsHandler != nil {
		s.wsHandler.SendCaseUpdate(c.ID, utils.EventCaseAccepted, data)
		s.wsHandler.SendAccountNotification(c.CreatedBy, utils.EventCaseAccepted, data)
	}

	s.logger.LogCaseEvent(c.ID, utils.EventCaseAccepted, nil)
}

func (s *notificationService) NotifyCaseDispatched(ctx context.Context, c *models.Case) {
	data := caseEventData(c)
	if c.Ambulance != nil {
		data["driver_name"] = c.Ambulance.DriverName
		data["vehicle_number"] = c.Ambulance.VehicleNumber
		data["eta_text"] = c.Ambulance.ETAText
	}

	if s.wsHandler != nil {
		s.wsHandler.SendCaseUpdate(c.ID, utils.EventCaseDispatched, data)
		s.wsHandler.SendAccountNotification(c.CreatedBy, utils.EventCaseDispatched, data)
	}

	if c.Ambulance != nil {
		s.logger.LogDispatchEvent(c.ID, c.Ambulance.AmbulanceID, utils.EventCaseDispatched, nil)
	}
}

func (s *notificationService) NotifyCaseStatusChanged(ctx context.Context, c *models.Case, event string) {
	data := caseEventData(c)

	if s.wsHandler != nil {
		s.wsHandler.SendCaseUpdate(c.ID, event, data)
		s.wsHandler.SendAccountNotification(c.CreatedBy, event, data)
	}

	s.logger.LogCaseEvent(c.ID, event, map[string]interface{}{
		"status": c.Status,
	})
}

func (s *notificationService) SendSMSAlert(ctx context.Context, phone, message string) {
	if s.smsProvider == nil || phone == "" {
		return
	}

	_, err := s.smsProvider.SendSMS(ctx, &sms.SMSRequest{
		To:      phone,
		Message: message,
		Type:    "alert",
	})
	if err != nil {
		s.logger.WithField("phone", phone).WithError(err).Warn("Failed to send SMS alert")
	}
}

func caseEventData(c *models.Case) map[string]interface{} {
	return map[string]interface{}{
		"case_id":     c.ID.Hex(),
		"case_number": c.CaseNumber,
		"status":      c.Status,
		"severity":    c.Severity,
		"location": map[string]interface{}{
			"latitude":  c.Location.Latitude(),
			"longitude": c.Location.Longitude(),
			"address":   c.Location.Address,
		},
	}
}
