package websocket

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	hub *Hub
}

func NewHandler() *Handler {
	hub := NewHub()
	go hub.Run()

	return &Handler{
		hub: hub,
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	accountID, exists := c.Get("account_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	role, exists := c.Get("role")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Role not found"})
		return
	}

	accountObjectID, ok := accountID.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
		return
	}

	roleStr, ok := role.(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, accountObjectID, roleStr)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Handler) SendCaseUpdate(caseID primitive.ObjectID, updateType string, data map[string]interface{}) {
	message := Message{
		Type:      updateType,
		RoomID:    "case_" + caseID.Hex(),
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendCaseUpdate(caseID, message)
}

func (h *Handler) SendAccountNotification(accountID primitive.ObjectID, notificationType string, data map[string]interface{}) {
	message := Message{
		Type:      notificationType,
		AccountID: accountID,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendToAccount(accountID, message)
}

func (h *Handler) SendHospitalBroadcast(broadcastType string, data map[string]interface{}) {
	message := Message{
		Type:      broadcastType,
		RoomID:    "hospitals",
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendToHospitals(message)
}

func (h *Handler) SendPoliceBroadcast(broadcastType string, data map[string]interface{}) {
	message := Message{
		Type:      broadcastType,
		RoomID:    "police",
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendToPolice(message)
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}
