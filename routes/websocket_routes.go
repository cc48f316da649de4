package routes

import (
	"rapidaid/internal/middleware"
	"rapidaid/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// SetupWebSocketRoutes sets up the live tracking socket endpoint
func SetupWebSocketRoutes(r *gin.RouterGroup, wsHandler *websocket.Handler, jwtSecret string) {
	r.GET("/ws", middleware.AuthRequired(jwtSecret), wsHandler.HandleWebSocket)
}
