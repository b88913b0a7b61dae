package handlers

import (
	"github.com/fleetline/fleetline-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler handles WebSocket connections
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		userType := c.GetString("userType")

		hub.ServeWS(c.Writer, c.Request, userID, userType)
	}
}
