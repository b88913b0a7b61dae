package handlers

import (
	"encoding/json"
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/fleetline/fleetline-backend/internal/services"
)

type webhookEnvelope struct {
	EventType string                     `json:"eventType"`
	Payload   services.TripUpdatePayload `json:"payload"`
}

// TripCallback receives signed callbacks from the external delivery service
// and forwards verified trip events to local subscribers. The publish is
// local-only so a callback can never loop back into the relay.
func TripCallback(relay *services.WebhookRelay, dispatcher *services.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(400, gin.H{"error": "Failed to read body"})
			return
		}

		if err := relay.VerifyCallback(c.Request.Header, body); err != nil {
			log.Printf("Rejected webhook callback: %v", err)
			c.JSON(401, gin.H{"error": "Invalid signature"})
			return
		}

		var envelope webhookEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.JSON(400, gin.H{"error": "Invalid payload"})
			return
		}

		if envelope.EventType != "trip_update" || envelope.Payload.TripID == 0 {
			c.JSON(400, gin.H{"error": "Unsupported event"})
			return
		}

		dispatcher.Publish(services.TripChannel(envelope.Payload.TripID), services.WebSocketMessage{
			Type: "trip_update",
			Data: services.TripUpdate{
				TripID:    envelope.Payload.TripID,
				Status:    envelope.Payload.Status,
				Timestamp: envelope.Payload.Timestamp,
			},
		})

		c.Status(204)
	}
}
