package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fleetline/fleetline-backend/internal/models"
	"github.com/fleetline/fleetline-backend/internal/services"
)

// GetTripStatus returns the trip's current status, cache first
func GetTripStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripId, err := strconv.ParseUint(c.Param("tripId"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid trip id"})
			return
		}

		ctx := c.Request.Context()
		status, err := services.CachedTripStatus(ctx, uint(tripId))
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Printf("Error reading cached status for trip %d: %v", tripId, err)
			}

			var trip models.Trip
			if err := db.First(&trip, tripId).Error; err != nil {
				c.JSON(404, gin.H{"error": "Trip not found"})
				return
			}
			status = trip.Status

			if err := services.CacheTripStatus(ctx, trip.ID, status); err != nil {
				log.Printf("Error caching status for trip %d: %v", trip.ID, err)
			}
		}

		c.JSON(200, gin.H{
			"tripId": tripId,
			"status": status,
		})
	}
}

// RegisterTripWebhook provisions the external delivery application and
// endpoint for a trip, enabling the webhook relay for its status updates.
func RegisterTripWebhook(db *gorm.DB, relay *services.WebhookRelay) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripId, err := strconv.ParseUint(c.Param("tripId"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid trip id"})
			return
		}

		var input struct {
			URL string `json:"url" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if !relay.Enabled() {
			c.JSON(503, gin.H{"error": "Webhook relay not configured"})
			return
		}

		var trip models.Trip
		if err := db.First(&trip, tripId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Trip not found"})
			return
		}

		sub, err := relay.Provision(c.Request.Context(), &trip, input.URL)
		if err != nil {
			log.Printf("Error provisioning webhook for trip %d: %v", trip.ID, err)
			c.JSON(502, gin.H{"error": "Failed to provision webhook"})
			return
		}

		c.JSON(201, gin.H{
			"tripId":     sub.TripID,
			"appId":      sub.AppID,
			"endpointId": sub.EndpointID,
		})
	}
}
