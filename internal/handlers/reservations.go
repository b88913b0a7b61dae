package handlers

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fleetline/fleetline-backend/internal/models"
	"github.com/fleetline/fleetline-backend/internal/services"
)

// CreateReservation books a seat on a trip. Creation and the fully-booked
// flag are one transaction; the reservation-count fanout is an explicit,
// best-effort step afterwards (a derived recount, not a maintained counter).
func CreateReservation(db *gorm.DB, dispatcher *services.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		var input struct {
			TripID uint `json:"tripId" binding:"required"`
			Seats  int  `json:"seats"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if input.Seats <= 0 {
			input.Seats = 1
		}

		var trip models.Trip
		if err := db.First(&trip, input.TripID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Trip not found"})
			return
		}

		if trip.FullyBooked {
			c.JSON(409, gin.H{"error": "Trip is fully booked"})
			return
		}

		reservation := models.Reservation{
			TripID:      input.TripID,
			PassengerID: userId,
			Seats:       input.Seats,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&reservation).Error; err != nil {
				return err
			}

			var booked int64
			if err := tx.Model(&models.Reservation{}).
				Where("trip_id = ?", trip.ID).
				Select("COALESCE(SUM(seats), 0)").
				Scan(&booked).Error; err != nil {
				return err
			}

			if trip.Seats > 0 && booked >= int64(trip.Seats) {
				if err := tx.Model(&models.Trip{}).
					Where("id = ?", trip.ID).
					Update("fully_booked", true).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to create reservation"})
			return
		}

		publishReservationCount(c.Request.Context(), db, dispatcher, trip.DriverID)

		c.JSON(201, reservation)
	}
}

// publishReservationCount recomputes the driver's reservation count and fans
// it out. Failures here never fail the reservation that triggered them.
func publishReservationCount(ctx context.Context, db *gorm.DB, dispatcher *services.Dispatcher, driverID uint) {
	var count int64
	err := db.WithContext(ctx).Model(&models.Reservation{}).
		Joins("JOIN trips ON trips.id = reservations.trip_id").
		Where("trips.driver_id = ? AND trips.deleted_at IS NULL", driverID).
		Count(&count).Error
	if err != nil {
		log.Printf("Error recounting reservations for driver %d: %v", driverID, err)
		return
	}

	if err := services.CacheReservationCount(ctx, driverID, count); err != nil {
		log.Printf("Error caching count for driver %d: %v", driverID, err)
	}

	dispatcher.PublishReservationCount(driverID, count)
}
