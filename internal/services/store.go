package services

import (
	"context"
	"time"

	"github.com/fleetline/fleetline-backend/internal/models"
)

// Store is the narrow persistence gateway the relay depends on. The gorm
// implementation lives in internal/database; tests substitute fakes.
// Implementations translate their missing-record error into ErrNotFound and
// provide per-row atomicity for single-record updates.
type Store interface {
	GetDriver(ctx context.Context, driverID uint) (*models.Driver, error)
	UpdateDriverStatus(ctx context.Context, driverID uint, status string) error

	GetTrip(ctx context.Context, tripID uint) (*models.Trip, error)
	// ActiveTripForDriver resolves the driver's single live trip (scheduled
	// or in progress); most recently touched wins if data drifted into
	// having several.
	ActiveTripForDriver(ctx context.Context, driverID uint) (*models.Trip, error)
	UpdateTripStatus(ctx context.Context, tripID uint, status string) error

	GetReservation(ctx context.Context, reservationID uint) (*models.Reservation, error)
	CountReservationsByDriver(ctx context.Context, driverID uint) (int64, error)

	UserExists(ctx context.Context, userID uint) (bool, error)

	CreateMessage(ctx context.Context, msg *models.Message) error
	// MessagesForParty returns live messages of the reservation where the
	// user is sender or receiver, timestamp ascending.
	MessagesForParty(ctx context.Context, reservationID, userID uint) ([]models.Message, error)
	// ExpireReservationMessages marks every live message of the reservation
	// as deleted at the given instant.
	ExpireReservationMessages(ctx context.Context, reservationID uint, at time.Time) error
	// ScheduleTripMessageCleanup marks every live message of the trip for
	// deletion at the given instant.
	ScheduleTripMessageCleanup(ctx context.Context, tripID uint, at time.Time) error
	// ExpiredMessages returns messages whose mark is at or before now.
	ExpiredMessages(ctx context.Context, now time.Time) ([]models.Message, error)
	// PurgeExpiredMessages physically deletes messages whose mark is at or
	// before now and reports how many rows went away.
	PurgeExpiredMessages(ctx context.Context, now time.Time) (int64, error)
}
