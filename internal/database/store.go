package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fleetline/fleetline-backend/internal/models"
	"github.com/fleetline/fleetline-backend/internal/services"
)

// GormStore implements services.Store on top of the gorm connection. Single
// record updates are issued as one UPDATE statement, so per-row atomicity
// comes from postgres; concurrent writers to the same row are
// last-write-wins.
type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}

func (s *GormStore) GetDriver(ctx context.Context, driverID uint) (*models.Driver, error) {
	var driver models.Driver
	if err := s.db.WithContext(ctx).First(&driver, driverID).Error; err != nil {
		return nil, notFound(err)
	}
	return &driver, nil
}

func (s *GormStore) UpdateDriverStatus(ctx context.Context, driverID uint, status string) error {
	result := s.db.WithContext(ctx).Model(&models.Driver{}).
		Where("id = ?", driverID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (s *GormStore) GetTrip(ctx context.Context, tripID uint) (*models.Trip, error) {
	var trip models.Trip
	if err := s.db.WithContext(ctx).First(&trip, tripID).Error; err != nil {
		return nil, notFound(err)
	}
	return &trip, nil
}

func (s *GormStore) ActiveTripForDriver(ctx context.Context, driverID uint) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.WithContext(ctx).
		Where("driver_id = ? AND status IN ?", driverID,
			[]string{models.TripStatusScheduled, models.TripStatusInProgress}).
		Order("updated_at DESC").
		First(&trip).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &trip, nil
}

func (s *GormStore) UpdateTripStatus(ctx context.Context, tripID uint, status string) error {
	result := s.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ?", tripID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (s *GormStore) GetReservation(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := s.db.WithContext(ctx).First(&reservation, reservationID).Error; err != nil {
		return nil, notFound(err)
	}
	return &reservation, nil
}

func (s *GormStore) CountReservationsByDriver(ctx context.Context, driverID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Joins("JOIN trips ON trips.id = reservations.trip_id").
		Where("trips.driver_id = ? AND trips.deleted_at IS NULL", driverID).
		Count(&count).Error
	return count, err
}

func (s *GormStore) UserExists(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

// liveMessages scopes a query to messages whose expiry mark has not passed.
// A future mark means the message is scheduled for purge but still visible.
func liveMessages(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expires_at IS NULL OR expires_at > ?", now)
	}
}

func (s *GormStore) MessagesForParty(ctx context.Context, reservationID, userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Scopes(liveMessages(time.Now())).
		Where("reservation_id = ? AND (sender_id = ? OR receiver_id = ?)", reservationID, userID, userID).
		Order("timestamp ASC").
		Find(&messages).Error
	return messages, err
}

func (s *GormStore) ExpireReservationMessages(ctx context.Context, reservationID uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Message{}).
		Scopes(liveMessages(at)).
		Where("reservation_id = ?", reservationID).
		Update("expires_at", at).Error
}

func (s *GormStore) ScheduleTripMessageCleanup(ctx context.Context, tripID uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Message{}).
		Where("trip_id = ? AND expires_at IS NULL", tripID).
		Update("expires_at", at).Error
}

func (s *GormStore) ExpiredMessages(ctx context.Context, now time.Time) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Find(&messages).Error
	return messages, err
}

func (s *GormStore) PurgeExpiredMessages(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&models.Message{})
	return result.RowsAffected, result.Error
}
