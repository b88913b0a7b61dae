package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fleetline/fleetline-backend/internal/models"
)

// fakeStore is an in-memory Store for exercising the relay without postgres.
type fakeStore struct {
	mu           sync.Mutex
	drivers      map[uint]*models.Driver
	trips        map[uint]*models.Trip
	reservations map[uint]*models.Reservation
	users        map[uint]bool
	messages     map[string]*models.Message

	failScheduleCleanup bool
	scheduledCleanups   []uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drivers:      make(map[uint]*models.Driver),
		trips:        make(map[uint]*models.Trip),
		reservations: make(map[uint]*models.Reservation),
		users:        make(map[uint]bool),
		messages:     make(map[string]*models.Message),
	}
}

func (s *fakeStore) GetDriver(ctx context.Context, driverID uint) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	driver, ok := s.drivers[driverID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *driver
	return &copied, nil
}

func (s *fakeStore) UpdateDriverStatus(ctx context.Context, driverID uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	driver, ok := s.drivers[driverID]
	if !ok {
		return ErrNotFound
	}
	driver.Status = status
	return nil
}

func (s *fakeStore) GetTrip(ctx context.Context, tripID uint) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.trips[tripID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *trip
	return &copied, nil
}

func (s *fakeStore) ActiveTripForDriver(ctx context.Context, driverID uint) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active *models.Trip
	for _, trip := range s.trips {
		if trip.DriverID != driverID {
			continue
		}
		if trip.Status != models.TripStatusScheduled && trip.Status != models.TripStatusInProgress {
			continue
		}
		if active == nil || trip.UpdatedAt.After(active.UpdatedAt) {
			active = trip
		}
	}
	if active == nil {
		return nil, ErrNotFound
	}
	copied := *active
	return &copied, nil
}

func (s *fakeStore) UpdateTripStatus(ctx context.Context, tripID uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.trips[tripID]
	if !ok {
		return ErrNotFound
	}
	trip.Status = status
	trip.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) GetReservation(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservation, ok := s.reservations[reservationID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *reservation
	return &copied, nil
}

func (s *fakeStore) CountReservationsByDriver(ctx context.Context, driverID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, reservation := range s.reservations {
		trip, ok := s.trips[reservation.TripID]
		if ok && trip.DriverID == driverID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) UserExists(ctx context.Context, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], nil
}

func (s *fakeStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *msg
	s.messages[msg.ID] = &copied
	return nil
}

func (s *fakeStore) MessagesForParty(ctx context.Context, reservationID, userID uint) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var out []models.Message
	for _, msg := range s.messages {
		if msg.ReservationID != reservationID {
			continue
		}
		if msg.SenderID != userID && msg.ReceiverID != userID {
			continue
		}
		if msg.ExpiresAt != nil && !msg.ExpiresAt.After(now) {
			continue
		}
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *fakeStore) ExpireReservationMessages(ctx context.Context, reservationID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.ReservationID != reservationID {
			continue
		}
		if msg.ExpiresAt != nil && !msg.ExpiresAt.After(at) {
			continue
		}
		expires := at
		msg.ExpiresAt = &expires
	}
	return nil
}

func (s *fakeStore) ScheduleTripMessageCleanup(ctx context.Context, tripID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduledCleanups = append(s.scheduledCleanups, tripID)
	if s.failScheduleCleanup {
		return errors.New("cleanup scheduling failed")
	}
	for _, msg := range s.messages {
		if msg.TripID == tripID && msg.ExpiresAt == nil {
			expires := at
			msg.ExpiresAt = &expires
		}
	}
	return nil
}

func (s *fakeStore) ExpiredMessages(ctx context.Context, now time.Time) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, msg := range s.messages {
		if msg.ExpiresAt != nil && !msg.ExpiresAt.After(now) {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (s *fakeStore) PurgeExpiredMessages(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for id, msg := range s.messages {
		if msg.ExpiresAt != nil && !msg.ExpiresAt.After(now) {
			delete(s.messages, id)
			purged++
		}
	}
	return purged, nil
}

// newTestClient builds a client with a buffered send queue and no transport.
func newTestClient(id uint) *Client {
	return &Client{
		ID:       id,
		UserType: string(models.UserTypePassenger),
		Send:     make(chan []byte, sendBufferSize),
	}
}
