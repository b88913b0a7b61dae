package services

import (
	"context"
	"errors"
	"log"

	"github.com/fleetline/fleetline-backend/internal/models"
)

// statusDriverOffline is the one label that targets the driver record
// instead of a trip.
const statusDriverOffline = "driver_offline"

// statusLabels maps the raw labels clients send to canonical statuses.
var statusLabels = map[string]string{
	"in-transit":  models.TripStatusInProgress,
	"arrived":     models.TripStatusCompleted,
	"scheduled":   models.TripStatusScheduled,
	"in_progress": models.TripStatusInProgress,
	"completed":   models.TripStatusCompleted,
	"cancelled":   models.TripStatusCancelled,
	"offline":     statusDriverOffline,
}

// StatusResult reports an applied status change. Channel is nil when the
// change targeted the driver record only (no trip touched, nothing to fan
// out).
type StatusResult struct {
	Channel     *ChannelKey
	TripID      uint
	DriverID    uint
	Status      string
	Destination string
}

// StatusEngine validates and applies status labels against trip and driver
// state.
type StatusEngine struct {
	store Store
	chat  *ChatService
}

func NewStatusEngine(store Store, chat *ChatService) *StatusEngine {
	return &StatusEngine{store: store, chat: chat}
}

// ApplyStatus resolves the driver, maps the raw label, persists the change
// and schedules message cleanup on completion. The caller fans the result
// out; errors are surfaced verbatim to the originating connection and never
// retried.
//
// Transitions are not validated as forward-only: nothing stops re-marking a
// completed trip as scheduled.
func (e *StatusEngine) ApplyStatus(ctx context.Context, rawLabel string, driverID uint, destination string) (*StatusResult, error) {
	driver, err := e.store.GetDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}

	status, ok := statusLabels[rawLabel]
	if !ok {
		return nil, ErrInvalidStatus
	}

	if status == statusDriverOffline {
		if err := e.store.UpdateDriverStatus(ctx, driver.ID, models.DriverStatusOffline); err != nil {
			return nil, err
		}
		log.Printf("Driver %d went offline", driver.ID)
		return &StatusResult{DriverID: driver.ID, Status: models.DriverStatusOffline}, nil
	}

	trip, err := e.store.ActiveTripForDriver(ctx, driver.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoActiveTrip
		}
		return nil, err
	}

	if err := e.store.UpdateTripStatus(ctx, trip.ID, status); err != nil {
		return nil, err
	}

	if status == models.TripStatusCompleted && e.chat != nil {
		e.chat.ScheduleMessageCleanup(ctx, trip.ID)
	}

	if err := CacheTripStatus(ctx, trip.ID, status); err != nil {
		log.Printf("Error caching status for trip %d: %v", trip.ID, err)
	}

	result := &StatusResult{
		TripID:   trip.ID,
		DriverID: driver.ID,
		Status:   status,
	}
	channel := TripChannel(trip.ID)
	result.Channel = &channel
	if status == models.TripStatusCompleted {
		result.Destination = destination
	}
	return result, nil
}
