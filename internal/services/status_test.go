package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/fleetline-backend/internal/models"
)

func newStatusFixture() (*fakeStore, *StatusEngine, *Registry) {
	store := newFakeStore()
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, nil)
	chat := NewChatService(store, registry, dispatcher, nil)
	engine := NewStatusEngine(store, chat)
	return store, engine, registry
}

func seedDriverWithTrip(store *fakeStore, driverID, tripID uint, tripStatus string) {
	store.drivers[driverID] = &models.Driver{Status: models.DriverStatusActive, UserID: driverID + 100}
	store.drivers[driverID].ID = driverID
	trip := &models.Trip{DriverID: driverID, Status: tripStatus, Destination: "Harbor Terminal"}
	trip.ID = tripID
	trip.UpdatedAt = time.Now()
	store.trips[tripID] = trip
}

func TestApplyStatusDriverNotFound(t *testing.T) {
	_, engine, _ := newStatusFixture()

	_, err := engine.ApplyStatus(context.Background(), "in_progress", 99, "")
	assert.ErrorIs(t, err, ErrDriverNotFound)
}

func TestApplyStatusInvalidLabel(t *testing.T) {
	store, engine, _ := newStatusFixture()
	seedDriverWithTrip(store, 1, 10, models.TripStatusScheduled)

	_, err := engine.ApplyStatus(context.Background(), "teleporting", 1, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestApplyStatusNoActiveTrip(t *testing.T) {
	store, engine, _ := newStatusFixture()
	seedDriverWithTrip(store, 1, 10, models.TripStatusCompleted)

	_, err := engine.ApplyStatus(context.Background(), "in_progress", 1, "")
	assert.ErrorIs(t, err, ErrNoActiveTrip)
}

func TestApplyStatusOfflineOnlyTouchesDriver(t *testing.T) {
	store, engine, _ := newStatusFixture()
	seedDriverWithTrip(store, 1, 10, models.TripStatusInProgress)

	result, err := engine.ApplyStatus(context.Background(), "offline", 1, "")
	require.NoError(t, err)

	assert.Nil(t, result.Channel)
	assert.Equal(t, models.DriverStatusOffline, result.Status)
	assert.Equal(t, models.DriverStatusOffline, store.drivers[1].Status)
	assert.Equal(t, models.TripStatusInProgress, store.trips[10].Status)
	assert.Empty(t, store.scheduledCleanups)
}

func TestApplyStatusStartsScheduledTrip(t *testing.T) {
	store, engine, _ := newStatusFixture()
	seedDriverWithTrip(store, 1, 10, models.TripStatusScheduled)

	result, err := engine.ApplyStatus(context.Background(), "in_progress", 1, "")
	require.NoError(t, err)

	require.NotNil(t, result.Channel)
	assert.Equal(t, TripChannel(10), *result.Channel)
	assert.Equal(t, models.TripStatusInProgress, result.Status)
	assert.Equal(t, models.TripStatusInProgress, store.trips[10].Status)
}

func TestApplyStatusLabelTable(t *testing.T) {
	cases := map[string]string{
		"in-transit":  models.TripStatusInProgress,
		"arrived":     models.TripStatusCompleted,
		"scheduled":   models.TripStatusScheduled,
		"in_progress": models.TripStatusInProgress,
		"completed":   models.TripStatusCompleted,
		"cancelled":   models.TripStatusCancelled,
	}

	for label, want := range cases {
		store, engine, _ := newStatusFixture()
		seedDriverWithTrip(store, 1, 10, models.TripStatusInProgress)

		result, err := engine.ApplyStatus(context.Background(), label, 1, "")
		require.NoError(t, err, "label %q", label)
		assert.Equal(t, want, result.Status, "label %q", label)
		assert.Equal(t, want, store.trips[10].Status, "label %q", label)
	}
}

func TestArrivedCompletesTripAndSchedulesCleanup(t *testing.T) {
	store, engine, _ := newStatusFixture()
	seedDriverWithTrip(store, 1, 10, models.TripStatusInProgress)

	reservation := &models.Reservation{TripID: 10, PassengerID: 5}
	reservation.ID = 20
	store.reservations[20] = reservation
	store.messages["m1"] = &models.Message{ID: "m1", ReservationID: 20, TripID: 10, SenderID: 5, ReceiverID: 101, Timestamp: time.Now()}

	result, err := engine.ApplyStatus(context.Background(), "arrived", 1, "Harbor Terminal")
	require.NoError(t, err)

	assert.Equal(t, models.TripStatusCompleted, result.Status)
	assert.Equal(t, "Harbor Terminal", result.Destination)
	assert.Equal(t, []uint{10}, store.scheduledCleanups)

	msg := store.messages["m1"]
	require.NotNil(t, msg.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *msg.ExpiresAt, time.Minute)
}

func TestDestinationOnlyCarriedOnCompletion(t *testing.T) {
	store, engine, _ := newStatusFixture()
	seedDriverWithTrip(store, 1, 10, models.TripStatusScheduled)

	result, err := engine.ApplyStatus(context.Background(), "in_progress", 1, "Harbor Terminal")
	require.NoError(t, err)
	assert.Empty(t, result.Destination)
}

func TestCleanupSchedulingFailureDoesNotFailStatusChange(t *testing.T) {
	store, engine, _ := newStatusFixture()
	seedDriverWithTrip(store, 1, 10, models.TripStatusInProgress)
	store.failScheduleCleanup = true

	result, err := engine.ApplyStatus(context.Background(), "completed", 1, "")
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusCompleted, result.Status)
	assert.Equal(t, []uint{10}, store.scheduledCleanups)
}
