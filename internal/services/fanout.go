package services

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// WebSocketMessage is the outbound event envelope
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// TripUpdate is pushed to trip channel subscribers
type TripUpdate struct {
	TripID    uint   `json:"tripId"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// ReservationUpdate is pushed to a driver's reservation-count subscribers
type ReservationUpdate struct {
	DriverID         uint  `json:"driverId"`
	ReservationCount int64 `json:"reservationCount"`
	Timestamp        int64 `json:"timestamp"`
}

// Dispatcher fans events out to channel members. Delivery is at-most-once
// and best-effort per member; a failed send never blocks the others. The
// dispatcher is also the single call site for the webhook relay so trip
// updates cannot be double-sent by multiple callers.
type Dispatcher struct {
	registry *Registry
	relay    *WebhookRelay
}

func NewDispatcher(registry *Registry, relay *WebhookRelay) *Dispatcher {
	return &Dispatcher{registry: registry, relay: relay}
}

// Publish pushes the event to every member of the channel, locally only.
func (d *Dispatcher) Publish(key ChannelKey, event WebSocketMessage) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling %s event for %s: %v", event.Type, key, err)
		return
	}

	for _, client := range d.registry.Members(key) {
		if !client.trySend(data) {
			log.Printf("Warning: Could not send %s to client %d (channel full)", event.Type, client.ID)
		}
	}
}

// PublishTripUpdate fans a trip status change out to local subscribers and
// relays it through the webhook client. Callers forwarding externally
// received events must use Publish instead, or the event would loop back
// into the relay.
func (d *Dispatcher) PublishTripUpdate(ctx context.Context, tripID uint, status string, driverID uint, destination string) {
	d.Publish(TripChannel(tripID), WebSocketMessage{
		Type: "trip_update",
		Data: TripUpdate{
			TripID:    tripID,
			Status:    status,
			Timestamp: time.Now().Unix(),
		},
	})

	if d.relay != nil {
		d.relay.RelayTripUpdate(ctx, tripID, status, driverID, destination)
	}
}

// PublishReservationCount fans a recomputed reservation count out to the
// driver's subscribers.
func (d *Dispatcher) PublishReservationCount(driverID uint, count int64) {
	d.Publish(ReservationsChannel(driverID), WebSocketMessage{
		Type: "reservation_update",
		Data: ReservationUpdate{
			DriverID:         driverID,
			ReservationCount: count,
			Timestamp:        time.Now().Unix(),
		},
	})
}

// PublishChatMessage fans a chat payload (one message or a backlog) out to
// the reservation's chat members.
func (d *Dispatcher) PublishChatMessage(reservationID uint, payload interface{}) {
	d.Publish(ChatChannel(reservationID), WebSocketMessage{
		Type: "chat_message",
		Data: payload,
	})
}
