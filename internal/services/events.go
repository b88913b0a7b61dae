package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fleetline/fleetline-backend/internal/models"
)

// inboundMessage is the inbound event envelope; Data stays raw until the
// event type picks its payload shape.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type tripPayload struct {
	TripID uint `json:"tripId"`
}

type driverPayload struct {
	DriverID uint `json:"driverId"`
}

type chatPayload struct {
	ReservationID uint `json:"reservationId"`
	UserID        uint `json:"userId"`
}

type chatMessagePayload struct {
	ID            string    `json:"id"`
	ReservationID uint      `json:"reservationId"`
	TripID        uint      `json:"tripId"`
	SenderID      uint      `json:"senderId"`
	ReceiverID    uint      `json:"receiverId"`
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
}

type statusUpdatePayload struct {
	Status      string `json:"status"`
	DriverID    uint   `json:"driverId"`
	Destination string `json:"destination"`
}

// handleEvent dispatches one inbound client event
func (c *Client) handleEvent(raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid message format")
		return
	}

	switch msg.Type {
	case "subscribe_trip":
		c.handleSubscribeTrip(msg.Data)
	case "unsubscribe_trip":
		c.handleUnsubscribeTrip(msg.Data)
	case "subscribe_reservations":
		c.handleSubscribeReservations(msg.Data)
	case "unsubscribe_reservations":
		c.handleUnsubscribeReservations(msg.Data)
	case "subscribe_chat":
		c.handleSubscribeChat(msg.Data)
	case "unsubscribe_chat":
		c.handleUnsubscribeChat(msg.Data)
	case "send_chat_message":
		c.handleSendChatMessage(msg.Data)
	case "status_update":
		c.handleStatusUpdate(msg.Data)
	default:
		log.Printf("Unknown event type %q from client %d", msg.Type, c.ID)
	}
}

func (c *Client) handleSubscribeTrip(data json.RawMessage) {
	var p tripPayload
	if err := json.Unmarshal(data, &p); err != nil || p.TripID == 0 {
		c.sendError("tripId is required")
		return
	}

	ctx := context.Background()
	status, err := c.currentTripStatus(ctx, p.TripID)
	if err != nil {
		c.sendError(errorMessage(err))
		return
	}

	c.hub.registry.Join(TripChannel(p.TripID), c)
	c.sendEvent("trip_update", TripUpdate{
		TripID:    p.TripID,
		Status:    status,
		Timestamp: time.Now().Unix(),
	})
}

// currentTripStatus reads the trip's status through the cache
func (c *Client) currentTripStatus(ctx context.Context, tripID uint) (string, error) {
	status, err := CachedTripStatus(ctx, tripID)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, redis.Nil) {
		log.Printf("Error reading cached status for trip %d: %v", tripID, err)
	}

	trip, err := c.hub.store.GetTrip(ctx, tripID)
	if err != nil {
		return "", err
	}
	if err := CacheTripStatus(ctx, tripID, trip.Status); err != nil {
		log.Printf("Error caching status for trip %d: %v", tripID, err)
	}
	return trip.Status, nil
}

func (c *Client) handleUnsubscribeTrip(data json.RawMessage) {
	var p tripPayload
	if err := json.Unmarshal(data, &p); err != nil || p.TripID == 0 {
		c.sendError("tripId is required")
		return
	}
	c.hub.registry.Leave(TripChannel(p.TripID), c)
}

func (c *Client) handleSubscribeReservations(data json.RawMessage) {
	var p driverPayload
	if err := json.Unmarshal(data, &p); err != nil || p.DriverID == 0 {
		c.sendError("driverId is required")
		return
	}

	ctx := context.Background()
	if _, err := c.hub.store.GetDriver(ctx, p.DriverID); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.sendError("Driver not found")
		} else {
			c.sendError(errorMessage(err))
		}
		return
	}

	count, err := CachedReservationCount(ctx, p.DriverID)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Error reading cached count for driver %d: %v", p.DriverID, err)
		}
		count, err = c.hub.store.CountReservationsByDriver(ctx, p.DriverID)
		if err != nil {
			c.sendError(errorMessage(err))
			return
		}
		if err := CacheReservationCount(ctx, p.DriverID, count); err != nil {
			log.Printf("Error caching count for driver %d: %v", p.DriverID, err)
		}
	}

	c.hub.registry.Join(ReservationsChannel(p.DriverID), c)
	c.sendEvent("reservation_update", ReservationUpdate{
		DriverID:         p.DriverID,
		ReservationCount: count,
		Timestamp:        time.Now().Unix(),
	})
}

func (c *Client) handleUnsubscribeReservations(data json.RawMessage) {
	var p driverPayload
	if err := json.Unmarshal(data, &p); err != nil || p.DriverID == 0 {
		c.sendError("driverId is required")
		return
	}
	c.hub.registry.Leave(ReservationsChannel(p.DriverID), c)
}

func (c *Client) handleSubscribeChat(data json.RawMessage) {
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReservationID == 0 {
		c.sendError("reservationId is required")
		return
	}

	userID := p.UserID
	if userID == 0 {
		userID = c.ID
	}

	messages, err := c.hub.chat.Subscribe(context.Background(), p.ReservationID, userID, c)
	if err != nil {
		c.sendError(errorMessage(err))
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	c.sendEvent("chat_message", messages)
}

func (c *Client) handleUnsubscribeChat(data json.RawMessage) {
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReservationID == 0 {
		c.sendError("reservationId is required")
		return
	}
	c.hub.registry.Leave(ChatChannel(p.ReservationID), c)
}

func (c *Client) handleSendChatMessage(data json.RawMessage) {
	var p chatMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.sendError("Invalid chat message payload")
		return
	}
	if p.ReservationID == 0 || p.SenderID == 0 || p.ReceiverID == 0 || p.Content == "" {
		c.sendError("reservationId, senderId, receiverId and content are required")
		return
	}

	msg := &models.Message{
		ID:            p.ID,
		ReservationID: p.ReservationID,
		TripID:        p.TripID,
		SenderID:      p.SenderID,
		ReceiverID:    p.ReceiverID,
		Content:       p.Content,
		Timestamp:     p.Timestamp,
	}

	if err := c.hub.chat.Send(context.Background(), msg); err != nil {
		c.sendError(errorMessage(err))
		return
	}
}

func (c *Client) handleStatusUpdate(data json.RawMessage) {
	var p statusUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.sendError("Invalid status update payload")
		return
	}
	if p.Status == "" || p.DriverID == 0 {
		c.sendError("status and driverId are required")
		return
	}

	ctx := context.Background()
	result, err := c.hub.engine.ApplyStatus(ctx, p.Status, p.DriverID, p.Destination)
	if err != nil {
		c.sendError(errorMessage(err))
		return
	}

	if result.Channel != nil {
		c.hub.dispatcher.PublishTripUpdate(ctx, result.TripID, result.Status, result.DriverID, result.Destination)
	}

	c.sendEvent("success", statusUpdatePayload{
		Status:      result.Status,
		DriverID:    result.DriverID,
		Destination: result.Destination,
	})
}

// sendEvent queues an event for this client only
func (c *Client) sendEvent(eventType string, payload interface{}) {
	data, err := json.Marshal(WebSocketMessage{Type: eventType, Data: payload})
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}
	if !c.trySend(data) {
		log.Printf("Warning: Could not send %s to client %d (channel full)", eventType, c.ID)
	}
}

func (c *Client) sendError(message string) {
	c.sendEvent("error", map[string]string{"message": message})
}

// errorMessage maps relay errors to the human-readable text pushed to the
// originating connection.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, ErrDriverNotFound):
		return "Driver not found"
	case errors.Is(err, ErrInvalidStatus):
		return "Invalid status"
	case errors.Is(err, ErrNoActiveTrip):
		return "No active trip for driver"
	case errors.Is(err, ErrUnauthorized):
		return "Not authorized for this chat"
	case errors.Is(err, ErrChatExpired):
		return "Chat has expired"
	case errors.Is(err, ErrPartyNotFound):
		return "Sender or receiver not found"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	default:
		return "Internal error"
	}
}
