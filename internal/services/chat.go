package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fleetline/fleetline-backend/internal/models"
)

// chatRetention is how long a reservation's chat stays readable after its
// trip completes.
const chatRetention = 24 * time.Hour

// SweepInterval is how often the background sweep purges marked messages.
const SweepInterval = time.Hour

// ChatService authorizes chat membership, persists messages and enforces the
// post-completion retention window.
type ChatService struct {
	store      Store
	registry   *Registry
	dispatcher *Dispatcher
	archive    *MessageArchive
}

func NewChatService(store Store, registry *Registry, dispatcher *Dispatcher, archive *MessageArchive) *ChatService {
	return &ChatService{
		store:      store,
		registry:   registry,
		dispatcher: dispatcher,
		archive:    archive,
	}
}

// loadChat resolves a reservation and its trip; either missing is ErrNotFound.
func (s *ChatService) loadChat(ctx context.Context, reservationID uint) (*models.Reservation, *models.Trip, error) {
	reservation, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	trip, err := s.store.GetTrip(ctx, reservation.TripID)
	if err != nil {
		return nil, nil, err
	}
	return reservation, trip, nil
}

// chatExpired reports whether the retention window has closed: trip
// completed more than 24 hours ago, measured from its last update.
func chatExpired(trip *models.Trip, now time.Time) bool {
	return trip.Status == models.TripStatusCompleted && now.Sub(trip.UpdatedAt) > chatRetention
}

// Subscribe authorizes the user for the reservation's chat, joins the
// channel and returns the visible backlog, oldest first. Past the retention
// window the reservation's messages are soft-deleted and ErrChatExpired is
// returned without joining.
func (s *ChatService) Subscribe(ctx context.Context, reservationID, userID uint, client *Client) ([]models.Message, error) {
	reservation, trip, err := s.loadChat(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, reservation, trip, userID); err != nil {
		return nil, err
	}

	if chatExpired(trip, time.Now()) {
		if err := s.store.ExpireReservationMessages(ctx, reservationID, time.Now()); err != nil {
			log.Printf("Error expiring messages for reservation %d: %v", reservationID, err)
		}
		return nil, ErrChatExpired
	}

	s.registry.Join(ChatChannel(reservationID), client)
	return s.store.MessagesForParty(ctx, reservationID, userID)
}

// authorize admits the reservation's passenger and the owning user of the
// trip's assigned driver; everyone else is rejected.
func (s *ChatService) authorize(ctx context.Context, reservation *models.Reservation, trip *models.Trip, userID uint) error {
	if reservation.PassengerID == userID {
		return nil
	}
	driver, err := s.store.GetDriver(ctx, trip.DriverID)
	if err == nil && driver.UserID == userID {
		return nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return ErrUnauthorized
}

// Send re-validates the reservation, trip and retention window (a connection
// can outlive its trip's completion), checks both parties exist, persists
// the message and fans it out to the chat channel.
func (s *ChatService) Send(ctx context.Context, msg *models.Message) error {
	_, trip, err := s.loadChat(ctx, msg.ReservationID)
	if err != nil {
		return err
	}

	if chatExpired(trip, time.Now()) {
		return ErrChatExpired
	}

	for _, partyID := range []uint{msg.SenderID, msg.ReceiverID} {
		exists, err := s.store.UserExists(ctx, partyID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrPartyNotFound
		}
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.TripID = trip.ID

	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return err
	}

	s.dispatcher.PublishChatMessage(msg.ReservationID, msg)
	return nil
}

// ScheduleMessageCleanup marks every live message of the trip's reservations
// for deletion 24 hours out. Best-effort: the status change that triggered
// it already succeeded, so failures are logged and swallowed.
func (s *ChatService) ScheduleMessageCleanup(ctx context.Context, tripID uint) {
	deleteAt := time.Now().Add(chatRetention)
	if err := s.store.ScheduleTripMessageCleanup(ctx, tripID, deleteAt); err != nil {
		log.Printf("Error scheduling message cleanup for trip %d: %v", tripID, err)
	}
}

// StartSweeper runs the periodic purge until the context is cancelled.
func (s *ChatService) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep physically deletes messages whose mark has passed, archiving the
// batch first when an archive sink is configured. The sweep never marks rows
// itself, so it is safe to run alongside cleanup scheduling.
func (s *ChatService) Sweep(ctx context.Context) {
	now := time.Now()

	if s.archive.Enabled() {
		expired, err := s.store.ExpiredMessages(ctx, now)
		if err != nil {
			log.Printf("Error listing expired messages: %v", err)
		} else if len(expired) > 0 {
			if err := s.archive.ArchiveMessages(ctx, expired); err != nil {
				log.Printf("Error archiving expired messages: %v", err)
			}
		}
	}

	purged, err := s.store.PurgeExpiredMessages(ctx, now)
	if err != nil {
		log.Printf("Error purging expired messages: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Purged %d expired chat messages", purged)
	}
}
