package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/fleetline/fleetline-backend/internal/models"
)

// TripSubscription is the process-local record of a trip's webhook
// provisioning. It lives for the process lifetime; there is no teardown on
// trip completion.
type TripSubscription struct {
	TripID          uint
	LastKnownStatus string
	AppID           string
	EndpointID      string
}

// TripUpdatePayload is the event shape crossing the webhook boundary, in
// both directions.
type TripUpdatePayload struct {
	TripID      uint   `json:"tripId"`
	Status      string `json:"status"`
	DriverID    uint   `json:"driverId"`
	Message     string `json:"message"`
	Destination string `json:"destination,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// WebhookRelay delivers trip-status events to the external delivery service,
// one application per trip, and verifies its signed callbacks. When no auth
// token is configured the relay is disabled and every call is a no-op.
type WebhookRelay struct {
	client   *svix.Svix
	verifier *svix.Webhook

	mutex sync.RWMutex
	subs  map[uint]*TripSubscription
}

// NewWebhookRelay builds the relay from the environment. Returns a disabled
// relay (not an error) when SVIX_AUTH_TOKEN is unset so local setups work
// without the external service.
func NewWebhookRelay() (*WebhookRelay, error) {
	relay := &WebhookRelay{subs: make(map[uint]*TripSubscription)}

	if secret := os.Getenv("SVIX_ENDPOINT_SECRET"); secret != "" {
		verifier, err := svix.NewWebhook(secret)
		if err != nil {
			return nil, fmt.Errorf("invalid SVIX_ENDPOINT_SECRET: %v", err)
		}
		relay.verifier = verifier
	}

	token := os.Getenv("SVIX_AUTH_TOKEN")
	if token == "" {
		log.Println("Warning: SVIX_AUTH_TOKEN not set. Webhook relay disabled.")
		return relay, nil
	}

	opts := &svix.SvixOptions{}
	if serverURL := os.Getenv("SVIX_SERVER_URL"); serverURL != "" {
		parsed, err := url.Parse(serverURL)
		if err != nil {
			return nil, fmt.Errorf("invalid SVIX_SERVER_URL: %v", err)
		}
		opts.ServerUrl = parsed
	}
	relay.client = svix.New(token, opts)

	return relay, nil
}

// Enabled reports whether outbound relay is configured.
func (r *WebhookRelay) Enabled() bool {
	return r != nil && r.client != nil
}

// Provision creates the delivery application and endpoint for a trip and
// caches the subscription. Idempotent per trip for the process lifetime.
func (r *WebhookRelay) Provision(ctx context.Context, trip *models.Trip, endpointURL string) (*TripSubscription, error) {
	if !r.Enabled() {
		return nil, fmt.Errorf("webhook relay not configured")
	}

	r.mutex.RLock()
	sub, ok := r.subs[trip.ID]
	r.mutex.RUnlock()
	if ok {
		return sub, nil
	}

	app, err := r.client.Application.Create(ctx, &svix.ApplicationIn{
		Name: fmt.Sprintf("trip-%d", trip.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %v", err)
	}

	endpoint, err := r.client.Endpoint.Create(ctx, app.Id, &svix.EndpointIn{
		Url: endpointURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create endpoint: %v", err)
	}

	sub = &TripSubscription{
		TripID:          trip.ID,
		LastKnownStatus: trip.Status,
		AppID:           app.Id,
		EndpointID:      endpoint.Id,
	}

	r.mutex.Lock()
	r.subs[trip.ID] = sub
	r.mutex.Unlock()

	log.Printf("Provisioned webhook subscription for trip %d (app %s)", trip.ID, sub.AppID)
	return sub, nil
}

// Subscription returns the cached subscription for a trip, if any.
func (r *WebhookRelay) Subscription(tripID uint) (*TripSubscription, bool) {
	if r == nil {
		return nil, false
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	sub, ok := r.subs[tripID]
	return sub, ok
}

// RelayTripUpdate sends the trip event through the delivery service if a
// subscription exists for the trip. Failures are logged, never propagated;
// local fanout does not depend on the external relay.
func (r *WebhookRelay) RelayTripUpdate(ctx context.Context, tripID uint, status string, driverID uint, destination string) {
	sub, ok := r.Subscription(tripID)
	if !ok || !r.Enabled() {
		return
	}

	r.mutex.Lock()
	sub.LastKnownStatus = status
	r.mutex.Unlock()

	payload := map[string]interface{}{
		"tripId":    tripID,
		"status":    status,
		"driverId":  driverID,
		"message":   fmt.Sprintf("Trip %d is now %s", tripID, status),
		"timestamp": time.Now().Unix(),
	}
	if destination != "" {
		payload["destination"] = destination
	}

	_, err := r.client.Message.Create(ctx, sub.AppID, &svix.MessageIn{
		EventType: "trip_update",
		Payload:   payload,
	})
	if err != nil {
		log.Printf("Webhook relay error for trip %d: %v", tripID, err)
	}
}

// VerifyCallback checks the signature on an inbound callback. Verification
// is mandatory; without a configured secret every callback is rejected.
func (r *WebhookRelay) VerifyCallback(headers http.Header, body []byte) error {
	if r == nil || r.verifier == nil {
		return fmt.Errorf("callback verification not configured")
	}
	return r.verifier.Verify(body, headers)
}
