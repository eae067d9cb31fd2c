package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"museum-registry-backend/internal/store"
)

// EventKind names the activity that triggers an owner notification.
type EventKind string

const (
	EventBooking EventKind = "booking"
	EventComment EventKind = "comment"
)

// Event is one unit of work for the pool: something happened to a museum and
// its authority's owner should hear about it.
type Event struct {
	Kind     EventKind
	MuseumID uint
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender implementation using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers delivering owner notifications.
type WorkerPool struct {
	size    int
	jobs    chan Event
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// SetSender swaps the delivery implementation, for tests.
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case event := <-wp.jobs:
			wp.notifyOwner(ctx, event)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an event without blocking the request handler. When the
// buffer is full the event is dropped; these notifications are best-effort.
func (wp *WorkerPool) Dispatch(event Event) {
	select {
	case wp.jobs <- event:
	default:
		log.Printf("notification queue full, dropping %s event for museum %d", event.Kind, event.MuseumID)
	}
}

// notifyOwner resolves the museum's authority owner and pushes to every
// browser that owner registered.
func (wp *WorkerPool) notifyOwner(ctx context.Context, event Event) {
	museum, err := wp.store.GetMuseum(ctx, event.MuseumID)
	if err != nil {
		log.Printf("notification: failed to load museum %d: %v", event.MuseumID, err)
		return
	}

	subs, err := wp.store.SubscriptionsByUser(ctx, museum.Authority.OwnerID)
	if err != nil {
		log.Printf("notification: failed to load subscriptions for user %d: %v", museum.Authority.OwnerID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	var message string
	switch event.Kind {
	case EventBooking:
		message = fmt.Sprintf("New booking for %s", museum.Name)
	case EventComment:
		message = fmt.Sprintf("New comment on %s", museum.Name)
	default:
		return
	}

	log.Printf("sending %d notifications for museum %d", len(subs), event.MuseumID)
	for _, sub := range subs {
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256DH,
				Auth:   sub.Auth,
			},
		}

		resp, err := wp.sender.Send([]byte(message), wpSub, wp.webpush)
		if err != nil {
			log.Printf("notification: error sending to %s: %v", sub.Endpoint, err)
			continue
		}
		resp.Body.Close()

		// Expired subscriptions get cleaned up on the spot.
		if resp.StatusCode == http.StatusGone {
			log.Printf("notification: subscription %s expired, deleting", sub.Endpoint)
			if err := wp.store.DeleteSubscriptionByEndpoint(ctx, sub.Endpoint); err != nil {
				log.Printf("notification: failed to delete expired subscription %s: %v", sub.Endpoint, err)
			}
		}
	}
}
