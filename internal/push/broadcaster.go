package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"progsite-backend/internal/model"
	"progsite-backend/internal/store"
)

// ErrEmptyMessage is returned when a broadcast has no title or body.
var ErrEmptyMessage = errors.New("broadcast title and body must not be empty")

const defaultBadge = "/icons/badge-72.png"

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Message is one broadcast request from the admin composer.
type Message struct {
	Title              string
	Body               string
	URL                string
	Icon               string
	Tag                string
	RequireInteraction bool
	AdminEmail         string
}

// Result summarizes one completed broadcast.
type Result struct {
	NotificationID int64
	Total          int
	Sent           int
	Errors         int
}

// payload is the JSON document delivered to the service worker.
type payload struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Icon               string `json:"icon,omitempty"`
	Badge              string `json:"badge"`
	URL                string `json:"url,omitempty"`
	Tag                string `json:"tag,omitempty"`
	RequireInteraction bool   `json:"requireInteraction"`
	NotificationID     int64  `json:"notificationId"`
}

// Broadcaster delivers one notification to every active subscription and
// records the per-subscription outcome.
type Broadcaster struct {
	store   store.Store
	sender  Sender
	cfg     VAPIDConfig
	workers int

	// Count of swallowed delivery-log write failures, for the operator log.
	logWriteFailures atomic.Int64
}

// NewBroadcaster creates a broadcaster with the given VAPID configuration and
// fan-out concurrency bound.
func NewBroadcaster(s store.Store, cfg VAPIDConfig, workers int) *Broadcaster {
	if workers <= 0 {
		workers = 1
	}
	return &Broadcaster{
		store:   s,
		sender:  &WebPushSender{},
		cfg:     cfg,
		workers: workers,
	}
}

// SetSender swaps the delivery transport. Used by tests.
func (b *Broadcaster) SetSender(s Sender) {
	b.sender = s
}

// Broadcast sends msg to every active subscription. Partial failure is
// expected and non-fatal; one subscription's failure never aborts delivery to
// the others. The returned Result carries the final per-subscription counts.
func (b *Broadcaster) Broadcast(ctx context.Context, msg Message) (*Result, error) {
	if msg.Title == "" || msg.Body == "" {
		return nil, ErrEmptyMessage
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	subs, err := b.store.ListActiveSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		log.Printf("broadcast %q: no active subscriptions, nothing to send", msg.Title)
		return &Result{}, nil
	}

	notif := &model.Notification{
		Title:              msg.Title,
		Body:               msg.Body,
		URL:                msg.URL,
		Icon:               msg.Icon,
		Tag:                msg.Tag,
		RequireInteraction: msg.RequireInteraction,
		SentCount:          len(subs),
		CreatedBy:          msg.AdminEmail,
	}
	if err := b.store.CreateNotification(ctx, notif); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload{
		Title:              msg.Title,
		Body:               msg.Body,
		Icon:               msg.Icon,
		Badge:              defaultBadge,
		URL:                msg.URL,
		Tag:                msg.Tag,
		RequireInteraction: msg.RequireInteraction,
		NotificationID:     notif.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode push payload: %w", err)
	}

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		failures  atomic.Int64
	)
	sem := make(chan struct{}, b.workers)
	for _, sub := range subs {
		wg.Add(1)
		sem <- struct{}{}
		go func(sub model.Subscription) {
			defer wg.Done()
			defer func() { <-sem }()
			if b.sendOne(ctx, sub, body, notif.ID) {
				successes.Add(1)
			} else {
				failures.Add(1)
			}
		}(sub)
	}
	wg.Wait()

	res := &Result{
		NotificationID: notif.ID,
		Total:          len(subs),
		Sent:           int(successes.Load()),
		Errors:         int(failures.Load()),
	}

	// Aggregate counts are advisory reporting data; a failed update is
	// logged but does not fail the broadcast that already went out.
	if err := b.store.FinalizeNotification(ctx, notif.ID, res.Sent, res.Errors, time.Now()); err != nil {
		log.Printf("broadcast %d: failed to finalize counts: %v", notif.ID, err)
	}

	log.Printf("broadcast %d complete: sent=%d errors=%d total=%d (lifetime log-write failures: %d)",
		notif.ID, res.Sent, res.Errors, res.Total, b.logWriteFailures.Load())
	return res, nil
}

// sendOne attempts delivery to a single subscription and records the outcome.
func (b *Broadcaster) sendOne(ctx context.Context, sub model.Subscription, body []byte, notificationID int64) bool {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := b.sender.Send(body, wpSub, b.cfg.Options())
	if err != nil {
		b.logDelivery(ctx, notificationID, sub.ID, model.DeliveryStatusFailed, err.Error())
		return false
	}
	defer resp.Body.Close()

	// 410 and 404 mean the push service no longer knows the endpoint.
	// Deactivate so the next broadcast skips it; other failures are assumed
	// transient and leave the subscription active.
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		b.logDelivery(ctx, notificationID, sub.ID, model.DeliveryStatusFailed,
			fmt.Sprintf("endpoint gone (status %d)", resp.StatusCode))
		if err := b.store.DeactivateSubscriptionByID(ctx, sub.ID); err != nil {
			log.Printf("failed to deactivate gone subscription %d: %v", sub.ID, err)
		}
		return false
	}

	if resp.StatusCode >= 400 {
		b.logDelivery(ctx, notificationID, sub.ID, model.DeliveryStatusFailed,
			fmt.Sprintf("push service returned status %d", resp.StatusCode))
		return false
	}

	b.logDelivery(ctx, notificationID, sub.ID, model.DeliveryStatusSent, "")
	return true
}

// logDelivery writes one delivery-log row. Logging is best-effort, not
// transactional with delivery: a failed write never changes the send outcome.
func (b *Broadcaster) logDelivery(ctx context.Context, notificationID, subscriptionID int64, status, errMsg string) {
	entry := &model.DeliveryLog{
		NotificationID: notificationID,
		SubscriptionID: subscriptionID,
		Status:         status,
		ErrorMessage:   errMsg,
		SentAt:         time.Now(),
	}
	if err := b.store.LogDelivery(ctx, entry); err != nil {
		b.logWriteFailures.Add(1)
		log.Printf("failed to write delivery log for notification %d subscription %d: %v",
			notificationID, subscriptionID, err)
	}
}
