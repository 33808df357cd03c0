package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/rezervo-app/rezervo-backend/internal/metrics"
	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
)

// ErrSubscriptionGone signals the push provider reported the endpoint dead.
// It is an internal cleanup trigger, never a user-facing error.
var ErrSubscriptionGone = errors.New("push subscription gone")

// PushTarget is one endpoint to deliver to.
type PushTarget struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// PushResult aggregates a fan-out: per-endpoint outcomes are settled in
// isolation, then summed.
type PushResult struct {
	Sent            int
	Failed          int
	Total           int
	NoSubscriptions bool
}

// RealtimeEmitter is the emit-only sink for in-app live updates.
type RealtimeEmitter interface {
	Emit(channel, event string, data interface{})
}

// webPusher delivers one payload to one endpoint. The production
// implementation speaks the Web Push protocol with VAPID keys; tests swap
// in a fake.
type webPusher interface {
	Send(target PushTarget, payload []byte) error
}

type vapidPusher struct {
	publicKey  string
	privateKey string
	subscriber string
	httpClient *http.Client
}

func (p *vapidPusher) Send(target PushTarget, payload []byte) error {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			P256dh: target.P256dh,
			Auth:   target.Auth,
		},
	}, &webpush.Options{
		Subscriber:      p.subscriber,
		VAPIDPublicKey:  p.publicKey,
		VAPIDPrivateKey: p.privateKey,
		TTL:             3600,
		HTTPClient:      p.httpClient,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// PushService fans notifications out to every registered subscription of a
// business or user, reclaims dead endpoints, and persists the single
// in-app notification record per logical event.
type PushService struct {
	store    storage.Store
	pusher   webPusher
	realtime RealtimeEmitter
	metrics  *metrics.Metrics
}

// NewPushService creates a push service with VAPID keys from the environment.
func NewPushService(store storage.Store, rt RealtimeEmitter, m *metrics.Metrics) (*PushService, error) {
	publicKey := os.Getenv("VAPID_PUBLIC_KEY")
	privateKey := os.Getenv("VAPID_PRIVATE_KEY")
	subscriber := os.Getenv("VAPID_SUBSCRIBER")
	if publicKey == "" || privateKey == "" {
		return nil, fmt.Errorf("missing VAPID keys in environment variables")
	}
	if subscriber == "" {
		subscriber = "mailto:push@rezervo.app"
	}

	return &PushService{
		store: store,
		pusher: &vapidPusher{
			publicKey:  publicKey,
			privateKey: privateKey,
			subscriber: subscriber,
			httpClient: &http.Client{Timeout: 10 * time.Second},
		},
		realtime: rt,
		metrics:  m,
	}, nil
}

type pushPayload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// SendToBusiness notifies every device registered by a business dashboard,
// then writes one notification record for the owner and emits one realtime
// event on the business channel.
func (p *PushService) SendToBusiness(businessID, title, body, notifType string, data map[string]interface{}) (PushResult, error) {
	business, err := p.store.GetBusiness(businessID)
	if err != nil {
		return PushResult{}, fmt.Errorf("resolve business %s: %w", businessID, err)
	}

	subs, err := p.store.GetBusinessSubscriptions(businessID)
	if err != nil {
		return PushResult{}, fmt.Errorf("load subscriptions for business %s: %w", businessID, err)
	}

	targets := make([]PushTarget, len(subs))
	for i, s := range subs {
		targets[i] = PushTarget{Endpoint: s.Endpoint, P256dh: s.P256dh, Auth: s.Auth}
	}

	result, gone := p.fanOut(targets, title, body, data)
	if err := p.store.DeleteBusinessSubscriptions(gone); err != nil {
		log.Printf("Failed to prune %d dead business subscriptions: %v", len(gone), err)
	}

	p.record(business.OwnerUserID, body, notifType)
	p.emit("business:"+businessID, notifType, title, body, data)
	return result, nil
}

// SendToUser is the customer-scoped variant of SendToBusiness.
func (p *PushService) SendToUser(userID, title, body, notifType string, data map[string]interface{}) (PushResult, error) {
	subs, err := p.store.GetUserSubscriptions(userID)
	if err != nil {
		return PushResult{}, fmt.Errorf("load subscriptions for user %s: %w", userID, err)
	}

	targets := make([]PushTarget, len(subs))
	for i, s := range subs {
		targets[i] = PushTarget{Endpoint: s.Endpoint, P256dh: s.P256dh, Auth: s.Auth}
	}

	result, gone := p.fanOut(targets, title, body, data)
	if err := p.store.DeleteUserSubscriptions(gone); err != nil {
		log.Printf("Failed to prune %d dead user subscriptions: %v", len(gone), err)
	}

	p.record(userID, body, notifType)
	p.emit("user:"+userID, notifType, title, body, data)
	return result, nil
}

// fanOut delivers the payload to every target concurrently. One endpoint's
// failure never cancels or delays its siblings; gone endpoints are only
// collected here and deleted by the caller after all sends settle.
func (p *PushService) fanOut(targets []PushTarget, title, body string, data map[string]interface{}) (PushResult, []string) {
	result := PushResult{Total: len(targets)}
	if len(targets) == 0 {
		result.NoSubscriptions = true
		return result, nil
	}

	payload, err := json.Marshal(pushPayload{Title: title, Body: body, Data: data})
	if err != nil {
		result.Failed = len(targets)
		return result, nil
	}

	type outcome struct {
		endpoint string
		err      error
	}
	outcomes := make([]outcome, len(targets))

	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t PushTarget) {
			defer wg.Done()
			outcomes[i] = outcome{endpoint: t.Endpoint, err: p.pusher.Send(t, payload)}
		}(i, t)
	}
	wg.Wait()

	var gone []string
	for _, o := range outcomes {
		switch {
		case o.err == nil:
			result.Sent++
			p.countPush("sent")
		case errors.Is(o.err, ErrSubscriptionGone):
			result.Failed++
			gone = append(gone, o.endpoint)
			p.countPush("gone")
		default:
			result.Failed++
			p.countPush("failed")
			log.Printf("Push delivery to %s failed: %v", o.endpoint, o.err)
		}
	}
	return result, gone
}

func (p *PushService) record(userID, message, notifType string) {
	if p.metrics != nil {
		p.metrics.Notifications.WithLabelValues(notifType).Inc()
	}
	n := &models.Notification{UserID: userID, Message: message, Type: notifType}
	if err := p.store.CreateNotification(n); err != nil {
		log.Printf("Failed to persist notification record for %s: %v", userID, err)
	}
}

func (p *PushService) emit(channel, notifType, title, body string, data map[string]interface{}) {
	if p.realtime == nil {
		return
	}
	p.realtime.Emit(channel, "notification", map[string]interface{}{
		"type":  notifType,
		"title": title,
		"body":  body,
		"data":  data,
	})
}

func (p *PushService) countPush(status string) {
	if p.metrics != nil {
		p.metrics.PushSends.WithLabelValues(status).Inc()
	}
}
