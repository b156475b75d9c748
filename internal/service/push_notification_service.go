package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"github.com/roomwatch/backend/internal/config"
	"github.com/roomwatch/backend/internal/model"
)

var (
	ErrVAPIDNotConfigured = errors.New("VAPID keys not configured")
	ErrNoSubscriptions    = errors.New("no push subscriptions found")
)

type PushRepositoryInterface interface {
	CreateSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscriptionsByUserID(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, userID uuid.UUID, endpoint string) error
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// PushNotificationService delivers vacancy alerts over Web Push. It is
// inert unless VAPID keys are present in the environment; callers check
// IsConfigured before offering the push channel.
type PushNotificationService struct {
	repo   PushRepositoryInterface
	config *config.Config
}

func NewPushNotificationService(repo PushRepositoryInterface, cfg *config.Config) *PushNotificationService {
	return &PushNotificationService{repo: repo, config: cfg}
}

func (s *PushNotificationService) IsConfigured() bool {
	return s.config.VAPIDPublicKey != "" && s.config.VAPIDPrivateKey != ""
}

// GetVAPIDPublicKey returns the key browsers need to create a subscription.
func (s *PushNotificationService) GetVAPIDPublicKey() (string, error) {
	if !s.IsConfigured() {
		return "", ErrVAPIDNotConfigured
	}
	return s.config.VAPIDPublicKey, nil
}

// Subscribe registers a browser endpoint for the user. Registering the
// same endpoint twice refreshes its keys rather than failing.
func (s *PushNotificationService) Subscribe(ctx context.Context, userID uuid.UUID, endpoint, p256dh, auth string, userAgent *string) (*model.PushSubscription, error) {
	if !s.IsConfigured() {
		return nil, ErrVAPIDNotConfigured
	}

	sub := &model.PushSubscription{
		ID:       uuid.New(),
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	}
	if userAgent != nil {
		sub.UserAgent = *userAgent
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *PushNotificationService) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	return s.repo.DeleteSubscription(ctx, userID, endpoint)
}

// NotificationPayload is the JSON body the service worker receives.
type NotificationPayload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Icon  string                 `json:"icon,omitempty"`
	Badge string                 `json:"badge,omitempty"`
	Tag   string                 `json:"tag,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// SendToUser pushes the payload to every device the user has registered.
// A dead endpoint (404/410 from the push service) is pruned on the spot;
// other per-device failures are skipped so one stale browser cannot block
// an opening alert to the rest.
func (s *PushNotificationService) SendToUser(ctx context.Context, userID uuid.UUID, payload *NotificationPayload) error {
	if !s.IsConfigured() {
		return ErrVAPIDNotConfigured
	}

	subs, err := s.repo.GetSubscriptionsByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return ErrNoSubscriptions
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	opts := &webpush.Options{
		Subscriber:      s.config.VAPIDSubject,
		VAPIDPublicKey:  s.config.VAPIDPublicKey,
		VAPIDPrivateKey: s.config.VAPIDPrivateKey,
		TTL:             86400,
	}

	var delivered int
	var lastErr error
	for _, sub := range subs {
		resp, err := webpush.SendNotification(body, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}, opts)
		if err != nil {
			lastErr = err
			continue
		}
		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			_ = s.repo.DeleteSubscriptionByEndpoint(ctx, sub.Endpoint)
			lastErr = fmt.Errorf("push endpoint expired: status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			lastErr = fmt.Errorf("push service rejected payload: status %d", resp.StatusCode)
		default:
			delivered++
		}
		_ = resp.Body.Close()
	}

	// One working device is a delivered alert; only a total miss is an error.
	if delivered == 0 {
		return fmt.Errorf("push delivery failed for all %d devices: %w", len(subs), lastErr)
	}
	return nil
}
