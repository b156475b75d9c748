package service

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomwatch/backend/internal/config"
	"github.com/roomwatch/backend/internal/model"
)

type fakePushRepo struct {
	subs    []model.PushSubscription
	deleted []string
}

func (f *fakePushRepo) CreateSubscription(ctx context.Context, sub *model.PushSubscription) error {
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakePushRepo) GetSubscriptionsByUserID(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error) {
	return f.subs, nil
}

func (f *fakePushRepo) DeleteSubscription(ctx context.Context, userID uuid.UUID, endpoint string) error {
	f.deleted = append(f.deleted, endpoint)
	return nil
}

func (f *fakePushRepo) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	f.deleted = append(f.deleted, endpoint)
	return nil
}

// browserKeys makes a keypair the way a real browser would hand one over:
// an uncompressed P-256 point plus a 16-byte auth secret, base64url.
func browserKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	p256dh = base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes())

	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	auth = base64.RawURLEncoding.EncodeToString(secret)
	return p256dh, auth
}

func newPushService(t *testing.T, repo *fakePushRepo) *PushNotificationService {
	t.Helper()

	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	return NewPushNotificationService(repo, &config.Config{
		VAPIDPublicKey:  pub,
		VAPIDPrivateKey: priv,
		VAPIDSubject:    "mailto:ops@roomwatch.app",
	})
}

func pushEndpoint(t *testing.T, status int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func registeredDevice(t *testing.T, userID uuid.UUID, status int) model.PushSubscription {
	t.Helper()
	p256dh, auth := browserKeys(t)
	return model.PushSubscription{
		ID:       uuid.New(),
		UserID:   userID,
		Endpoint: pushEndpoint(t, status),
		P256dh:   p256dh,
		Auth:     auth,
	}
}

func TestPushNotificationService_SendToUser(t *testing.T) {
	t.Parallel()

	payload := &NotificationPayload{Title: "空室が出ました", Body: "2026-10-01 スーペリアルーム"}

	t.Run("delivers when the endpoint accepts", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		repo := &fakePushRepo{subs: []model.PushSubscription{registeredDevice(t, userID, http.StatusCreated)}}
		svc := newPushService(t, repo)

		err := svc.SendToUser(context.Background(), userID, payload)

		assert.NoError(t, err)
		assert.Empty(t, repo.deleted)
	})

	t.Run("expired endpoint is pruned and reported", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		device := registeredDevice(t, userID, http.StatusGone)
		repo := &fakePushRepo{subs: []model.PushSubscription{device}}
		svc := newPushService(t, repo)

		err := svc.SendToUser(context.Background(), userID, payload)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 410")
		assert.Equal(t, []string{device.Endpoint}, repo.deleted)
	})

	t.Run("rejection on every device surfaces as an error", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		repo := &fakePushRepo{subs: []model.PushSubscription{registeredDevice(t, userID, http.StatusForbidden)}}
		svc := newPushService(t, repo)

		err := svc.SendToUser(context.Background(), userID, payload)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 403")
		assert.Empty(t, repo.deleted, "a rejected endpoint is kept for retry")
	})

	t.Run("one working device suppresses the error", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		repo := &fakePushRepo{subs: []model.PushSubscription{
			registeredDevice(t, userID, http.StatusInternalServerError),
			registeredDevice(t, userID, http.StatusCreated),
		}}
		svc := newPushService(t, repo)

		err := svc.SendToUser(context.Background(), userID, payload)

		assert.NoError(t, err)
	})

	t.Run("no registered devices", func(t *testing.T) {
		t.Parallel()

		svc := newPushService(t, &fakePushRepo{})

		err := svc.SendToUser(context.Background(), uuid.New(), payload)

		assert.ErrorIs(t, err, ErrNoSubscriptions)
	})

	t.Run("missing VAPID keys", func(t *testing.T) {
		t.Parallel()

		svc := NewPushNotificationService(&fakePushRepo{}, &config.Config{})

		err := svc.SendToUser(context.Background(), uuid.New(), payload)

		assert.ErrorIs(t, err, ErrVAPIDNotConfigured)
	})
}
