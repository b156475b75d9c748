package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/roomwatch/backend/internal/model"
)

type PushRepository struct {
	db *sqlx.DB
}

func NewPushRepository(db *sqlx.DB) *PushRepository {
	return &PushRepository{db: db}
}

func (r *PushRepository) CreateSubscription(ctx context.Context, sub *model.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, endpoint) DO UPDATE SET
			p256dh = EXCLUDED.p256dh,
			auth = EXCLUDED.auth,
			user_agent = EXCLUDED.user_agent,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	return r.db.QueryRowxContext(ctx, query,
		sub.ID, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, sub.UserAgent,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

func (r *PushRepository) GetSubscriptionsByUserID(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	query := `SELECT * FROM push_subscriptions WHERE user_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &subs, query, userID)
	return subs, err
}

func (r *PushRepository) DeleteSubscription(ctx context.Context, userID uuid.UUID, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2`
	_, err := r.db.ExecContext(ctx, query, userID, endpoint)
	return err
}

// DeleteSubscriptionByEndpoint removes a credential the push service
// reported as gone (404/410 from the push provider).
func (r *PushRepository) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE endpoint = $1`
	_, err := r.db.ExecContext(ctx, query, endpoint)
	return err
}
