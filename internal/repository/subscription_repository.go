package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/roomwatch/backend/internal/model"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.VacancySubscription, error) {
	var sub model.VacancySubscription
	query := `SELECT * FROM vacancy_subscriptions WHERE user_id = $1`
	err := r.db.GetContext(ctx, &sub, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, err
}

// Upsert writes the user's single subscription row, keyed on user_id.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *model.VacancySubscription) error {
	query := `
		INSERT INTO vacancy_subscriptions (user_id, target_dates, target_room_types, email_enabled, push_enabled, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			target_dates = EXCLUDED.target_dates,
			target_room_types = EXCLUDED.target_room_types,
			email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		sub.UserID, sub.TargetDates, sub.TargetRoomTypes,
		sub.EmailEnabled, sub.PushEnabled, sub.IsActive,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

// ListActiveWithUsers returns every active subscription joined with its
// owner's contact details, for notification matching.
func (r *SubscriptionRepository) ListActiveWithUsers(ctx context.Context) ([]model.SubscriptionWithUser, error) {
	var subs []model.SubscriptionWithUser
	query := `
		SELECT s.*, u.email
		FROM vacancy_subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE s.is_active = TRUE
		ORDER BY s.id`
	err := r.db.SelectContext(ctx, &subs, query)
	return subs, err
}

// LogNotification appends one delivery-attempt record.
func (r *SubscriptionRepository) LogNotification(ctx context.Context, n *model.VacancyNotification) error {
	query := `
		INSERT INTO vacancy_notifications (user_id, snapshot_id, channel, sent_at, status, error_message)
		VALUES ($1, $2, $3, NOW(), $4, $5)
		RETURNING id, sent_at`

	return r.db.QueryRowxContext(ctx, query,
		n.UserID, n.SnapshotID, n.Channel, n.Status, n.ErrorMessage,
	).Scan(&n.ID, &n.SentAt)
}

// ListNotificationsByUser returns the user's most recent delivery records.
func (r *SubscriptionRepository) ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.VacancyNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []model.VacancyNotification
	query := `
		SELECT * FROM vacancy_notifications
		WHERE user_id = $1
		ORDER BY sent_at DESC
		LIMIT $2`
	err := r.db.SelectContext(ctx, &records, query, userID, limit)
	return records, err
}
