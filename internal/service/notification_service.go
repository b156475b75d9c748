// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roomwatch/backend/internal/mailer"
	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/pkg/currency"
)

type SubscriptionRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.VacancySubscription, error)
	Upsert(ctx context.Context, sub *model.VacancySubscription) error
	ListActiveWithUsers(ctx context.Context) ([]model.SubscriptionWithUser, error)
	LogNotification(ctx context.Context, n *model.VacancyNotification) error
	ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.VacancyNotification, error)
}

// PushSender is the slice of PushNotificationService the dispatcher needs.
type PushSender interface {
	IsConfigured() bool
	SendToUser(ctx context.Context, userID uuid.UUID, payload *NotificationPayload) error
}

// NotificationService fans a vacancy transition out to every matching
// subscriber over their enabled channels, and records one delivery-attempt
// row per channel.
type NotificationService struct {
	subRepo     SubscriptionRepositoryInterface
	emailSender mailer.Sender
	pushSender  PushSender
	frontendURL string
	logger      *slog.Logger
}

func NewNotificationService(
	subRepo SubscriptionRepositoryInterface,
	emailSender mailer.Sender,
	pushSender PushSender,
	frontendURL string,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		subRepo:     subRepo,
		emailSender: emailSender,
		pushSender:  pushSender,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// GetSubscription returns the user's watch settings.
func (s *NotificationService) GetSubscription(ctx context.Context, userID uuid.UUID) (*model.VacancySubscription, error) {
	return s.subRepo.GetByUserID(ctx, userID)
}

// UpdateSubscription replaces the user's watch settings.
func (s *NotificationService) UpdateSubscription(ctx context.Context, userID uuid.UUID, input *model.VacancySubscription) (*model.VacancySubscription, error) {
	input.UserID = userID
	if err := s.subRepo.Upsert(ctx, input); err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	return input, nil
}

// GetHistory returns the user's most recent delivery records.
func (s *NotificationService) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.VacancyNotification, error) {
	return s.subRepo.ListNotificationsByUser(ctx, userID, limit)
}

// Dispatch notifies every active matching subscriber about one room that
// became available. Channel failures are isolated per subscriber and per
// channel; every attempt is recorded regardless of outcome.
func (s *NotificationService) Dispatch(ctx context.Context, transition model.VacancyTransition) ([]model.VacancyNotification, error) {
	subscriptions, err := s.subRepo.ListActiveWithUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	snap := transition.Snapshot
	var records []model.VacancyNotification

	for _, sub := range subscriptions {
		if !sub.Matches(snap.Date, snap.RoomType) {
			continue
		}

		if sub.EmailEnabled && s.emailSender != nil {
			err := s.emailSender.Send(ctx, sub.Email, s.emailSubject(snap), s.emailBody(snap))
			records = append(records, s.logAttempt(ctx, sub.UserID, snap.ID, model.ChannelEmail, err))
		}

		if sub.PushEnabled && s.pushSender != nil && s.pushSender.IsConfigured() {
			err := s.pushSender.SendToUser(ctx, sub.UserID, s.pushPayload(snap))
			if errors.Is(err, ErrNoSubscriptions) {
				// The user enabled push but never registered a device.
				continue
			}
			records = append(records, s.logAttempt(ctx, sub.UserID, snap.ID, model.ChannelPush, err))
		}
	}

	return records, nil
}

func (s *NotificationService) logAttempt(ctx context.Context, userID, snapshotID uuid.UUID, channel model.NotificationChannel, sendErr error) model.VacancyNotification {
	record := model.VacancyNotification{
		UserID:     userID,
		SnapshotID: snapshotID,
		Channel:    channel,
		Status:     model.StatusSuccess,
	}
	if sendErr != nil {
		record.Status = model.StatusFailed
		msg := sendErr.Error()
		record.ErrorMessage = &msg
		s.logger.Error("notification delivery failed",
			slog.String("channel", string(channel)),
			slog.String("user_id", userID.String()),
			slog.String("error", msg))
	}

	if err := s.subRepo.LogNotification(ctx, &record); err != nil {
		s.logger.Error("failed to record notification attempt",
			slog.String("channel", string(channel)),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
	}
	return record
}

func (s *NotificationService) emailSubject(snap model.AvailabilitySnapshot) string {
	return fmt.Sprintf("🏨 空室が見つかりました: %s (%s)", snap.RoomType, snap.Date.String())
}

func (s *NotificationService) emailBody(snap model.AvailabilitySnapshot) string {
	priceLine := "料金: 未確認"
	if snap.Price != nil {
		priceLine = "料金: " + currency.Yen(*snap.Price).Format()
	}

	return fmt.Sprintf(`
<p>ご希望のお部屋に空室が出ました。</p>

<ul>
  <li>宿泊日: %s</li>
  <li>客室: %s</li>
  <li>%s</li>
</ul>

<p><a href="%s">空室カレンダーを開く</a></p>

<p>人気のお部屋はすぐに埋まります。お早めにご予約ください。</p>
`,
		snap.Date.String(),
		snap.RoomType,
		priceLine,
		s.frontendURL,
	)
}

func (s *NotificationService) pushPayload(snap model.AvailabilitySnapshot) *NotificationPayload {
	body := snap.Date.String()
	if snap.Price != nil {
		body += " " + currency.Yen(*snap.Price).Format()
	}
	return &NotificationPayload{
		Title: "空室: " + snap.RoomType,
		Body:  body,
		Icon:  "/icon-192.png",
		Badge: "/badge-72.png",
		Tag:   "vacancy-" + snap.Key(),
		Data: map[string]interface{}{
			"type": "vacancy_alert",
			"date": snap.Date.String(),
			"url":  "/calendar",
		},
	}
}
