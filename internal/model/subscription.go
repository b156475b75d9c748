package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/roomwatch/backend/pkg/datetime"
)

// VacancySubscription is a user's standing interest in vacancy openings.
// Empty target lists mean "match everything" on that axis.
type VacancySubscription struct {
	ID              int64          `db:"id" json:"id"`
	UserID          uuid.UUID      `db:"user_id" json:"userId"`
	TargetDates     pq.StringArray `db:"target_dates" json:"targetDates"`
	TargetRoomTypes pq.StringArray `db:"target_room_types" json:"targetRoomTypes"`
	EmailEnabled    bool           `db:"email_enabled" json:"emailEnabled"`
	PushEnabled     bool           `db:"push_enabled" json:"pushEnabled"`
	IsActive        bool           `db:"is_active" json:"isActive"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// Matches reports whether a transition for the given date and room type
// falls inside this subscription's targets.
func (s VacancySubscription) Matches(date datetime.Date, roomType string) bool {
	if len(s.TargetDates) > 0 && !contains(s.TargetDates, date.String()) {
		return false
	}
	if len(s.TargetRoomTypes) > 0 && !contains(s.TargetRoomTypes, roomType) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// SubscriptionWithUser joins a subscription to its owner's contact details
// for dispatching.
type SubscriptionWithUser struct {
	VacancySubscription
	Email string `db:"email" json:"email"`
}

// NotificationChannel is the delivery mechanism for a vacancy alert.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelPush  NotificationChannel = "push"
)

// NotificationStatus is the recorded outcome of one delivery attempt.
type NotificationStatus string

const (
	StatusSuccess NotificationStatus = "success"
	StatusFailed  NotificationStatus = "failed"
)

// VacancyNotification is the append-only audit record of one delivery
// attempt for one user over one channel.
type VacancyNotification struct {
	ID           int64               `db:"id" json:"id"`
	UserID       uuid.UUID           `db:"user_id" json:"userId"`
	SnapshotID   uuid.UUID           `db:"snapshot_id" json:"snapshotId"`
	Channel      NotificationChannel `db:"channel" json:"channel"`
	SentAt       time.Time           `db:"sent_at" json:"sentAt"`
	Status       NotificationStatus  `db:"status" json:"status"`
	ErrorMessage *string             `db:"error_message" json:"errorMessage,omitempty"`
}
