package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/pkg/datetime"
)

//go:generate mockery --name=UserRepositoryInterface --output=../mocks --outpkg=mocks
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, plan model.SubscriptionPlan) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

//go:generate mockery --name=AvailabilityRepositoryInterface --output=../mocks --outpkg=mocks
type AvailabilityRepositoryInterface interface {
	GetByDates(ctx context.Context, dates []datetime.Date) ([]model.AvailabilitySnapshot, error)
	ListRange(ctx context.Context, from, to datetime.Date) ([]model.AvailabilitySnapshot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilitySnapshot, error)
	Insert(ctx context.Context, snap *model.AvailabilitySnapshot) error
	Upsert(ctx context.Context, snap *model.AvailabilitySnapshot) error
	UpdateAvailability(ctx context.Context, id uuid.UUID, isAvailable bool, price *decimal.Decimal, checkedAt time.Time) error
	TouchChecked(ctx context.Context, id uuid.UUID, price *decimal.Decimal, checkedAt time.Time) error
	MarkUnavailable(ctx context.Context, ids []uuid.UUID, checkedAt time.Time) error
}

//go:generate mockery --name=SubscriptionRepositoryInterface --output=../mocks --outpkg=mocks
type SubscriptionRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.VacancySubscription, error)
	Upsert(ctx context.Context, sub *model.VacancySubscription) error
	ListActiveWithUsers(ctx context.Context) ([]model.SubscriptionWithUser, error)
	LogNotification(ctx context.Context, n *model.VacancyNotification) error
	ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.VacancyNotification, error)
}

//go:generate mockery --name=PushRepositoryInterface --output=../mocks --outpkg=mocks
type PushRepositoryInterface interface {
	CreateSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscriptionsByUserID(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, userID uuid.UUID, endpoint string) error
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}
