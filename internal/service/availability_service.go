package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/pkg/datetime"
)

var ErrInvalidDateRange = errors.New("invalid date range")

// maxCalendarRangeDays bounds a single calendar read.
const maxCalendarRangeDays = 366

type AvailabilityRepositoryInterface interface {
	ListRange(ctx context.Context, from, to datetime.Date) ([]model.AvailabilitySnapshot, error)
	Upsert(ctx context.Context, snap *model.AvailabilitySnapshot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilitySnapshot, error)
}

// AvailabilityService serves calendar reads and manual seeding of snapshots.
type AvailabilityService struct {
	repo AvailabilityRepositoryInterface
}

func NewAvailabilityService(repo AvailabilityRepositoryInterface) *AvailabilityService {
	return &AvailabilityService{repo: repo}
}

// ListRange returns snapshots with from <= date <= to. An empty range
// defaults to the next 30 days.
func (s *AvailabilityService) ListRange(ctx context.Context, from, to datetime.Date) ([]model.AvailabilitySnapshot, error) {
	if from.IsZero() {
		from = datetime.TodayJST()
	}
	if to.IsZero() {
		to = from.AddDays(29)
	}
	if to.Before(from.Time) {
		return nil, ErrInvalidDateRange
	}
	if from.DaysUntil(to) >= maxCalendarRangeDays {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidDateRange, maxCalendarRangeDays)
	}
	return s.repo.ListRange(ctx, from, to)
}

type SeedEntry struct {
	Date        datetime.Date    `json:"date"`
	RoomType    string           `json:"roomType"`
	IsAvailable bool             `json:"isAvailable"`
	Price       *decimal.Decimal `json:"price"`
}

// Seed writes snapshots directly, bypassing the monitor. Seeded rows are
// marked separately from monitor observations so a later run can overwrite
// them without notifying.
func (s *AvailabilityService) Seed(ctx context.Context, entries []SeedEntry) ([]model.AvailabilitySnapshot, error) {
	snaps := make([]model.AvailabilitySnapshot, 0, len(entries))
	now := time.Now()
	for _, entry := range entries {
		if entry.Date.IsZero() || entry.RoomType == "" {
			return nil, fmt.Errorf("seed entry needs a date and a room type")
		}
		snap := model.AvailabilitySnapshot{
			Date:          entry.Date,
			RoomType:      entry.RoomType,
			IsAvailable:   entry.IsAvailable,
			Price:         entry.Price,
			LastCheckedAt: now,
			Source:        model.SourceSeed,
		}
		if err := s.repo.Upsert(ctx, &snap); err != nil {
			return nil, fmt.Errorf("seeding %s: %w", snap.Key(), err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
