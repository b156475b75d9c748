package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/pkg/datetime"
)

type AvailabilityRepository struct {
	db *sqlx.DB
}

func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// GetByDates loads every snapshot whose date is in the given set.
func (r *AvailabilityRepository) GetByDates(ctx context.Context, dates []datetime.Date) ([]model.AvailabilitySnapshot, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	values := make([]string, len(dates))
	for i, d := range dates {
		values[i] = d.String()
	}

	var snaps []model.AvailabilitySnapshot
	query := `
		SELECT * FROM availability_snapshots
		WHERE date = ANY($1)
		ORDER BY date, room_type`
	err := r.db.SelectContext(ctx, &snaps, query, pq.Array(values))
	return snaps, err
}

// ListRange returns snapshots with from <= date <= to, for calendar reads.
func (r *AvailabilityRepository) ListRange(ctx context.Context, from, to datetime.Date) ([]model.AvailabilitySnapshot, error) {
	var snaps []model.AvailabilitySnapshot
	query := `
		SELECT * FROM availability_snapshots
		WHERE date >= $1 AND date <= $2
		ORDER BY date, room_type`
	err := r.db.SelectContext(ctx, &snaps, query, from, to)
	return snaps, err
}

func (r *AvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilitySnapshot, error) {
	var snap model.AvailabilitySnapshot
	query := `SELECT * FROM availability_snapshots WHERE id = $1`
	if err := r.db.GetContext(ctx, &snap, query, id); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *AvailabilityRepository) Insert(ctx context.Context, snap *model.AvailabilitySnapshot) error {
	query := `
		INSERT INTO availability_snapshots (id, date, room_type, is_available, price, last_checked_at, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at`

	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	return r.db.QueryRowxContext(ctx, query,
		snap.ID, snap.Date, snap.RoomType, snap.IsAvailable, snap.Price, snap.LastCheckedAt, snap.Source,
	).Scan(&snap.CreatedAt, &snap.UpdatedAt)
}

// Upsert writes a snapshot keyed on (date, room_type), used by seeding.
func (r *AvailabilityRepository) Upsert(ctx context.Context, snap *model.AvailabilitySnapshot) error {
	query := `
		INSERT INTO availability_snapshots (id, date, room_type, is_available, price, last_checked_at, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (date, room_type) DO UPDATE SET
			is_available = EXCLUDED.is_available,
			price = EXCLUDED.price,
			last_checked_at = EXCLUDED.last_checked_at,
			source = EXCLUDED.source,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	return r.db.QueryRowxContext(ctx, query,
		snap.ID, snap.Date, snap.RoomType, snap.IsAvailable, snap.Price, snap.LastCheckedAt, snap.Source,
	).Scan(&snap.ID, &snap.CreatedAt, &snap.UpdatedAt)
}

func (r *AvailabilityRepository) UpdateAvailability(ctx context.Context, id uuid.UUID, isAvailable bool, price *decimal.Decimal, checkedAt time.Time) error {
	query := `
		UPDATE availability_snapshots
		SET is_available = $2, price = $3, last_checked_at = $4, updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, isAvailable, price, checkedAt)
	return err
}

// TouchChecked refreshes the check timestamp and the price without changing
// availability.
func (r *AvailabilityRepository) TouchChecked(ctx context.Context, id uuid.UUID, price *decimal.Decimal, checkedAt time.Time) error {
	query := `
		UPDATE availability_snapshots
		SET price = COALESCE($2, price), last_checked_at = $3, updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, price, checkedAt)
	return err
}

// MarkUnavailable flips the given snapshots to unavailable in one statement.
func (r *AvailabilityRepository) MarkUnavailable(ctx context.Context, ids []uuid.UUID, checkedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE availability_snapshots
		SET is_available = FALSE, last_checked_at = $2, updated_at = NOW()
		WHERE id = ANY($1)`
	_, err := r.db.ExecContext(ctx, query, pq.Array(ids), checkedAt)
	return err
}
