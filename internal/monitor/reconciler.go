// Package monitor drives vacancy checks: it fetches fresh availability for a
// window of dates, reconciles it against stored snapshots, and hands
// unavailable-to-available transitions to the notification dispatcher.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/pkg/datetime"
)

// SnapshotStore is the persistence surface the reconciler needs. The
// repository package provides the Postgres implementation.
type SnapshotStore interface {
	GetByDates(ctx context.Context, dates []datetime.Date) ([]model.AvailabilitySnapshot, error)
	// Upsert is keyed on (date, room_type) so two overlapping runs racing
	// the same new key resolve to an update instead of a unique violation.
	Upsert(ctx context.Context, snap *model.AvailabilitySnapshot) error
	UpdateAvailability(ctx context.Context, id uuid.UUID, isAvailable bool, price *decimal.Decimal, checkedAt time.Time) error
	TouchChecked(ctx context.Context, id uuid.UUID, price *decimal.Decimal, checkedAt time.Time) error
	MarkUnavailable(ctx context.Context, ids []uuid.UUID, checkedAt time.Time) error
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Created           int
	Updated           int
	Touched           int
	MarkedUnavailable int
	SkippedWrites     int
	Transitions       []model.VacancyTransition
}

// Reconciler merges one run's fresh observations into stored snapshots and
// detects rooms becoming bookable. It writes only what changed: new rows for
// unseen (date, room type) pairs, availability flips, and last-checked
// touches for unchanged rows.
type Reconciler struct {
	store  SnapshotStore
	logger *slog.Logger
	now    func() time.Time
}

func NewReconciler(store SnapshotStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger, now: time.Now}
}

// Reconcile applies fresh observations against the snapshots stored for the
// given dates. Only dates that were actually fetched belong in dates: rooms
// currently marked available are flipped to unavailable when absent from
// fresh, and that confirmed-absence rule must not fire for dates whose fetch
// failed. Individual row write failures are logged and skipped; they never
// abort the pass. Reconcile is idempotent: re-running with the same inputs
// produces no further transitions.
func (r *Reconciler) Reconcile(ctx context.Context, dates []datetime.Date, fresh []model.RoomAvailability) (*ReconcileResult, error) {
	existing, err := r.store.GetByDates(ctx, dates)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*model.AvailabilitySnapshot, len(existing))
	for i := range existing {
		byKey[existing[i].Key()] = &existing[i]
	}

	result := &ReconcileResult{}
	seen := make(map[string]bool, len(fresh))
	checkedAt := r.now()

	for _, record := range fresh {
		key := record.Key()
		seen[key] = true

		current, known := byKey[key]
		switch {
		case !known:
			snap := model.AvailabilitySnapshot{
				ID:            uuid.New(),
				Date:          record.Date,
				RoomType:      record.RoomType,
				IsAvailable:   record.IsAvailable,
				Price:         record.Price,
				LastCheckedAt: checkedAt,
				Source:        model.SourceRakuten,
			}
			if err := r.store.Upsert(ctx, &snap); err != nil {
				r.skipWrite(result, key, "upsert", err)
				continue
			}
			result.Created++
			if snap.IsAvailable {
				result.Transitions = append(result.Transitions, model.VacancyTransition{Snapshot: snap, IsNew: true})
			}

		case current.IsAvailable != record.IsAvailable:
			if err := r.store.UpdateAvailability(ctx, current.ID, record.IsAvailable, record.Price, checkedAt); err != nil {
				r.skipWrite(result, key, "update", err)
				continue
			}
			result.Updated++
			// Only the unavailable-to-available direction is a transition.
			if !current.IsAvailable && record.IsAvailable {
				updated := *current
				updated.IsAvailable = true
				updated.Price = record.Price
				updated.LastCheckedAt = checkedAt
				result.Transitions = append(result.Transitions, model.VacancyTransition{Snapshot: updated})
			}

		default:
			// State unchanged; refresh price and the check timestamp.
			if err := r.store.TouchChecked(ctx, current.ID, record.Price, checkedAt); err != nil {
				r.skipWrite(result, key, "touch", err)
				continue
			}
			result.Touched++
		}
	}

	// Disappearance pass: anything still marked available that this run did
	// not observe is no longer bookable.
	var vanished []uuid.UUID
	for key, snap := range byKey {
		if snap.IsAvailable && !seen[key] {
			vanished = append(vanished, snap.ID)
		}
	}
	if len(vanished) > 0 {
		if err := r.store.MarkUnavailable(ctx, vanished, checkedAt); err != nil {
			r.logger.Error("failed to mark vanished rooms unavailable",
				slog.Int("count", len(vanished)),
				slog.String("error", err.Error()))
			result.SkippedWrites += len(vanished)
		} else {
			result.MarkedUnavailable = len(vanished)
		}
	}

	return result, nil
}

func (r *Reconciler) skipWrite(result *ReconcileResult, key, op string, err error) {
	result.SkippedWrites++
	r.logger.Error("snapshot write failed, skipping record",
		slog.String("key", key),
		slog.String("op", op),
		slog.String("error", err.Error()))
}
