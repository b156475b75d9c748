package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/pkg/datetime"
)

const (
	// MaxWindowDays caps one run's window regardless of what was requested.
	MaxWindowDays = 30

	// DefaultWindowDays is used when a run does not specify a window.
	DefaultWindowDays = 30

	// MaxLookaheadDays is how far into the future the booking calendar
	// extends. Dates beyond it are skipped, never fetched.
	MaxLookaheadDays = 180

	// MaxConsecutiveFailures aborts the remaining window once this many
	// dates fail back to back. A success resets the counter.
	MaxConsecutiveFailures = 10
)

// VacancySource fetches normalized availability for a single checkin date.
// The rakuten client implements it.
type VacancySource interface {
	FetchDay(ctx context.Context, checkin datetime.Date) ([]model.RoomAvailability, error)
}

// Notifier dispatches alerts for one vacancy transition.
type Notifier interface {
	Dispatch(ctx context.Context, transition model.VacancyTransition) ([]model.VacancyNotification, error)
}

// DateResult is the per-date outcome kept in the run summary.
type DateResult struct {
	Date    string `json:"date"`
	Success bool   `json:"success"`
	Entries int    `json:"entries,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summary reports one complete monitor run.
type Summary struct {
	StartDate         string       `json:"startDate"`
	EndDate           string       `json:"endDate"`
	TotalDates        int          `json:"totalDates"`
	SuccessCount      int          `json:"successCount"`
	FailCount         int          `json:"failCount"`
	SkippedCount      int          `json:"skippedCount"`
	TotalEntries      int          `json:"totalEntries"`
	NewRecords        int          `json:"newRecords"`
	UpdatedRecords    int          `json:"updatedRecords"`
	MarkedUnavailable int          `json:"markedUnavailable"`
	Transitions       int          `json:"transitions"`
	NotificationsSent int          `json:"notificationsSent"`
	Aborted           bool         `json:"aborted"`
	Message           string       `json:"message,omitempty"`
	Duration          string       `json:"duration"`
	Results           []DateResult `json:"results"`
}

// Runner sequentially checks a window of dates, reconciles the combined
// observations in one pass, and dispatches notifications per transition.
// One Runner method call is one run; runs are not concurrent with
// themselves by construction (the scheduler and trigger endpoint both call
// Run synchronously).
type Runner struct {
	source     VacancySource
	reconciler *Reconciler
	notifier   Notifier
	metrics    *MetricsCollector
	retryCfg   RetryConfig
	logger     *slog.Logger
	today      func() datetime.Date
}

func NewRunner(source VacancySource, reconciler *Reconciler, notifier Notifier, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		source:     source,
		reconciler: reconciler,
		notifier:   notifier,
		metrics:    NewMetricsCollector(),
		retryCfg:   DefaultRetryConfig(),
		logger:     logger,
		today:      datetime.TodayJST,
	}
}

// Metrics exposes the runner's collector for health reporting.
func (r *Runner) Metrics() *MetricsCollector {
	return r.metrics
}

// Run checks windowDays dates starting startOffsetDays after today (JST).
// The window is capped at MaxWindowDays; non-positive values fall back to
// DefaultWindowDays. Per-date failures are isolated, but after
// MaxConsecutiveFailures in a row the remaining dates are abandoned and the
// summary marks the run aborted. Reconciliation and notification dispatch
// still proceed over whatever was fetched successfully.
func (r *Runner) Run(ctx context.Context, startOffsetDays, windowDays int) (*Summary, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if windowDays > MaxWindowDays {
		windowDays = MaxWindowDays
	}
	if startOffsetDays < 0 {
		startOffsetDays = 0
	}

	today := r.today()
	windowStart := today.AddDays(startOffsetDays)
	started := time.Now()

	summary := &Summary{
		StartDate:  windowStart.String(),
		EndDate:    windowStart.AddDays(windowDays - 1).String(),
		TotalDates: windowDays,
	}

	r.logger.Info("starting monitor run",
		slog.String("start", summary.StartDate),
		slog.Int("days", windowDays))

	var fresh []model.RoomAvailability
	var fetchedDates []datetime.Date
	consecutiveFailures := 0

	for i := 0; i < windowDays; i++ {
		date := windowStart.AddDays(i)

		select {
		case <-ctx.Done():
			r.metrics.FinishRun()
			return summary, ctx.Err()
		default:
		}

		// The booking calendar only extends so far; do not burn API calls
		// on dates it cannot contain.
		if today.DaysUntil(date) >= MaxLookaheadDays-1 {
			summary.SkippedCount++
			summary.Results = append(summary.Results, DateResult{Date: date.String(), Skipped: true})
			continue
		}

		r.metrics.StartCheck(date.String())

		var records []model.RoomAvailability
		err := WithRetry(ctx, r.retryCfg, r.logger, func() error {
			var fetchErr error
			records, fetchErr = r.source.FetchDay(ctx, date)
			return fetchErr
		})

		if err != nil {
			consecutiveFailures++
			summary.FailCount++
			summary.Results = append(summary.Results, DateResult{Date: date.String(), Error: err.Error()})
			r.metrics.RecordFailure(date.String(), err)
			r.logger.Error("date check failed",
				slog.String("date", date.String()),
				slog.Int("consecutive_failures", consecutiveFailures),
				slog.String("error", err.Error()))

			if consecutiveFailures >= MaxConsecutiveFailures {
				summary.Aborted = true
				summary.Message = fmt.Sprintf("aborted after %d consecutive failures at %s", consecutiveFailures, date)
				r.logger.Error("aborting run", slog.String("reason", summary.Message))
				break
			}
			continue
		}

		consecutiveFailures = 0
		summary.SuccessCount++
		summary.TotalEntries += len(records)
		summary.Results = append(summary.Results, DateResult{Date: date.String(), Success: true, Entries: len(records)})
		r.metrics.RecordSuccess(date.String(), len(records))

		fresh = append(fresh, records...)
		fetchedDates = append(fetchedDates, date)
	}

	r.metrics.FinishRun()

	// Reconcile only over dates actually confirmed by a fetch.
	if len(fetchedDates) > 0 {
		result, err := r.reconciler.Reconcile(ctx, fetchedDates, fresh)
		if err != nil {
			summary.Duration = time.Since(started).String()
			return summary, fmt.Errorf("reconciling snapshots: %w", err)
		}
		summary.NewRecords = result.Created
		summary.UpdatedRecords = result.Updated
		summary.MarkedUnavailable = result.MarkedUnavailable
		summary.Transitions = len(result.Transitions)

		summary.NotificationsSent = r.dispatch(ctx, result.Transitions)
	}

	summary.Duration = time.Since(started).String()
	if summary.Message == "" {
		summary.Message = fmt.Sprintf("checked %d dates: %d ok, %d failed, %d entries",
			windowDays, summary.SuccessCount, summary.FailCount, summary.TotalEntries)
	}

	r.logger.Info("monitor run completed",
		slog.Int("success", summary.SuccessCount),
		slog.Int("failed", summary.FailCount),
		slog.Int("entries", summary.TotalEntries),
		slog.Int("transitions", summary.Transitions),
		slog.Int("notifications", summary.NotificationsSent),
		slog.Bool("aborted", summary.Aborted))

	return summary, nil
}

// dispatch notifies subscribers for each transition. A dispatch failure for
// one transition never blocks the others.
func (r *Runner) dispatch(ctx context.Context, transitions []model.VacancyTransition) int {
	if r.notifier == nil {
		return 0
	}

	sent := 0
	for _, transition := range transitions {
		records, err := r.notifier.Dispatch(ctx, transition)
		if err != nil {
			r.logger.Error("notification dispatch failed",
				slog.String("date", transition.Snapshot.Date.String()),
				slog.String("room_type", transition.Snapshot.RoomType),
				slog.String("error", err.Error()))
			continue
		}
		for _, record := range records {
			if record.Status == model.StatusSuccess {
				sent++
			}
		}
	}
	return sent
}
