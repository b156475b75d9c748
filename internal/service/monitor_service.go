package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/roomwatch/backend/internal/monitor"
)

// MonitorService owns the vacancy check runner: it runs scheduled checks,
// serves manual triggers, and reports run health.
type MonitorService struct {
	runner      *monitor.Runner
	windowDays  int
	timeout     time.Duration
	logger      *slog.Logger
	nextRunTime func() time.Time
}

func NewMonitorService(runner *monitor.Runner, windowDays int, timeout time.Duration, logger *slog.Logger) *MonitorService {
	if windowDays <= 0 {
		windowDays = monitor.DefaultWindowDays
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MonitorService{
		runner:     runner,
		windowDays: windowDays,
		timeout:    timeout,
		logger:     logger,
	}
}

// SetNextRunTimeFunc wires in the scheduler's next-fire lookup for health
// reporting.
func (s *MonitorService) SetNextRunTimeFunc(fn func() time.Time) {
	s.nextRunTime = fn
}

// TriggerRun performs one monitor run over the given window, bounded by the
// configured timeout.
func (s *MonitorService) TriggerRun(ctx context.Context, startOffsetDays, windowDays int) (*monitor.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.runner.Run(ctx, startOffsetDays, windowDays)
}

// RunScheduled is the cron entrypoint: check the configured window starting
// today. Errors are logged, not returned, so a bad run never stops the
// schedule.
func (s *MonitorService) RunScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary, err := s.runner.Run(ctx, 0, s.windowDays)
	if err != nil {
		s.logger.Error("scheduled monitor run failed", slog.String("error", err.Error()))
		return
	}
	if summary.Aborted {
		s.logger.Warn("scheduled monitor run aborted", slog.String("message", summary.Message))
	}
}

// Health reports the outcome of the last run and the next scheduled one.
func (s *MonitorService) Health() monitor.HealthStatus {
	var next time.Time
	if s.nextRunTime != nil {
		next = s.nextRunTime()
	}
	return s.runner.Metrics().GetHealthStatus(next)
}
