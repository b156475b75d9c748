// Package scheduler provides cron-based scheduling for the vacancy monitor.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the scheduled unit of work. MonitorService implements it with
// RunScheduled.
type Job interface {
	RunScheduled()
}

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a cron expression for when to run the monitor (e.g., "0 * * * *" for hourly)
	Schedule string
	// Enabled determines if the scheduler should run
	Enabled bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "0 * * * *", // Every hour at minute 0
		Enabled:  true,
	}
}

// Scheduler manages the recurring vacancy check
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	config  Config
	logger  *slog.Logger
	entryID cron.EntryID
}

// New creates a new Scheduler instance
func New(cfg Config, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		job:    job,
		config: cfg,
		logger: logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	// Convert standard cron (5 fields) to cron with seconds (6 fields)
	// Add "0" at the beginning for seconds
	schedule := "0 " + s.config.Schedule

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runJob()
	})
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("schedule", s.config.Schedule),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate monitor run (useful for manual triggers)
func (s *Scheduler) RunNow() {
	go s.runJob()
}

func (s *Scheduler) runJob() {
	startTime := time.Now()
	s.logger.Info("Starting scheduled vacancy check",
		slog.Time("start_time", startTime),
	)

	s.job.RunScheduled()

	s.logger.Info("Scheduled vacancy check finished",
		slog.Duration("duration", time.Since(startTime)),
	)
}

// GetNextRunTime returns the next scheduled run time
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRunTime returns the last run time
func (s *Scheduler) GetLastRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Prev
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
