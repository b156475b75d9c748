package monitor

import (
	"sync"
	"time"
)

// CheckMetrics holds metrics for checking a single date.
type CheckMetrics struct {
	Date         string
	StartedAt    time.Time
	CompletedAt  time.Time
	Entries      int
	Success      bool
	ErrorMessage string
	Duration     time.Duration
}

// MetricsCollector collects and aggregates per-date check metrics.
type MetricsCollector struct {
	mu             sync.RWMutex
	currentRun     map[string]*CheckMetrics
	lastRun        map[string]*CheckMetrics
	totalRuns      int
	successfulRuns int
	failedRuns     int
	lastRunTime    time.Time
}

// NewMetricsCollector creates a new MetricsCollector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		currentRun: make(map[string]*CheckMetrics),
		lastRun:    make(map[string]*CheckMetrics),
	}
}

// StartCheck records the start of a check for one date.
func (mc *MetricsCollector) StartCheck(date string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.currentRun[date] = &CheckMetrics{
		Date:      date,
		StartedAt: time.Now(),
	}
}

// RecordSuccess records a successful date check.
func (mc *MetricsCollector) RecordSuccess(date string, entries int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if metrics, ok := mc.currentRun[date]; ok {
		metrics.CompletedAt = time.Now()
		metrics.Duration = metrics.CompletedAt.Sub(metrics.StartedAt)
		metrics.Entries = entries
		metrics.Success = true
	}
}

// RecordFailure records a failed date check.
func (mc *MetricsCollector) RecordFailure(date string, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if metrics, ok := mc.currentRun[date]; ok {
		metrics.CompletedAt = time.Now()
		metrics.Duration = metrics.CompletedAt.Sub(metrics.StartedAt)
		metrics.Success = false
		if err != nil {
			metrics.ErrorMessage = err.Error()
		}
	}
}

// FinishRun marks the current run as complete and moves metrics to lastRun.
func (mc *MetricsCollector) FinishRun() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, metrics := range mc.currentRun {
		if metrics.Success {
			mc.successfulRuns++
		} else {
			mc.failedRuns++
		}
	}

	mc.totalRuns++
	mc.lastRunTime = time.Now()
	mc.lastRun = mc.currentRun
	mc.currentRun = make(map[string]*CheckMetrics)
}

// GetLastRunMetrics returns metrics from the last completed run.
func (mc *MetricsCollector) GetLastRunMetrics() map[string]*CheckMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*CheckMetrics, len(mc.lastRun))
	for k, v := range mc.lastRun {
		metricsCopy := *v
		result[k] = &metricsCopy
	}
	return result
}

// HealthStatus represents the health of the monitor.
type HealthStatus struct {
	Healthy      bool              `json:"healthy"`
	LastRunTime  time.Time         `json:"last_run_time"`
	NextRunTime  time.Time         `json:"next_run_time"`
	TotalDates   int               `json:"total_dates"`
	HealthyDates int               `json:"healthy_dates"`
	FailedDates  []string          `json:"failed_dates,omitempty"`
	DateStatuses map[string]string `json:"date_statuses"`
	Message      string            `json:"message,omitempty"`
}

// GetHealthStatus reports the monitor's health based on the last run.
func (mc *MetricsCollector) GetHealthStatus(nextRunTime time.Time) HealthStatus {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	status := HealthStatus{
		LastRunTime:  mc.lastRunTime,
		NextRunTime:  nextRunTime,
		TotalDates:   len(mc.lastRun),
		DateStatuses: make(map[string]string),
	}

	var healthyCount int
	var failedDates []string

	for date, metrics := range mc.lastRun {
		if metrics.Success {
			healthyCount++
			status.DateStatuses[date] = "ok"
		} else {
			failedDates = append(failedDates, date)
			status.DateStatuses[date] = "failed: " + metrics.ErrorMessage
		}
	}

	status.HealthyDates = healthyCount
	status.FailedDates = failedDates

	// Healthy when at least 70% of checked dates succeeded.
	if status.TotalDates > 0 {
		successRate := float64(healthyCount) / float64(status.TotalDates)
		status.Healthy = successRate >= 0.7
	}

	if status.Healthy {
		status.Message = "monitor is operating normally"
	} else if len(mc.lastRun) == 0 {
		status.Message = "no monitor runs recorded yet"
		status.Healthy = true
	} else {
		status.Message = "some dates are failing to fetch"
	}

	return status
}
