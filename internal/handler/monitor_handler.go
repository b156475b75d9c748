package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/roomwatch/backend/internal/apperror"
	"github.com/roomwatch/backend/internal/monitor"
)

type MonitorServiceInterface interface {
	TriggerRun(ctx context.Context, startOffsetDays, windowDays int) (*monitor.Summary, error)
	Health() monitor.HealthStatus
}

// MonitorHandler exposes manual monitor runs and run health.
type MonitorHandler struct {
	service MonitorServiceInterface
}

func NewMonitorHandler(service MonitorServiceInterface) *MonitorHandler {
	return &MonitorHandler{service: service}
}

// Run triggers one synchronous monitor run. startOffset shifts the window's
// first date forward from today; days sets the window length, capped at the
// monitor's maximum.
func (h *MonitorHandler) Run(w http.ResponseWriter, r *http.Request) {
	startOffset, err := parseIntParam(r.URL.Query().Get("startOffset"), 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "startOffset must be a non-negative integer")
		return
	}
	days, err := parseIntParam(r.URL.Query().Get("days"), 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "days must be a non-negative integer")
		return
	}

	summary, err := h.service.TriggerRun(r.Context(), startOffset, days)
	if err != nil {
		respondAppError(w, apperror.BadGateway(err, "monitor run failed: "+err.Error()))
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// Health reports the outcome of the last run and the next scheduled one.
func (h *MonitorHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.service.Health()

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}

func parseIntParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, strconv.ErrSyntax
	}
	return parsed, nil
}
