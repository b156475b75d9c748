package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/internal/service"
	"github.com/roomwatch/backend/pkg/datetime"
)

type AvailabilityServiceInterface interface {
	ListRange(ctx context.Context, from, to datetime.Date) ([]model.AvailabilitySnapshot, error)
	Seed(ctx context.Context, entries []service.SeedEntry) ([]model.AvailabilitySnapshot, error)
}

// AvailabilityHandler serves the vacancy calendar.
type AvailabilityHandler struct {
	service AvailabilityServiceInterface
}

func NewAvailabilityHandler(service AvailabilityServiceInterface) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// List returns snapshots between the from and to query dates, inclusive.
// Both are optional; the default window is the next 30 days.
func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}

	snaps, err := h.service.ListRange(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to list availability")
		return
	}
	if snaps == nil {
		snaps = []model.AvailabilitySnapshot{}
	}

	respondJSON(w, http.StatusOK, snaps)
}

type seedRequest struct {
	Entries []service.SeedEntry `json:"entries"`
}

// Seed writes snapshots directly, for backfilling or testing against a
// known calendar state.
func (h *AvailabilityHandler) Seed(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Entries) == 0 {
		respondError(w, http.StatusBadRequest, "entries are required")
		return
	}

	snaps, err := h.service.Seed(r.Context(), req.Entries)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, snaps)
}
