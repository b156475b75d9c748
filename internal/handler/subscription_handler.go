package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/roomwatch/backend/internal/apperror"
	"github.com/roomwatch/backend/internal/logger"
	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/internal/repository"
	"github.com/roomwatch/backend/pkg/datetime"
)

type SubscriptionServiceInterface interface {
	GetSubscription(ctx context.Context, userID uuid.UUID) (*model.VacancySubscription, error)
	UpdateSubscription(ctx context.Context, userID uuid.UUID, input *model.VacancySubscription) (*model.VacancySubscription, error)
	GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.VacancyNotification, error)
}

// SubscriptionHandler serves the user's watch settings and their
// notification history.
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
}

func NewSubscriptionHandler(service SubscriptionServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// Get returns the authenticated user's watch settings.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sub, err := h.service.GetSubscription(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			respondError(w, http.StatusNotFound, "subscription not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get subscription")
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

type updateSubscriptionRequest struct {
	TargetDates     []string `json:"targetDates"`
	TargetRoomTypes []string `json:"targetRoomTypes"`
	EmailEnabled    bool     `json:"emailEnabled"`
	PushEnabled     bool     `json:"pushEnabled"`
	IsActive        bool     `json:"isActive"`
}

// Update replaces the authenticated user's watch settings. Empty date or
// room lists mean "watch everything".
func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for _, d := range req.TargetDates {
		if _, err := datetime.ParseDate(d); err != nil {
			respondAppError(w, apperror.ValidationError("targetDates", "target dates must be YYYY-MM-DD: "+d))
			return
		}
	}

	input := &model.VacancySubscription{
		TargetDates:     pq.StringArray(req.TargetDates),
		TargetRoomTypes: pq.StringArray(req.TargetRoomTypes),
		EmailEnabled:    req.EmailEnabled,
		PushEnabled:     req.PushEnabled,
		IsActive:        req.IsActive,
	}

	sub, err := h.service.UpdateSubscription(r.Context(), userID, input)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update subscription")
		return
	}

	logger.FromContext(r.Context()).Info("watch settings updated",
		"target_dates", len(sub.TargetDates),
		"target_room_types", len(sub.TargetRoomTypes),
		"email", sub.EmailEnabled,
		"push", sub.PushEnabled,
		"active", sub.IsActive)

	respondJSON(w, http.StatusOK, sub)
}

// History returns the user's recent notification delivery records.
func (h *SubscriptionHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := h.service.GetHistory(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get notification history")
		return
	}
	if records == nil {
		records = []model.VacancyNotification{}
	}

	respondJSON(w, http.StatusOK, records)
}
