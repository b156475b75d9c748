package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/roomwatch/backend/internal/logger"
	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/internal/service"
)

type PushServiceInterface interface {
	IsConfigured() bool
	GetVAPIDPublicKey() (string, error)
	Subscribe(ctx context.Context, userID uuid.UUID, endpoint, p256dh, auth string, userAgent *string) (*model.PushSubscription, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
}

// PushHandler manages the browser endpoints that opening alerts are
// delivered to. All endpoints answer 503 when VAPID keys are absent so
// the frontend can hide the push opt-in entirely.
type PushHandler struct {
	service PushServiceInterface
}

func NewPushHandler(service PushServiceInterface) *PushHandler {
	return &PushHandler{service: service}
}

// GetVAPIDPublicKey hands the browser the key it needs to create a
// push subscription.
func (h *PushHandler) GetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.GetVAPIDPublicKey()
	if err != nil {
		if errors.Is(err, service.ErrVAPIDNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "push notifications are not configured")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get VAPID key")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

type subscribeRequest struct {
	Endpoint  string  `json:"endpoint"`
	P256dh    string  `json:"p256dh"`
	Auth      string  `json:"auth"`
	UserAgent *string `json:"userAgent,omitempty"`
}

// Subscribe stores a browser's push credentials for the current user.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		respondError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.service.Subscribe(r.Context(), userID, req.Endpoint, req.P256dh, req.Auth, req.UserAgent)
	if err != nil {
		if errors.Is(err, service.ErrVAPIDNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "push notifications are not configured")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	logger.FromContext(r.Context()).Info("push endpoint registered", "endpoint", req.Endpoint)
	respondJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe drops one of the user's registered browser endpoints.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Endpoint == "" {
		respondError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.service.Unsubscribe(r.Context(), userID, req.Endpoint); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
