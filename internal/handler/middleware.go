package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/roomwatch/backend/internal/logger"
	"github.com/roomwatch/backend/internal/service"
)

type contextKey string

// UserIDKey is the context key under which AuthMiddleware stores the
// authenticated user's ID.
const UserIDKey contextKey = "userID"

// AuthMiddleware requires a valid Bearer token and puts the user ID on the
// request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		userID, err := service.ValidateToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = logger.WithUserID(ctx, userID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID returns the authenticated user's ID from the context, or
// uuid.Nil when the request is unauthenticated.
func GetUserID(ctx context.Context) uuid.UUID {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}
