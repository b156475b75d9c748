package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomwatch/backend/internal/apperror"
)

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	respondJSON(w, http.StatusCreated, map[string]int{"id": 123})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":123}`, w.Body.String())

	w = httptest.NewRecorder()
	respondJSON(w, http.StatusNoContent, nil)
	assert.Empty(t, w.Body.String(), "nil data writes no body")
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, http.StatusNotFound, "subscription not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "subscription not found", resp.Error)
	assert.Empty(t, resp.Field)
}

func TestRespondAppError(t *testing.T) {
	w := httptest.NewRecorder()
	respondAppError(w, apperror.ValidationError("days", "days must not exceed 30"))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "days must not exceed 30", resp.Error)
	assert.Equal(t, "days", resp.Field)
}

func TestGetUserID(t *testing.T) {
	userID := uuid.New()
	ctx := context.WithValue(context.Background(), UserIDKey, userID)
	assert.Equal(t, userID, GetUserID(ctx))

	assert.Equal(t, uuid.Nil, GetUserID(context.Background()), "unset context yields Nil")

	ctx = context.WithValue(context.Background(), UserIDKey, "not-a-uuid")
	assert.Equal(t, uuid.Nil, GetUserID(ctx), "wrong type yields Nil")
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitAndTrim(" a, b ,c ,", ","))
	assert.Empty(t, splitAndTrim("  ", ","))
}

func TestParseDateParam(t *testing.T) {
	d, err := parseDateParam("2026-10-01")
	assert.NoError(t, err)
	assert.Equal(t, "2026-10-01", d.String())

	d, err = parseDateParam("")
	assert.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDateParam("10/01/2026")
	assert.Error(t, err)
}
