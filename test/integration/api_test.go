package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roomwatch/backend/internal/handler"
	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/internal/repository"
	"github.com/roomwatch/backend/internal/service"
)

// ============ Mock Services ============

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input service.RegisterInput) (*service.AuthResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResponse), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, input service.LoginInput) (*service.AuthResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResponse), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) GetSubscription(ctx context.Context, userID uuid.UUID) (*model.VacancySubscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VacancySubscription), args.Error(1)
}

func (m *MockSubscriptionService) UpdateSubscription(ctx context.Context, userID uuid.UUID, input *model.VacancySubscription) (*model.VacancySubscription, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VacancySubscription), args.Error(1)
}

func (m *MockSubscriptionService) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.VacancyNotification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VacancyNotification), args.Error(1)
}

// newTestRouter wires the real router and middleware around mocked services.
func newTestRouter(userSvc *MockUserService, subSvc *MockSubscriptionService) *chi.Mux {
	authHandler := handler.NewAuthHandler(userSvc)
	subscriptionHandler := handler.NewSubscriptionHandler(subSvc)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(handler.AuthMiddleware)
		r.Get("/api/auth/me", authHandler.Me)
		r.Get("/api/subscription", subscriptionHandler.Get)
	})

	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ============ Routing Tests ============

func TestAPI_RegisterRoute(t *testing.T) {
	userSvc := new(MockUserService)
	router := newTestRouter(userSvc, new(MockSubscriptionService))

	userSvc.On("Register", mock.Anything, service.RegisterInput{
		Email:    "new@example.com",
		Password: "password123",
	}).Return(&service.AuthResponse{
		Token: "token-123",
		User:  &model.User{ID: uuid.New(), Email: "new@example.com", Plan: model.PlanFree},
	}, nil)

	w := doJSON(t, router, "POST", "/api/auth/register", "", map[string]string{
		"email":    "new@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp service.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "token-123", resp.Token)
}

func TestAPI_LoginRoute(t *testing.T) {
	userSvc := new(MockUserService)
	router := newTestRouter(userSvc, new(MockSubscriptionService))

	userSvc.On("Login", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials)

	w := doJSON(t, router, "POST", "/api/auth/login", "", map[string]string{
		"email":    "who@example.com",
		"password": "nope",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// The middleware must resolve the token's subject and hand the same user ID
// to the handler behind it.
func TestAPI_AuthMiddlewarePassesUserID(t *testing.T) {
	userSvc := new(MockUserService)
	subSvc := new(MockSubscriptionService)
	router := newTestRouter(userSvc, subSvc)

	userID := uuid.New()
	token, err := service.GenerateTokenForUser(userID)
	require.NoError(t, err)

	subSvc.On("GetSubscription", mock.Anything, userID).Return(&model.VacancySubscription{
		ID:     7,
		UserID: userID,
	}, nil)

	w := doJSON(t, router, "GET", "/api/subscription", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	subSvc.AssertExpectations(t)
}

func TestAPI_ProtectedRoutesRejectAnonymous(t *testing.T) {
	router := newTestRouter(new(MockUserService), new(MockSubscriptionService))

	for _, path := range []string{"/api/auth/me", "/api/subscription"} {
		w := doJSON(t, router, "GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAPI_NotFoundHandling(t *testing.T) {
	userSvc := new(MockUserService)
	subSvc := new(MockSubscriptionService)
	router := newTestRouter(userSvc, subSvc)

	userID := uuid.New()
	token, err := service.GenerateTokenForUser(userID)
	require.NoError(t, err)

	subSvc.On("GetSubscription", mock.Anything, userID).Return(nil, repository.ErrSubscriptionNotFound)

	w := doJSON(t, router, "GET", "/api/subscription", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
