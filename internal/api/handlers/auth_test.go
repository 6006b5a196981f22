package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscope/backend/internal/auth"
	"github.com/grantscope/backend/internal/models"
	"github.com/grantscope/backend/internal/repository"
	"github.com/grantscope/backend/internal/service"
)

// fakeUserStore backs handler tests without a database
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrUserExists
		}
	}
	s.nextID++
	user.ID = fmt.Sprintf("user-%d", s.nextID)
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.APIKey == apiKey {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeUserStore) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = ""
	u.ResetTokenExpires = nil
	return nil
}

func (s *fakeUserStore) SetResetTicket(ctx context.Context, userID string, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetTokenHash = tokenHash
	u.ResetTokenExpires = &expires
	return nil
}

func (s *fakeUserStore) ClearResetTicket(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetTokenHash = ""
	u.ResetTokenExpires = nil
	return nil
}

type silentNotifier struct{}

func (silentNotifier) SendWelcome(ctx context.Context, email, name string) error { return nil }

func (silentNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	return nil
}

func newAuthTestRouter(t *testing.T) (http.Handler, *fakeUserStore) {
	t.Helper()

	store := newFakeUserStore()
	tokens := auth.NewTokenService("handler-test-secret", 30*time.Minute, 7*24*time.Hour)
	authService := service.NewAuthService(store, tokens, silentNotifier{}, time.Hour)
	handler := NewAuthHandler(authService, store)

	verifier := auth.NewCredentialVerifier(tokens, store)
	mw := auth.NewMiddleware(verifier)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handler.Register)
			r.Post("/login", handler.Login)
			r.Post("/refresh", handler.Refresh)
			r.Post("/reset-password", handler.ResetPassword)
			r.Post("/confirm-reset", handler.ConfirmReset)
			r.Post("/logout", handler.Logout)
		})
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate)
			r.Get("/user/me", handler.Me)
		})
	})
	return r, store
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	decoded := make(map[string]interface{})
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func registerBody() map[string]string {
	return map[string]string{
		"email":    "ann@example.com",
		"password": "correct-horse-9",
		"name":     "Ann Example",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody(), nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["api_key"])
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", user["email"])
	assert.Equal(t, "free", user["subscription_tier"])
	// The password hash never leaves the server
	assert.NotContains(t, user, "password_hash")
}

func TestRegisterEndpoint_Errors(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	// Occupy the email for the duplicate case
	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
		wantErr  string
	}{
		{
			name:     "weak password",
			body:     map[string]string{"email": "b@example.com", "password": "short", "name": "Bob"},
			wantCode: http.StatusBadRequest,
			wantErr:  "WEAK_PASSWORD",
		},
		{
			name:     "bad email",
			body:     map[string]string{"email": "not-an-email", "password": "correct-horse-9", "name": "Bob"},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "duplicate email",
			body:     registerBody(),
			wantCode: http.StatusConflict,
			wantErr:  "USER_EXISTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", tt.body, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantErr, body["code"])
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ann@example.com", "password": "correct-horse-9",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["access_token"])

	// Login responses never reissue the API key
	assert.NotContains(t, body, "api_key")

	rec, body = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ann@example.com", "password": "wrong-password-1",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
}

func TestRefreshEndpoint(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	rec, registered := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": registered["refresh_token"].(string),
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	// An access token is not accepted in the refresh slot
	rec, body = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": registered["access_token"].(string),
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "REFRESH_ERROR", body["code"])

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetPasswordEndpoint_AlwaysGeneric(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, email := range []string{"ann@example.com", "nobody@example.com"} {
		rec, body := doJSON(t, router, http.MethodPost, "/api/v1/auth/reset-password", map[string]string{
			"email": email,
		}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "If an account exists, a reset token has been sent.", body["message"])
	}
}

func TestConfirmResetEndpoint_BadTicket(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/auth/confirm-reset", map[string]string{
		"email":    "ann@example.com",
		"token":    "deadbeef",
		"password": "new-password-7",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_RESET_TOKEN", body["code"])
}

func TestMeEndpoint(t *testing.T) {
	router, store := newAuthTestRouter(t)

	rec, registered := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// With a bearer access token
	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/user/me", nil, map[string]string{
		"Authorization": "Bearer " + registered["access_token"].(string),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "ann@example.com", user["email"])

	// With the opaque API key in the same header slot
	rec, body = doJSON(t, router, http.MethodGet, "/api/v1/user/me", nil, map[string]string{
		"Authorization": "Bearer " + registered["api_key"].(string),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	user = body["user"].(map[string]interface{})
	assert.Equal(t, "ann@example.com", user["email"])

	// No credentials
	rec, body = doJSON(t, router, http.MethodGet, "/api/v1/user/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "NO_AUTH_HEADER", body["code"])

	// A key revoked from the store stops working immediately
	store.mu.Lock()
	for _, u := range store.users {
		u.APIKey = ""
	}
	store.mu.Unlock()
	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/user/me", nil, map[string]string{
		"Authorization": "Bearer " + registered["api_key"].(string),
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}
