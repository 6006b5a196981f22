package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/grantscope/backend/internal/api/response"
	"github.com/grantscope/backend/internal/models"
)

// Context keys for authentication
type contextKey string

// UserContextKey is the context key for the authenticated user
const UserContextKey contextKey = "user"

// Middleware holds dependencies for authentication middleware
type Middleware struct {
	verifier *CredentialVerifier
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(verifier *CredentialVerifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Authenticate requires a valid bearer credential (access token or API key)
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, ok := bearerCredential(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, response.CodeNoAuthHeader, "Authorization header required")
			return
		}

		user, err := m.verifier.Resolve(r.Context(), credential)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, response.CodeInvalidAuth, "Invalid credentials")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth sets the user if a credential resolves but continues either way
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if credential, ok := bearerCredential(r); ok {
			if user, err := m.verifier.Resolve(r.Context(), credential); err == nil {
				ctx := context.WithValue(r.Context(), UserContextKey, user)
				r = r.WithContext(ctx)
			}
		}

		next.ServeHTTP(w, r)
	})
}

// GetUser returns the authenticated user from context
func GetUser(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// bearerCredential extracts the credential from the Authorization header
func bearerCredential(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	return parts[1], true
}
