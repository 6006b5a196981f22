package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/grantscope/backend/internal/api/response"
	"github.com/grantscope/backend/internal/auth"
	"github.com/grantscope/backend/internal/models"
	"github.com/grantscope/backend/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	users       service.UserStore
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, users service.UserStore) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Company  string `json:"company,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ResetPasswordRequest represents a password reset request
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// ConfirmResetRequest represents a password reset confirmation
type ConfirmResetRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthResponse represents a successful authentication response
type AuthResponse struct {
	Success      bool               `json:"success"`
	User         *models.PublicUser `json:"user"`
	APIKey       string             `json:"api_key,omitempty"`
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	ExpiresIn    int64              `json:"expires_in"`
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeValidationError, "Invalid request body")
		return
	}

	out, err := h.authService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Company:  req.Company,
	})
	if err != nil {
		switch {
		case auth.IsWeakPassword(err):
			response.Error(w, http.StatusBadRequest, response.CodeWeakPassword, err.Error())
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidName):
			response.Error(w, http.StatusBadRequest, response.CodeValidationError, err.Error())
		case service.IsUserExists(err):
			response.Error(w, http.StatusConflict, response.CodeUserExists, "An account with this email already exists")
		default:
			log.Printf("[auth] Register error: %v", err)
			response.InternalError(w, "Failed to create account")
		}
		return
	}

	response.JSON(w, http.StatusCreated, AuthResponse{
		Success:      true,
		User:         out.User.ToPublic(),
		APIKey:       out.APIKey,
		AccessToken:  out.Tokens.AccessToken,
		RefreshToken: out.Tokens.RefreshToken,
		ExpiresIn:    out.Tokens.ExpiresIn,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeValidationError, "Invalid request body")
		return
	}

	user, pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, response.CodeInvalidCredentials, "Invalid email or password")
			return
		}
		log.Printf("[auth] Login error: %v", err)
		response.InternalError(w, "Failed to log in")
		return
	}

	response.JSON(w, http.StatusOK, AuthResponse{
		Success:      true,
		User:         user.ToPublic(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Refresh handles token refresh
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidationError, "refresh_token is required")
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			response.Error(w, http.StatusUnauthorized, response.CodeRefreshError, "Invalid or expired refresh token")
			return
		}
		log.Printf("[auth] Refresh error: %v", err)
		response.InternalError(w, "Failed to refresh token")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
	})
}

// ResetPassword handles a password reset request
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidationError, "email is required")
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		// Still answer generically; the failure is internal, not a signal
		// about account existence.
		log.Printf("[auth] ResetPassword error: %v", err)
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "If an account exists, a reset token has been sent.",
	})
}

// ConfirmReset handles a password reset confirmation
// POST /api/v1/auth/confirm-reset
func (h *AuthHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req ConfirmResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Token == "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidationError, "email, token, and password are required")
		return
	}

	err := h.authService.ConfirmPasswordReset(r.Context(), req.Email, req.Token, req.Password)
	if err != nil {
		switch {
		case auth.IsWeakPassword(err):
			response.Error(w, http.StatusBadRequest, response.CodeWeakPassword, err.Error())
		case errors.Is(err, service.ErrInvalidResetTicket):
			response.Error(w, http.StatusBadRequest, response.CodeInvalidResetToken, "Invalid or expired reset token")
		default:
			log.Printf("[auth] ConfirmReset error: %v", err)
			response.InternalError(w, "Failed to reset password")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password has been reset",
	})
}

// Logout acknowledges a logout. No revocation list exists at this layer, so
// a still-valid access token remains valid until expiry; clients are
// expected to discard their tokens.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	_ = h.authService.Logout(r.Context())

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out",
	})
}

// Me returns the current authenticated user
// GET /api/v1/user/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		response.Error(w, http.StatusUnauthorized, response.CodeInvalidAuth, "Authentication required")
		return
	}

	// Token-derived identities carry only claims; fetch the full record
	full, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		log.Printf("[auth] Me lookup error: %v", err)
		response.InternalError(w, "Failed to fetch user data")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    full.ToPublic(),
	})
}
