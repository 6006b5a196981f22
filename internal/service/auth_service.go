package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/grantscope/backend/internal/auth"
	"github.com/grantscope/backend/internal/models"
	"github.com/grantscope/backend/internal/notify"
	"github.com/grantscope/backend/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for any login failure. Missing
	// account, key-only account, and wrong password are indistinguishable to
	// the caller to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken is returned when a refresh attempt fails
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrInvalidResetTicket is returned when a reset confirmation fails.
	// Expired, already-used, and nonexistent tickets are indistinguishable.
	ErrInvalidResetTicket = errors.New("invalid or expired reset token")
	// ErrInvalidEmail is returned when an email address is malformed
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidName is returned when a display name is out of bounds
	ErrInvalidName = errors.New("name must be between 2 and 100 characters")
)

// emailRegex is a basic shape check, not full RFC validation
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Display name length bounds
const (
	minNameLength = 2
	maxNameLength = 100
)

// UserStore is the persistence surface the auth service needs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	SetResetTicket(ctx context.Context, userID string, tokenHash string, expires time.Time) error
	ClearResetTicket(ctx context.Context, userID string) error
}

// AuthService implements registration, login, token refresh, and the
// password reset flows.
type AuthService struct {
	users          UserStore
	tokens         *auth.TokenService
	notifier       notify.Notifier
	resetTicketTTL time.Duration
	now            func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens *auth.TokenService, notifier notify.Notifier, resetTicketTTL time.Duration) *AuthService {
	if resetTicketTTL == 0 {
		resetTicketTTL = time.Hour
	}
	return &AuthService{
		users:          users,
		tokens:         tokens,
		notifier:       notifier,
		resetTicketTTL: resetTicketTTL,
		now:            time.Now,
	}
}

// RegisterInput carries validated-at-the-boundary registration fields
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Company  string
}

// RegisterOutput is returned on successful registration
type RegisterOutput struct {
	User   *models.User
	APIKey string
	Tokens *auth.TokenPair
}

// Register validates input, creates the user with a hashed password and a
// freshly minted API key, and returns an initial token pair. The welcome
// notification is dispatched asynchronously and cannot fail the response.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	email := NormalizeEmail(in.Email)
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	name := strings.TrimSpace(in.Name)
	if len(name) < minNameLength || len(name) > maxNameLength {
		return nil, ErrInvalidName
	}

	if err := auth.ValidatePasswordStrength(in.Password); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate api key: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		Company:      strings.TrimSpace(in.Company),
		PasswordHash: passwordHash,
		APIKey:       apiKey,
		Tier:         models.TierFree,
	}

	// Uniqueness is enforced by the store; under concurrent registration for
	// the same email exactly one request wins and the rest see ErrUserExists.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	notify.Async(func(ctx context.Context) error {
		return s.notifier.SendWelcome(ctx, user.Email, user.Name)
	})

	return &RegisterOutput{
		User:   user,
		APIKey: apiKey,
		Tokens: pair,
	}, nil
}

// Login verifies email and password, mints a fresh token pair, and records
// the login time.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	// API-key-only accounts have no hash and cannot log in with a password
	if !user.HasPassword() || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("[auth] failed to update last login for %s: %v", user.ID, err)
	}
	user.LastLoginAt = &now

	return user, pair, nil
}

// Refresh validates a refresh token and rotates the pair. The password is not
// re-checked; possession of an unexpired refresh token bound to an existing
// user is sufficient. Access-typed tokens are rejected here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return pair, nil
}

// RequestPasswordReset creates a single-use reset ticket for the account and
// dispatches it out-of-band. It reports success whether or not the email
// exists; the only observable difference is store state.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		// Same outcome as success to the caller
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expires := s.now().Add(s.resetTicketTTL)
	if err := s.users.SetResetTicket(ctx, user.ID, hashResetToken(token), expires); err != nil {
		return fmt.Errorf("failed to store reset ticket: %w", err)
	}

	notify.Async(func(ctx context.Context) error {
		return s.notifier.SendPasswordReset(ctx, user.Email, token)
	})

	return nil
}

// ConfirmPasswordReset replaces the password when the presented ticket
// matches a non-expired one. The ticket is cleared on success; expired and
// nonexistent tickets fail identically.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, token, newPassword string) error {
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return ErrInvalidResetTicket
	}

	if user.ResetTokenHash == "" || user.ResetTokenExpires == nil {
		return ErrInvalidResetTicket
	}
	// A ticket past its expiry is treated as nonexistent
	if s.now().After(*user.ResetTokenExpires) {
		return ErrInvalidResetTicket
	}

	presented := hashResetToken(token)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(user.ResetTokenHash)) != 1 {
		return ErrInvalidResetTicket
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// UpdatePassword clears the ticket in the same statement, making it
	// single-use even under concurrent confirmation attempts.
	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// Logout is stateless at this layer: no revocation list exists, so a still-
// valid access token remains usable until it expires. Clients discard their
// tokens; the server only acknowledges.
func (s *AuthService) Logout(ctx context.Context) error {
	return nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsUserExists reports whether err means the email is already registered
func IsUserExists(err error) bool {
	return errors.Is(err, repository.ErrUserExists)
}

// generateResetToken mints the opaque single-use ticket value
func generateResetToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashResetToken hashes a ticket for storage. Only the hash is persisted, so
// a leaked user table does not expose usable reset tickets.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
