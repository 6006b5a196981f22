package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/grantscope/backend/internal/database"
	"github.com/grantscope/backend/internal/models"
)

var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when trying to create a user that already exists
	ErrUserExists = errors.New("user already exists")
)

const userColumns = `id, email, name, company, password_hash, api_key, tier, usage_count,
	reset_token_hash, reset_token_expires, last_login_at, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user. Uniqueness of email and api_key is enforced by
// the store, so two concurrent registrations for the same email cannot both
// succeed; the loser receives ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Tier == "" {
		user.Tier = models.TierFree
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, name, company, password_hash, api_key, tier, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.Name, user.Company, user.PasswordHash,
		user.APIKey, user.Tier, user.UsageCount, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id), "id")
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, email), "email")
}

// GetByAPIKey retrieves a user by its opaque API key (exact match)
func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE api_key = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, apiKey), "api key")
}

// UpdateLastLogin records a successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`
	rowsAffected, err := r.db.Exec(ctx, query, userID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash and clears any pending reset ticket
func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2,
		    reset_token_hash = '',
		    reset_token_expires = NULL,
		    updated_at = $3
		WHERE id = $1
	`
	rowsAffected, err := r.db.Exec(ctx, query, userID, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetResetTicket stores a password reset ticket hash with its expiry
func (r *UserRepository) SetResetTicket(ctx context.Context, userID string, tokenHash string, expires time.Time) error {
	query := `
		UPDATE users
		SET reset_token_hash = $2, reset_token_expires = $3, updated_at = $4
		WHERE id = $1
	`
	rowsAffected, err := r.db.Exec(ctx, query, userID, tokenHash, expires.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set reset ticket: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearResetTicket removes a pending reset ticket without touching the password
func (r *UserRepository) ClearResetTicket(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET reset_token_hash = '', reset_token_expires = NULL, updated_at = $2
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to clear reset ticket: %w", err)
	}
	return nil
}

// IncrementUsage atomically increments the usage counter for a user
func (r *UserRepository) IncrementUsage(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET usage_count = usage_count + 1, updated_at = $2
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// UpdateTier updates a user's subscription tier
func (r *UserRepository) UpdateTier(ctx context.Context, userID string, tier string) error {
	if !models.IsValidTier(tier) {
		return fmt.Errorf("invalid tier: %s", tier)
	}

	query := `UPDATE users SET tier = $2, updated_at = $3 WHERE id = $1`
	rowsAffected, err := r.db.Exec(ctx, query, userID, tier, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row, by string) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Company, &user.PasswordHash,
		&user.APIKey, &user.Tier, &user.UsageCount,
		&user.ResetTokenHash, &user.ResetTokenExpires, &user.LastLoginAt,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", by, err)
	}
	return &user, nil
}

// isUniqueViolation checks if an error is a unique constraint violation
func isUniqueViolation(err error) bool {
	// PostgreSQL unique violation error code is 23505
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "23505")
}
