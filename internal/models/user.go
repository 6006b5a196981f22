package models

import (
	"time"
)

// User represents a registered account in the system
type User struct {
	ID                string     `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	Name              string     `json:"name" db:"name"`
	Company           string     `json:"company,omitempty" db:"company"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	APIKey            string     `json:"-" db:"api_key"`
	Tier              string     `json:"subscription_tier" db:"tier"`
	UsageCount        int        `json:"usage_count" db:"usage_count"`
	ResetTokenHash    string     `json:"-" db:"reset_token_hash"`
	ResetTokenExpires *time.Time `json:"-" db:"reset_token_expires"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// HasPassword reports whether the account can authenticate with a password.
// Accounts without a hash are API-key-only.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// PublicUser is the user shape exposed in API responses
type PublicUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Tier    string `json:"subscription_tier"`
}

// ToPublic converts a user to its API response shape
func (u *User) ToPublic() *PublicUser {
	return &PublicUser{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Company: u.Company,
		Tier:    u.Tier,
	}
}

// UserTier constants
const (
	TierFree = "free"
	TierPro  = "pro"
)

// IsValidTier checks if a tier is valid
func IsValidTier(tier string) bool {
	switch tier {
	case TierFree, TierPro:
		return true
	default:
		return false
	}
}
