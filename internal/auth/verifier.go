package auth

import (
	"context"
	"errors"

	"github.com/grantscope/backend/internal/models"
)

// ErrUnauthenticated is returned when no verifier recognizes a credential
var ErrUnauthenticated = errors.New("unauthenticated")

// KeyLookup resolves an opaque API key to its owner
type KeyLookup interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// Verifier resolves a bearer credential to a user identity, or fails
type Verifier interface {
	Resolve(ctx context.Context, credential string) (*models.User, error)
}

// tokenVerifier accepts signed access tokens
type tokenVerifier struct {
	tokens *TokenService
}

func (v *tokenVerifier) Resolve(ctx context.Context, credential string) (*models.User, error) {
	claims, err := v.tokens.ValidateAccess(credential)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Tier:  claims.Tier,
	}, nil
}

// apiKeyVerifier accepts opaque API keys via exact-match store lookup
type apiKeyVerifier struct {
	keys KeyLookup
}

func (v *apiKeyVerifier) Resolve(ctx context.Context, credential string) (*models.User, error) {
	user, err := v.keys.GetByAPIKey(ctx, credential)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// CredentialVerifier tries an ordered list of verifier strategies: the signed
// access token first, then the opaque API key. The order is fixed so a
// token-shaped string that fails signature checks still falls through to the
// key lookup and fails there deterministically, rather than being mistaken
// for an unrecognized key by accident.
type CredentialVerifier struct {
	chain []Verifier
}

// NewCredentialVerifier builds the standard token-then-key chain
func NewCredentialVerifier(tokens *TokenService, keys KeyLookup) *CredentialVerifier {
	return &CredentialVerifier{
		chain: []Verifier{
			&tokenVerifier{tokens: tokens},
			&apiKeyVerifier{keys: keys},
		},
	}
}

// Resolve returns the identity of the first verifier that accepts the
// credential. Exactly one strategy can succeed for a given credential; if
// none does, the caller is unauthenticated.
func (v *CredentialVerifier) Resolve(ctx context.Context, credential string) (*models.User, error) {
	if credential == "" {
		return nil, ErrUnauthenticated
	}

	for _, verifier := range v.chain {
		user, err := verifier.Resolve(ctx, credential)
		if err == nil {
			return user, nil
		}
	}

	return nil, ErrUnauthenticated
}
