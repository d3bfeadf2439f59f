package auth

import (
	"context"
	"time"
)

// User represents an authenticated caller
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name,omitempty"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`

	// DefaultHouseholdID is the household baked into the token. Requests may
	// target another household with the X-Household-Id header; membership is
	// verified either way.
	DefaultHouseholdID string `json:"defaultHouseholdId,omitempty"`

	TokenMetadata TokenMetadata `json:"-"`
}

// TokenMetadata carries validity information extracted from the token
type TokenMetadata struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Service defines the interface for token validation. This is a
// technology-agnostic interface that can be implemented by any auth provider
// (Cognito, custom JWT, etc.)
type Service interface {
	// ValidateToken verifies a bearer token and resolves the caller
	ValidateToken(ctx context.Context, tokenString string) (User, error)

	// GetUser fetches the caller's profile from the auth provider
	GetUser(ctx context.Context, accessToken string) (User, error)
}
