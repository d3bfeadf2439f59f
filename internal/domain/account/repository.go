package account

import (
	"context"
)

// Repository defines the interface for account data operations
type Repository interface {
	// Create a new account
	CreateAccount(ctx context.Context, acc *Account) (*Account, error)

	// Get an account by ID
	GetAccount(ctx context.Context, householdID string, accountID string) (*Account, error)

	// Get all accounts for a household
	GetAccounts(ctx context.Context, householdID string) ([]*Account, error)

	// Apply a signed delta to an account balance, returning the new balance
	ApplyBalanceDelta(ctx context.Context, householdID string, accountID string, deltaCents int64) (int64, error)
}
