package account

import (
	"time"
)

// AccountType represents the type of an account
type AccountType string

const (
	// Asset represents an asset account (checking, savings)
	Asset AccountType = "asset"
	// Liability represents a liability account (credit card, loan)
	Liability AccountType = "liability"
	// Income represents an income account
	Income AccountType = "income"
	// Expense represents an expense account
	Expense AccountType = "expense"
)

// Account represents a financial account within a household. BalanceCents is
// the current balance in integer cents; for liability accounts it is the
// amount owed (positive means debt outstanding).
type Account struct {
	HouseholdID string      `json:"householdId"`
	AccountID   string      `json:"accountId"`
	Name        string      `json:"name"`
	AccountType AccountType `json:"accountType"`

	BalanceCents int64  `json:"balanceCents"`
	Currency     string `json:"currency"`

	Institution string `json:"institution,omitempty"`
	Notes       string `json:"notes,omitempty"`
	IsActive    bool   `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateAccountRequest represents the request to create a new account
type CreateAccountRequest struct {
	Name                string      `json:"name"`
	AccountType         AccountType `json:"accountType"`
	OpeningBalanceCents int64       `json:"openingBalanceCents"`
	Currency            string      `json:"currency"`
	Institution         string      `json:"institution,omitempty"`
	Notes               string      `json:"notes,omitempty"`
}

// AccountListResponse represents the response for listing accounts
type AccountListResponse struct {
	Accounts   []*Account `json:"accounts"`
	TotalCount int        `json:"totalCount"`
}
