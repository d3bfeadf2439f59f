package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hirosato/homeledger/backend/internal/common/utils"
	"github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
)

// Service provides account-related business logic
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// CreateAccount creates a new account
func (s *Service) CreateAccount(ctx context.Context, hh *household.HouseholdContext, req *CreateAccountRequest) (*Account, error) {
	if err := utils.ValidateRequiredString(req.Name, "name"); err != nil {
		return nil, err
	}
	if err := validateAccountType(req.AccountType); err != nil {
		return nil, err
	}
	if err := utils.ValidateCurrency(req.Currency); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	acc := &Account{
		HouseholdID:  hh.HouseholdID,
		AccountID:    uuid.New().String(),
		Name:         req.Name,
		AccountType:  req.AccountType,
		BalanceCents: req.OpeningBalanceCents,
		Currency:     req.Currency,
		Institution:  req.Institution,
		Notes:        req.Notes,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.CreateAccount(ctx, acc)
}

func validateAccountType(t AccountType) error {
	switch t {
	case Asset, Liability, Income, Expense:
		return nil
	default:
		return errors.NewValidationError("accountType must be one of asset, liability, income, expense")
	}
}

// GetAccount retrieves an account by ID
func (s *Service) GetAccount(ctx context.Context, hh *household.HouseholdContext, accountID string) (*Account, error) {
	return s.repo.GetAccount(ctx, hh.HouseholdID, accountID)
}

// GetAccounts retrieves all accounts for the household
func (s *Service) GetAccounts(ctx context.Context, hh *household.HouseholdContext) (*AccountListResponse, error) {
	accounts, err := s.repo.GetAccounts(ctx, hh.HouseholdID)
	if err != nil {
		return nil, err
	}

	return &AccountListResponse{
		Accounts:   accounts,
		TotalCount: len(accounts),
	}, nil
}
