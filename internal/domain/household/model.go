package household

import (
	"context"
	"time"

	"github.com/hirosato/homeledger/backend/internal/domain/errors"
)

// HouseholdContext carries the resolved caller identity for a request. Every
// bill, account and notification operation is scoped by it.
type HouseholdContext struct {
	HouseholdID string
	UserID      string
	Role        string
}

// Household represents a household, the tenant/sharing boundary
type Household struct {
	HouseholdID string                 `json:"householdId"`
	Name        string                 `json:"name"`
	OwnerID     string                 `json:"ownerId"`
	Status      string                 `json:"status"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// Member represents a user's membership in a household
type Member struct {
	HouseholdID string    `json:"householdId"`
	UserID      string    `json:"userId"`
	Role        string    `json:"role"` // owner, member
	JoinedAt    time.Time `json:"joinedAt"`
}

// Repository defines the interface for household data operations
type Repository interface {
	GetHousehold(ctx context.Context, householdID string) (*Household, error)
	CreateHousehold(ctx context.Context, hh *Household) (*Household, error)
	GetMember(ctx context.Context, householdID string, userID string) (*Member, error)
	GetMembers(ctx context.Context, householdID string) ([]*Member, error)
	AddMember(ctx context.Context, member *Member) error
}

// Service provides household-related business logic
type Service struct {
	repo Repository
}

// NewService creates a new household service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// GetHousehold retrieves a household by ID
func (s *Service) GetHousehold(ctx context.Context, householdID string) (*Household, error) {
	return s.repo.GetHousehold(ctx, householdID)
}

// VerifyMembership resolves the household context for a user, confirming the
// user belongs to the household. A non-member gets an authorization error, not
// a not-found, so callers can distinguish a bad household id from a forbidden one.
func (s *Service) VerifyMembership(ctx context.Context, householdID string, userID string) (*HouseholdContext, error) {
	if _, err := s.repo.GetHousehold(ctx, householdID); err != nil {
		return nil, err
	}

	member, err := s.repo.GetMember(ctx, householdID, userID)
	if err != nil {
		if appErr, ok := err.(errors.AppError); ok && appErr.Code == "NOT_FOUND" {
			return nil, errors.NewAuthorizationError("user does not have access to this household")
		}
		return nil, err
	}

	return &HouseholdContext{
		HouseholdID: householdID,
		UserID:      userID,
		Role:        member.Role,
	}, nil
}
