package bills

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/hirosato/homeledger/backend/internal/common/utils"
	"github.com/hirosato/homeledger/backend/internal/domain/account"
	"github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
)

// Service provides bill template and occurrence business logic
type Service struct {
	repo     Repository
	accounts account.Repository
}

// NewService creates a new bills service
func NewService(repo Repository, accounts account.Repository) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
	}
}

// CreateTemplate creates a new bill template. Cadence configuration is
// validated here so the generator never sees a malformed template.
func (s *Service) CreateTemplate(ctx context.Context, hh *household.HouseholdContext, req *CreateTemplateRequest) (*BillTemplate, error) {
	if err := utils.ValidateRequiredString(req.Name, "name"); err != nil {
		return nil, err
	}
	if err := validateBillType(req.BillType); err != nil {
		return nil, err
	}
	if req.RecurrenceType != OneTime && req.RecurrenceType != Recurring {
		return nil, errors.NewValidationError("recurrenceType must be one_time or recurring")
	}
	if err := req.Cadence.Validate(req.RecurrenceType); err != nil {
		return nil, err
	}
	if req.AmountDueCents <= 0 {
		return nil, errors.NewValidationError("amountDueCents must be a positive amount in cents")
	}
	if req.LinkedAccountID != "" {
		if _, err := s.accounts.GetAccount(ctx, hh.HouseholdID, req.LinkedAccountID); err != nil {
			return nil, errors.NewValidationError("linked account does not exist")
		}
	}

	now := time.Now().UTC()
	tmpl := &BillTemplate{
		TemplateID:      uuid.New().String(),
		HouseholdID:     hh.HouseholdID,
		Name:            req.Name,
		BillType:        req.BillType,
		Classification:  req.Classification,
		RecurrenceType:  req.RecurrenceType,
		Cadence:         req.Cadence,
		AmountDueCents:  req.AmountDueCents,
		CategoryID:      req.CategoryID,
		MerchantID:      req.MerchantID,
		LinkedAccountID: req.LinkedAccountID,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	return s.repo.CreateTemplate(ctx, tmpl)
}

// GetTemplate retrieves a template by ID
func (s *Service) GetTemplate(ctx context.Context, hh *household.HouseholdContext, templateID string) (*BillTemplate, error) {
	return s.repo.GetTemplate(ctx, hh.HouseholdID, templateID)
}

// GetTemplates retrieves the household's templates
func (s *Service) GetTemplates(ctx context.Context, hh *household.HouseholdContext, includeInactive bool) ([]*BillTemplate, error) {
	return s.repo.GetTemplates(ctx, hh.HouseholdID, includeInactive)
}

// UpdateTemplate updates an existing template
func (s *Service) UpdateTemplate(ctx context.Context, hh *household.HouseholdContext, templateID string, req *UpdateTemplateRequest) (*BillTemplate, error) {
	tmpl, err := s.repo.GetTemplate(ctx, hh.HouseholdID, templateID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := utils.ValidateRequiredString(*req.Name, "name"); err != nil {
			return nil, err
		}
		tmpl.Name = *req.Name
	}
	if req.Classification != nil {
		tmpl.Classification = *req.Classification
	}
	if req.Cadence != nil {
		if err := req.Cadence.Validate(tmpl.RecurrenceType); err != nil {
			return nil, err
		}
		tmpl.Cadence = *req.Cadence
	}
	if req.AmountDueCents != nil {
		if *req.AmountDueCents <= 0 {
			return nil, errors.NewValidationError("amountDueCents must be a positive amount in cents")
		}
		tmpl.AmountDueCents = *req.AmountDueCents
	}
	if req.CategoryID != nil {
		tmpl.CategoryID = *req.CategoryID
	}
	if req.MerchantID != nil {
		tmpl.MerchantID = *req.MerchantID
	}
	if req.LinkedAccountID != nil {
		if *req.LinkedAccountID != "" {
			if _, err := s.accounts.GetAccount(ctx, hh.HouseholdID, *req.LinkedAccountID); err != nil {
				return nil, errors.NewValidationError("linked account does not exist")
			}
		}
		tmpl.LinkedAccountID = *req.LinkedAccountID
	}
	if req.IsActive != nil {
		tmpl.IsActive = *req.IsActive
	}
	tmpl.UpdatedAt = time.Now().UTC()

	return s.repo.UpdateTemplate(ctx, tmpl)
}

// DeactivateTemplate soft-deactivates a template. Templates are never hard
// deleted; history stays queryable.
func (s *Service) DeactivateTemplate(ctx context.Context, hh *household.HouseholdContext, templateID string) error {
	if _, err := s.repo.GetTemplate(ctx, hh.HouseholdID, templateID); err != nil {
		return err
	}
	return s.repo.DeactivateTemplate(ctx, hh.HouseholdID, templateID)
}

// EnsureOccurrences expands every active template into occurrence rows for
// due dates in [from, to]. Re-invoking with an overlapping range never
// creates duplicates: creation is a conditional put keyed on template+date.
func (s *Service) EnsureOccurrences(ctx context.Context, hh *household.HouseholdContext, from, to string) error {
	if err := utils.ValidateISODate(from); err != nil {
		return err
	}
	if err := utils.ValidateISODate(to); err != nil {
		return err
	}
	if to < from {
		return errors.NewValidationError("range end must not be before range start")
	}

	templates, err := s.repo.GetTemplates(ctx, hh.HouseholdID, false)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	today := now.Format(dateLayout)
	for _, tmpl := range templates {
		for _, dueDate := range tmpl.Cadence.DueDatesBetween(tmpl.RecurrenceType, from, to) {
			status := StatusUnpaid
			if dueDate < today {
				status = StatusOverdue
			}
			occ := &BillOccurrence{
				OccurrenceID:         ulid.Make().String(),
				TemplateID:           tmpl.TemplateID,
				HouseholdID:          hh.HouseholdID,
				DueDate:              dueDate,
				AmountDueCents:       tmpl.AmountDueCents,
				AmountPaidCents:      0,
				AmountRemainingCents: tmpl.AmountDueCents,
				Status:               status,
				DaysLate:             daysLate(dueDate, today),
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if _, err := s.repo.CreateOccurrence(ctx, occ); err != nil {
				return err
			}
		}
	}

	return nil
}

// ListOccurrences lazily generates then lists occurrences for a date range
func (s *Service) ListOccurrences(ctx context.Context, hh *household.HouseholdContext, from, to string) (*OccurrenceListResponse, error) {
	if err := s.EnsureOccurrences(ctx, hh, from, to); err != nil {
		return nil, err
	}

	occurrences, err := s.repo.GetOccurrencesByDateRange(ctx, hh.HouseholdID, from, to)
	if err != nil {
		return nil, err
	}

	return &OccurrenceListResponse{
		Occurrences: occurrences,
		TotalCount:  len(occurrences),
		From:        from,
		To:          to,
	}, nil
}

// GetOccurrence retrieves an occurrence by ID
func (s *Service) GetOccurrence(ctx context.Context, hh *household.HouseholdContext, occurrenceID string) (*BillOccurrence, error) {
	return s.repo.GetOccurrence(ctx, hh.HouseholdID, occurrenceID)
}

func validateBillType(t BillType) error {
	switch t {
	case Expense, Income, SavingsTransfer:
		return nil
	default:
		return errors.NewValidationError("billType must be one of expense, income, savings_transfer")
	}
}

// computeStatus applies the payment decision table. today is YYYY-MM-DD.
func computeStatus(dueCents, paidCents int64, dueDate, today string) OccurrenceStatus {
	switch {
	case paidCents == 0:
		if dueDate < today {
			return StatusOverdue
		}
		return StatusUnpaid
	case paidCents < dueCents:
		return StatusPartial
	case paidCents == dueCents:
		return StatusPaid
	default:
		return StatusOverpaid
	}
}

// remainingCents derives the remaining amount; pinned to zero when overpaid
func remainingCents(dueCents, paidCents int64) int64 {
	if paidCents >= dueCents {
		return 0
	}
	return dueCents - paidCents
}

// daysLate counts whole days between the due date and a reference date,
// never negative.
func daysLate(dueDate, ref string) int {
	due, err := time.Parse(dateLayout, dueDate)
	if err != nil {
		return 0
	}
	refT, err := time.Parse(dateLayout, ref)
	if err != nil {
		return 0
	}
	d := int(refT.Sub(due).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
