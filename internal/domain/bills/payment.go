package bills

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hirosato/homeledger/backend/internal/common/utils"
	"github.com/hirosato/homeledger/backend/internal/domain/account"
	"github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
)

// RecordPayment applies a payment amount to an occurrence, appends the
// payment event and, when the template links a liability account, mutates
// that account's balance in the same database transaction.
func (s *Service) RecordPayment(ctx context.Context, hh *household.HouseholdContext, occurrenceID string, req *RecordPaymentRequest) (*BillOccurrence, error) {
	if req.AmountCents <= 0 {
		return nil, errors.NewValidationError("payment amount must be a positive amount in cents")
	}
	if err := utils.ValidateISODate(req.PaymentDate); err != nil {
		return nil, err
	}
	if req.PrincipalCents != 0 || req.InterestCents != 0 {
		if req.PrincipalCents < 0 || req.InterestCents < 0 {
			return nil, errors.NewValidationError("principal and interest must be non-negative")
		}
		if req.PrincipalCents+req.InterestCents != req.AmountCents {
			return nil, errors.NewValidationError("principal and interest must sum to the payment amount")
		}
	}

	occ, err := s.repo.GetOccurrence(ctx, hh.HouseholdID, occurrenceID)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.repo.GetTemplate(ctx, hh.HouseholdID, occ.TemplateID)
	if err != nil {
		return nil, err
	}

	var allocations []*Allocation
	if len(req.AllocationSplit) > 0 {
		allocations, err = s.repo.GetAllocations(ctx, hh.HouseholdID, occurrenceID)
		if err != nil {
			return nil, err
		}
		if err := validateAllocationSplit(req.AllocationSplit, req.AmountCents, allocations); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	today := now.Format(dateLayout)

	newPaid := occ.AmountPaidCents + req.AmountCents
	occ.AmountPaidCents = newPaid
	occ.AmountRemainingCents = remainingCents(occ.AmountDueCents, newPaid)
	occ.Status = computeStatus(occ.AmountDueCents, newPaid, occ.DueDate, today)
	occ.StatusManuallySet = false
	occ.UpdatedAt = now
	if occ.Status == StatusPaid || occ.Status == StatusOverpaid {
		occ.PaidDate = req.PaymentDate
		occ.DaysLate = daysLate(occ.DueDate, req.PaymentDate)
	} else {
		occ.DaysLate = daysLate(occ.DueDate, today)
	}

	event := &PaymentEvent{
		EventID:         ulid.Make().String(),
		OccurrenceID:    occ.OccurrenceID,
		TemplateID:      occ.TemplateID,
		HouseholdID:     hh.HouseholdID,
		TransactionID:   req.TransactionID,
		AmountCents:     req.AmountCents,
		PrincipalCents:  req.PrincipalCents,
		InterestCents:   req.InterestCents,
		PaymentDate:     req.PaymentDate,
		PaymentMethod:   req.PaymentMethod,
		SourceAccountID: req.SourceAccountID,
		Notes:           req.Notes,
		CreatedAt:       now,
	}
	occ.LastPaymentEventID = event.EventID

	// A payment against a bill linked to a liability account (a credit card
	// bill, say) reduces the amount owed on that account.
	var delta *AccountDelta
	if tmpl.LinkedAccountID != "" {
		linked, err := s.accounts.GetAccount(ctx, hh.HouseholdID, tmpl.LinkedAccountID)
		if err != nil {
			return nil, err
		}
		if linked.AccountType == account.Liability {
			before := linked.BalanceCents
			after := before - req.AmountCents
			event.BalanceBeforeCents = &before
			event.BalanceAfterCents = &after
			delta = &AccountDelta{AccountID: linked.AccountID, DeltaCents: -req.AmountCents}
		}
	}

	if err := s.repo.ApplyPayment(ctx, occ, event, delta); err != nil {
		return nil, err
	}

	if len(req.AllocationSplit) > 0 {
		applyAllocationSplit(req.AllocationSplit, allocations)
		if err := s.repo.PutAllocations(ctx, hh.HouseholdID, occurrenceID, allocations); err != nil {
			return nil, err
		}
	}

	// A paid one-time bill is done; deactivate the template so the generator
	// produces nothing further for it.
	if tmpl.RecurrenceType == OneTime && (occ.Status == StatusPaid || occ.Status == StatusOverpaid) {
		if err := s.repo.DeactivateTemplate(ctx, hh.HouseholdID, tmpl.TemplateID); err != nil {
			return nil, err
		}
	}

	return occ, nil
}

// SkipOccurrence marks an occurrence as skipped, an explicit manual override
func (s *Service) SkipOccurrence(ctx context.Context, hh *household.HouseholdContext, occurrenceID string) (*BillOccurrence, error) {
	occ, err := s.repo.GetOccurrence(ctx, hh.HouseholdID, occurrenceID)
	if err != nil {
		return nil, err
	}

	occ.Status = StatusSkipped
	occ.StatusManuallySet = true
	occ.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateOccurrence(ctx, occ); err != nil {
		return nil, err
	}
	return occ, nil
}

// ResetOccurrence zeros the paid amounts and recomputes the status from the
// due date. Payment events are an audit trail and stay untouched.
func (s *Service) ResetOccurrence(ctx context.Context, hh *household.HouseholdContext, occurrenceID string) (*BillOccurrence, error) {
	occ, err := s.repo.GetOccurrence(ctx, hh.HouseholdID, occurrenceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	today := now.Format(dateLayout)

	occ.AmountPaidCents = 0
	occ.AmountRemainingCents = occ.AmountDueCents
	occ.Status = computeStatus(occ.AmountDueCents, 0, occ.DueDate, today)
	occ.StatusManuallySet = false
	occ.PaidDate = ""
	occ.LastPaymentEventID = ""
	occ.DaysLate = daysLate(occ.DueDate, today)
	occ.UpdatedAt = now

	if err := s.repo.UpdateOccurrence(ctx, occ); err != nil {
		return nil, err
	}

	// Paid markers on allocations are derived from the occurrence's payments,
	// so a reset clears them too.
	allocations, err := s.repo.GetAllocations(ctx, hh.HouseholdID, occurrenceID)
	if err != nil {
		return nil, err
	}
	if len(allocations) > 0 {
		for _, a := range allocations {
			a.PaidAmountCents = 0
			a.IsPaid = false
		}
		if err := s.repo.PutAllocations(ctx, hh.HouseholdID, occurrenceID, allocations); err != nil {
			return nil, err
		}
	}

	return occ, nil
}

// DeleteOccurrence removes an occurrence together with its allocations and
// payment events. This is the only cascading delete in the subsystem.
func (s *Service) DeleteOccurrence(ctx context.Context, hh *household.HouseholdContext, occurrenceID string) error {
	occ, err := s.repo.GetOccurrence(ctx, hh.HouseholdID, occurrenceID)
	if err != nil {
		return err
	}

	allocations, err := s.repo.GetAllocations(ctx, hh.HouseholdID, occurrenceID)
	if err != nil {
		return err
	}
	for _, a := range allocations {
		if a.IsPaid {
			return errors.NewConflictError("occurrence has paid allocations and cannot be deleted")
		}
	}

	return s.repo.DeleteOccurrence(ctx, occ)
}

// GetAllocations lists the allocation set of an occurrence
func (s *Service) GetAllocations(ctx context.Context, hh *household.HouseholdContext, occurrenceID string) ([]*Allocation, error) {
	if _, err := s.repo.GetOccurrence(ctx, hh.HouseholdID, occurrenceID); err != nil {
		return nil, err
	}
	return s.repo.GetAllocations(ctx, hh.HouseholdID, occurrenceID)
}

// PutAllocations replaces the allocation set of an occurrence. The new set
// must sum to the occurrence's due amount, and an allocation that has already
// been paid cannot be dropped or shrunk below its paid amount.
func (s *Service) PutAllocations(ctx context.Context, hh *household.HouseholdContext, occurrenceID string, req *PutAllocationsRequest) ([]*Allocation, error) {
	occ, err := s.repo.GetOccurrence(ctx, hh.HouseholdID, occurrenceID)
	if err != nil {
		return nil, err
	}

	var sum int64
	seen := make(map[int]bool, len(req.Allocations))
	for _, in := range req.Allocations {
		if in.PeriodNumber <= 0 {
			return nil, errors.NewValidationError("allocation periodNumber must be positive")
		}
		if seen[in.PeriodNumber] {
			return nil, errors.NewValidationError(fmt.Sprintf("duplicate allocation period %d", in.PeriodNumber))
		}
		seen[in.PeriodNumber] = true
		if in.AllocatedAmountCents <= 0 {
			return nil, errors.NewValidationError("allocation amounts must be positive amounts in cents")
		}
		sum += in.AllocatedAmountCents
	}
	if sum != occ.AmountDueCents {
		return nil, errors.NewValidationError(fmt.Sprintf("allocation amounts must sum to the occurrence due amount: got %d, want %d", sum, occ.AmountDueCents))
	}

	existing, err := s.repo.GetAllocations(ctx, hh.HouseholdID, occurrenceID)
	if err != nil {
		return nil, err
	}
	existingByPeriod := make(map[int]*Allocation, len(existing))
	for _, a := range existing {
		existingByPeriod[a.PeriodNumber] = a
	}

	for _, a := range existing {
		if !a.IsPaid {
			continue
		}
		if !seen[a.PeriodNumber] {
			return nil, errors.NewValidationError(fmt.Sprintf("allocation period %d is already paid and cannot be deleted", a.PeriodNumber))
		}
	}

	allocations := make([]*Allocation, 0, len(req.Allocations))
	for _, in := range req.Allocations {
		alloc := &Allocation{
			OccurrenceID:         occurrenceID,
			HouseholdID:          hh.HouseholdID,
			PeriodNumber:         in.PeriodNumber,
			AllocatedAmountCents: in.AllocatedAmountCents,
		}
		if prev, ok := existingByPeriod[in.PeriodNumber]; ok {
			if prev.IsPaid && in.AllocatedAmountCents < prev.PaidAmountCents {
				return nil, errors.NewValidationError(fmt.Sprintf("allocation period %d cannot shrink below its paid amount", in.PeriodNumber))
			}
			alloc.PaidAmountCents = prev.PaidAmountCents
			alloc.IsPaid = prev.PaidAmountCents >= in.AllocatedAmountCents
		}
		allocations = append(allocations, alloc)
	}

	if err := s.repo.DeleteAllocations(ctx, hh.HouseholdID, occurrenceID); err != nil {
		return nil, err
	}
	if err := s.repo.PutAllocations(ctx, hh.HouseholdID, occurrenceID, allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}

// GetPaymentEvents lists the payment audit trail of an occurrence
func (s *Service) GetPaymentEvents(ctx context.Context, hh *household.HouseholdContext, occurrenceID string) ([]*PaymentEvent, error) {
	if _, err := s.repo.GetOccurrence(ctx, hh.HouseholdID, occurrenceID); err != nil {
		return nil, err
	}
	return s.repo.GetPaymentEvents(ctx, hh.HouseholdID, occurrenceID)
}

// validateAllocationSplit checks a payment's allocation split against the
// existing allocation set.
func validateAllocationSplit(split []AllocationPayment, amountCents int64, allocations []*Allocation) error {
	byPeriod := make(map[int]*Allocation, len(allocations))
	for _, a := range allocations {
		byPeriod[a.PeriodNumber] = a
	}

	var sum int64
	for _, p := range split {
		if p.AmountCents <= 0 {
			return errors.NewValidationError("allocation split amounts must be positive amounts in cents")
		}
		if _, ok := byPeriod[p.PeriodNumber]; !ok {
			return errors.NewValidationError(fmt.Sprintf("allocation period %d does not exist", p.PeriodNumber))
		}
		sum += p.AmountCents
	}
	if sum != amountCents {
		return errors.NewValidationError(fmt.Sprintf("allocation split must sum to the payment amount: got %d, want %d", sum, amountCents))
	}
	return nil
}

// applyAllocationSplit folds a validated split into the allocation rows
func applyAllocationSplit(split []AllocationPayment, allocations []*Allocation) {
	byPeriod := make(map[int]*Allocation, len(allocations))
	for _, a := range allocations {
		byPeriod[a.PeriodNumber] = a
	}
	for _, p := range split {
		alloc := byPeriod[p.PeriodNumber]
		alloc.PaidAmountCents += p.AmountCents
		alloc.IsPaid = alloc.PaidAmountCents >= alloc.AllocatedAmountCents
	}
}
