package bills

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hirosato/homeledger/backend/internal/common/utils"
	"github.com/hirosato/homeledger/backend/internal/domain/account"
	"github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
)

// AutopayErrorCode is the fixed vocabulary of autopay failure codes. Each
// code maps to user-facing notification copy.
type AutopayErrorCode string

const (
	AutopayErrInsufficientFunds AutopayErrorCode = "INSUFFICIENT_FUNDS"
	AutopayErrAccountNotFound   AutopayErrorCode = "ACCOUNT_NOT_FOUND"
	AutopayErrBillNotFound      AutopayErrorCode = "BILL_NOT_FOUND"
	AutopayErrInstanceNotFound  AutopayErrorCode = "INSTANCE_NOT_FOUND"
	AutopayErrAlreadyPaid       AutopayErrorCode = "ALREADY_PAID"
	AutopayErrInvalidConfig     AutopayErrorCode = "INVALID_CONFIGURATION"
	AutopayErrZeroAmount        AutopayErrorCode = "ZERO_AMOUNT"
	AutopayErrSystem            AutopayErrorCode = "SYSTEM_ERROR"
)

// AutopayRunRequest triggers an autopay run for a household
type AutopayRunRequest struct {
	RunDate string `json:"runDate"` // YYYY-MM-DD, defaults to today
	RunType string `json:"runType,omitempty"`
	DryRun  bool   `json:"dryRun,omitempty"`
}

// AutopayOutcome is the per-occurrence result of an autopay run
type AutopayOutcome struct {
	OccurrenceID    string           `json:"occurrenceId"`
	TemplateID      string           `json:"templateId"`
	TemplateName    string           `json:"templateName,omitempty"`
	DueDate         string           `json:"dueDate"`
	Status          string           `json:"status"` // success, failed, skipped
	ErrorCode       AutopayErrorCode `json:"errorCode,omitempty"`
	AmountCents     int64            `json:"amountCents,omitempty"`
	Currency        string           `json:"currency,omitempty"`
	SourceAccountID string           `json:"sourceAccountId,omitempty"`
}

// AutopayRunResult summarizes one autopay run
type AutopayRunResult struct {
	RunDate      string            `json:"runDate"`
	RunType      string            `json:"runType,omitempty"`
	DryRun       bool              `json:"dryRun"`
	Outcomes     []*AutopayOutcome `json:"outcomes"`
	SuccessCount int               `json:"successCount"`
	FailureCount int               `json:"failureCount"`
	SkippedCount int               `json:"skippedCount"`
}

// Notifier receives autopay outcomes for delivery to the household
type Notifier interface {
	AutopaySucceeded(ctx context.Context, hh *household.HouseholdContext, outcome *AutopayOutcome) error
	AutopayFailed(ctx context.Context, hh *household.HouseholdContext, outcome *AutopayOutcome) error
}

// AutopayRunner walks occurrences due within each enabled rule's lead window
// and attempts payments. Occurrences are processed sequentially within one
// run; re-running the same date is safe because an already settled occurrence
// fails with ALREADY_PAID rather than charging twice. That application-level
// check is the only at-most-once guarantee here; concurrent runs are not
// defended against with row locks.
type AutopayRunner struct {
	service  *Service
	repo     Repository
	accounts account.Repository
	notifier Notifier
	logger   *slog.Logger
}

// NewAutopayRunner creates a new autopay runner
func NewAutopayRunner(service *Service, repo Repository, accounts account.Repository, notifier Notifier, logger *slog.Logger) *AutopayRunner {
	return &AutopayRunner{
		service:  service,
		repo:     repo,
		accounts: accounts,
		notifier: notifier,
		logger:   logger,
	}
}

// Run executes one autopay pass for a household. With DryRun set it previews
// outcomes without recording payments or emitting notifications.
func (r *AutopayRunner) Run(ctx context.Context, hh *household.HouseholdContext, req *AutopayRunRequest) (*AutopayRunResult, error) {
	runDate := req.RunDate
	if runDate == "" {
		runDate = time.Now().UTC().Format(dateLayout)
	}
	if err := utils.ValidateISODate(runDate); err != nil {
		return nil, err
	}

	rules, err := r.repo.GetAutopayRules(ctx, hh.HouseholdID)
	if err != nil {
		return nil, err
	}

	ruleByTemplate := make(map[string]*AutopayRule, len(rules))
	maxLead := 0
	for _, rule := range rules {
		if !rule.IsEnabled {
			continue
		}
		ruleByTemplate[rule.TemplateID] = rule
		if rule.DaysBeforeDue > maxLead {
			maxLead = rule.DaysBeforeDue
		}
	}

	result := &AutopayRunResult{
		RunDate: runDate,
		RunType: req.RunType,
		DryRun:  req.DryRun,
	}
	if len(ruleByTemplate) == 0 {
		return result, nil
	}

	run, _ := time.Parse(dateLayout, runDate)
	horizon := run.AddDate(0, 0, maxLead).Format(dateLayout)

	// A dry run must leave occurrence and account state untouched, so the
	// rows a real run would generate are expanded in memory instead.
	if !req.DryRun {
		if err := r.service.EnsureOccurrences(ctx, hh, runDate, horizon); err != nil {
			return nil, err
		}
	}
	// Overdue occurrences stay chargeable, so reach back as well.
	lookback := run.AddDate(0, 0, -autopayLookbackDays).Format(dateLayout)
	occurrences, err := r.repo.GetOccurrencesByDateRange(ctx, hh.HouseholdID, lookback, horizon)
	if err != nil {
		return nil, err
	}
	if req.DryRun {
		occurrences, err = r.withPreviewOccurrences(ctx, hh, occurrences, runDate, horizon)
		if err != nil {
			return nil, err
		}
	}

	for _, occ := range occurrences {
		outcome := r.processOccurrence(ctx, hh, occ, ruleByTemplate[occ.TemplateID], runDate, req.DryRun)
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Status {
		case outcomeSuccess:
			result.SuccessCount++
		case outcomeFailed:
			result.FailureCount++
		default:
			result.SkippedCount++
		}

		if req.DryRun || r.notifier == nil || outcome.Status == outcomeSkipped {
			continue
		}
		var notifyErr error
		if outcome.Status == outcomeSuccess {
			notifyErr = r.notifier.AutopaySucceeded(ctx, hh, outcome)
		} else {
			notifyErr = r.notifier.AutopayFailed(ctx, hh, outcome)
		}
		if notifyErr != nil {
			r.logger.Warn("failed to deliver autopay notification",
				"occurrenceId", occ.OccurrenceID, "error", notifyErr)
		}
	}

	return result, nil
}

const (
	outcomeSuccess = "success"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"

	autopayLookbackDays = 60
)

// withPreviewOccurrences merges in-memory rows for the due dates [from, to]
// that a real run would have generated, without persisting anything. Preview
// rows carry throwaway IDs.
func (r *AutopayRunner) withPreviewOccurrences(ctx context.Context, hh *household.HouseholdContext, existing []*BillOccurrence, from, to string) ([]*BillOccurrence, error) {
	templates, err := r.repo.GetTemplates(ctx, hh.HouseholdID, false)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(existing))
	for _, occ := range existing {
		have[occ.TemplateID+"#"+occ.DueDate] = true
	}

	now := time.Now().UTC()
	today := now.Format(dateLayout)
	merged := existing
	for _, tmpl := range templates {
		for _, dueDate := range tmpl.Cadence.DueDatesBetween(tmpl.RecurrenceType, from, to) {
			if have[tmpl.TemplateID+"#"+dueDate] {
				continue
			}
			status := StatusUnpaid
			if dueDate < today {
				status = StatusOverdue
			}
			merged = append(merged, &BillOccurrence{
				OccurrenceID:         ulid.Make().String(),
				TemplateID:           tmpl.TemplateID,
				HouseholdID:          hh.HouseholdID,
				DueDate:              dueDate,
				AmountDueCents:       tmpl.AmountDueCents,
				AmountRemainingCents: tmpl.AmountDueCents,
				Status:               status,
				DaysLate:             daysLate(dueDate, today),
				CreatedAt:            now,
				UpdatedAt:            now,
			})
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].DueDate < merged[j].DueDate })
	return merged, nil
}

// processOccurrence attempts one charge and maps every failure to a distinct
// error code. No retries: a failure surfaces once and needs a manual re-run.
func (r *AutopayRunner) processOccurrence(ctx context.Context, hh *household.HouseholdContext, occ *BillOccurrence, rule *AutopayRule, runDate string, dryRun bool) *AutopayOutcome {
	outcome := &AutopayOutcome{
		OccurrenceID: occ.OccurrenceID,
		TemplateID:   occ.TemplateID,
		DueDate:      occ.DueDate,
		Status:       outcomeSkipped,
	}

	if rule == nil {
		return outcome
	}
	if !withinLeadWindow(occ.DueDate, runDate, rule.DaysBeforeDue) {
		return outcome
	}
	if occ.Status == StatusSkipped {
		return outcome
	}

	fail := func(code AutopayErrorCode) *AutopayOutcome {
		outcome.Status = outcomeFailed
		outcome.ErrorCode = code
		return outcome
	}

	if occ.Status == StatusPaid || occ.Status == StatusOverpaid || occ.AmountRemainingCents == 0 {
		return fail(AutopayErrAlreadyPaid)
	}

	tmpl, err := r.repo.GetTemplate(ctx, hh.HouseholdID, occ.TemplateID)
	if err != nil {
		return fail(AutopayErrBillNotFound)
	}
	outcome.TemplateName = tmpl.Name

	if rule.PayFromAccountID == "" {
		return fail(AutopayErrInvalidConfig)
	}

	var amount int64
	switch rule.AmountType {
	case AmountFixed:
		if rule.FixedAmountCents <= 0 {
			return fail(AutopayErrInvalidConfig)
		}
		amount = rule.FixedAmountCents
	case AmountFullBalance:
		amount = occ.AmountRemainingCents
	default:
		return fail(AutopayErrInvalidConfig)
	}
	if amount == 0 {
		return fail(AutopayErrZeroAmount)
	}
	outcome.AmountCents = amount
	outcome.SourceAccountID = rule.PayFromAccountID

	src, err := r.accounts.GetAccount(ctx, hh.HouseholdID, rule.PayFromAccountID)
	if err != nil {
		return fail(AutopayErrAccountNotFound)
	}
	outcome.Currency = src.Currency
	if src.AccountType == account.Asset && src.BalanceCents < amount {
		return fail(AutopayErrInsufficientFunds)
	}

	if dryRun {
		outcome.Status = outcomeSuccess
		return outcome
	}

	_, err = r.service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents:     amount,
		PaymentDate:     runDate,
		PaymentMethod:   "autopay",
		SourceAccountID: rule.PayFromAccountID,
	})
	if err != nil {
		if appErr, ok := err.(errors.AppError); ok && appErr.Code == "NOT_FOUND" {
			return fail(AutopayErrInstanceNotFound)
		}
		r.logger.Error("autopay payment failed",
			"occurrenceId", occ.OccurrenceID, "error", err)
		return fail(AutopayErrSystem)
	}

	outcome.Status = outcomeSuccess
	return outcome
}

// withinLeadWindow reports whether the occurrence is chargeable on runDate:
// at most daysBeforeDue ahead of the due date, or already past it.
func withinLeadWindow(dueDate, runDate string, daysBeforeDue int) bool {
	due, err := time.Parse(dateLayout, dueDate)
	if err != nil {
		return false
	}
	run, err := time.Parse(dateLayout, runDate)
	if err != nil {
		return false
	}
	return !run.Before(due.AddDate(0, 0, -daysBeforeDue))
}

// GetAutopayRule retrieves the autopay rule for a template
func (s *Service) GetAutopayRule(ctx context.Context, hh *household.HouseholdContext, templateID string) (*AutopayRule, error) {
	if _, err := s.repo.GetTemplate(ctx, hh.HouseholdID, templateID); err != nil {
		return nil, err
	}
	return s.repo.GetAutopayRule(ctx, hh.HouseholdID, templateID)
}

// PutAutopayRule upserts the autopay rule for a template. There is one rule
// per template; the write replaces any previous rule outright.
func (s *Service) PutAutopayRule(ctx context.Context, hh *household.HouseholdContext, templateID string, rule *AutopayRule) (*AutopayRule, error) {
	tmpl, err := s.repo.GetTemplate(ctx, hh.HouseholdID, templateID)
	if err != nil {
		return nil, err
	}

	if rule.AmountType != AmountFixed && rule.AmountType != AmountFullBalance {
		return nil, errors.NewValidationError("amountType must be fixed or full_balance")
	}
	if rule.AmountType == AmountFixed && rule.FixedAmountCents <= 0 {
		return nil, errors.NewValidationError("fixedAmountCents must be a positive amount in cents")
	}
	if rule.DaysBeforeDue < 0 {
		return nil, errors.NewValidationError("daysBeforeDue must not be negative")
	}
	if rule.PayFromAccountID == "" {
		return nil, errors.NewValidationError("payFromAccountId is required")
	}
	if _, err := s.accounts.GetAccount(ctx, hh.HouseholdID, rule.PayFromAccountID); err != nil {
		return nil, errors.NewValidationError("payFrom account does not exist")
	}

	rule.TemplateID = templateID
	rule.HouseholdID = hh.HouseholdID
	rule.UpdatedAt = time.Now().UTC()

	if err := s.repo.PutAutopayRule(ctx, rule); err != nil {
		return nil, err
	}

	if tmpl.HasAutopay != rule.IsEnabled {
		tmpl.HasAutopay = rule.IsEnabled
		tmpl.UpdatedAt = rule.UpdatedAt
		if _, err := s.repo.UpdateTemplate(ctx, tmpl); err != nil {
			return nil, err
		}
	}

	return rule, nil
}
