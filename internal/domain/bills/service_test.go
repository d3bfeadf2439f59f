package bills

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/homeledger/backend/internal/domain/account"
	"github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
)

// memRepo is an in-memory bills.Repository for service tests. Occurrence rows
// are keyed template+dueDate, mirroring the conditional-put uniqueness of the
// real store.
type memRepo struct {
	templates   map[string]*BillTemplate
	occurrences map[string]*BillOccurrence
	allocations map[string][]*Allocation
	events      map[string][]*PaymentEvent
	rules       map[string]*AutopayRule
	accounts    *memAccounts
}

func newMemRepo(accounts *memAccounts) *memRepo {
	return &memRepo{
		templates:   make(map[string]*BillTemplate),
		occurrences: make(map[string]*BillOccurrence),
		allocations: make(map[string][]*Allocation),
		events:      make(map[string][]*PaymentEvent),
		rules:       make(map[string]*AutopayRule),
		accounts:    accounts,
	}
}

func tmplKey(householdID, templateID string) string { return householdID + "/" + templateID }
func occKey(o *BillOccurrence) string {
	return o.HouseholdID + "/" + o.TemplateID + "/" + o.DueDate
}

func (r *memRepo) CreateTemplate(ctx context.Context, tmpl *BillTemplate) (*BillTemplate, error) {
	key := tmplKey(tmpl.HouseholdID, tmpl.TemplateID)
	if _, exists := r.templates[key]; exists {
		return nil, errors.NewConflictError("bill template already exists")
	}
	cp := *tmpl
	r.templates[key] = &cp
	return tmpl, nil
}

func (r *memRepo) GetTemplate(ctx context.Context, householdID, templateID string) (*BillTemplate, error) {
	tmpl, ok := r.templates[tmplKey(householdID, templateID)]
	if !ok {
		return nil, errors.NewNotFoundError("bill template not found")
	}
	cp := *tmpl
	return &cp, nil
}

func (r *memRepo) GetTemplates(ctx context.Context, householdID string, includeInactive bool) ([]*BillTemplate, error) {
	var out []*BillTemplate
	for _, tmpl := range r.templates {
		if tmpl.HouseholdID != householdID {
			continue
		}
		if !includeInactive && !tmpl.IsActive {
			continue
		}
		cp := *tmpl
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) UpdateTemplate(ctx context.Context, tmpl *BillTemplate) (*BillTemplate, error) {
	key := tmplKey(tmpl.HouseholdID, tmpl.TemplateID)
	if _, ok := r.templates[key]; !ok {
		return nil, errors.NewNotFoundError("bill template not found")
	}
	cp := *tmpl
	r.templates[key] = &cp
	return tmpl, nil
}

func (r *memRepo) DeactivateTemplate(ctx context.Context, householdID, templateID string) error {
	tmpl, ok := r.templates[tmplKey(householdID, templateID)]
	if !ok {
		return errors.NewNotFoundError("bill template not found")
	}
	tmpl.IsActive = false
	return nil
}

func (r *memRepo) CreateOccurrence(ctx context.Context, occ *BillOccurrence) (bool, error) {
	key := occKey(occ)
	if _, exists := r.occurrences[key]; exists {
		return false, nil
	}
	cp := *occ
	r.occurrences[key] = &cp
	return true, nil
}

func (r *memRepo) GetOccurrence(ctx context.Context, householdID, occurrenceID string) (*BillOccurrence, error) {
	for _, occ := range r.occurrences {
		if occ.HouseholdID == householdID && occ.OccurrenceID == occurrenceID {
			cp := *occ
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("bill occurrence not found")
}

func (r *memRepo) GetOccurrencesByDateRange(ctx context.Context, householdID, from, to string) ([]*BillOccurrence, error) {
	var out []*BillOccurrence
	for _, occ := range r.occurrences {
		if occ.HouseholdID == householdID && occ.DueDate >= from && occ.DueDate <= to {
			cp := *occ
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate < out[j].DueDate })
	return out, nil
}

func (r *memRepo) UpdateOccurrence(ctx context.Context, occ *BillOccurrence) error {
	key := occKey(occ)
	if _, ok := r.occurrences[key]; !ok {
		return errors.NewNotFoundError("bill occurrence not found")
	}
	cp := *occ
	r.occurrences[key] = &cp
	return nil
}

func (r *memRepo) DeleteOccurrence(ctx context.Context, occ *BillOccurrence) error {
	delete(r.occurrences, occKey(occ))
	delete(r.allocations, occ.HouseholdID+"/"+occ.OccurrenceID)
	delete(r.events, occ.HouseholdID+"/"+occ.OccurrenceID)
	return nil
}

func (r *memRepo) ApplyPayment(ctx context.Context, occ *BillOccurrence, event *PaymentEvent, delta *AccountDelta) error {
	if err := r.UpdateOccurrence(ctx, occ); err != nil {
		return err
	}
	evKey := occ.HouseholdID + "/" + occ.OccurrenceID
	cp := *event
	r.events[evKey] = append(r.events[evKey], &cp)
	if delta != nil {
		if _, err := r.accounts.ApplyBalanceDelta(ctx, occ.HouseholdID, delta.AccountID, delta.DeltaCents); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRepo) GetPaymentEvents(ctx context.Context, householdID, occurrenceID string) ([]*PaymentEvent, error) {
	return r.events[householdID+"/"+occurrenceID], nil
}

func (r *memRepo) GetAllocations(ctx context.Context, householdID, occurrenceID string) ([]*Allocation, error) {
	var out []*Allocation
	for _, a := range r.allocations[householdID+"/"+occurrenceID] {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodNumber < out[j].PeriodNumber })
	return out, nil
}

func (r *memRepo) PutAllocations(ctx context.Context, householdID, occurrenceID string, allocations []*Allocation) error {
	key := householdID + "/" + occurrenceID
	byPeriod := make(map[int]*Allocation)
	for _, a := range r.allocations[key] {
		byPeriod[a.PeriodNumber] = a
	}
	for _, a := range allocations {
		cp := *a
		byPeriod[a.PeriodNumber] = &cp
	}
	out := make([]*Allocation, 0, len(byPeriod))
	for _, a := range byPeriod {
		out = append(out, a)
	}
	r.allocations[key] = out
	return nil
}

func (r *memRepo) DeleteAllocations(ctx context.Context, householdID, occurrenceID string) error {
	delete(r.allocations, householdID+"/"+occurrenceID)
	return nil
}

func (r *memRepo) GetAutopayRule(ctx context.Context, householdID, templateID string) (*AutopayRule, error) {
	rule, ok := r.rules[tmplKey(householdID, templateID)]
	if !ok {
		return nil, errors.NewNotFoundError("autopay rule not found")
	}
	cp := *rule
	return &cp, nil
}

func (r *memRepo) GetAutopayRules(ctx context.Context, householdID string) ([]*AutopayRule, error) {
	var out []*AutopayRule
	for _, rule := range r.rules {
		if rule.HouseholdID == householdID {
			cp := *rule
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) PutAutopayRule(ctx context.Context, rule *AutopayRule) error {
	cp := *rule
	r.rules[tmplKey(rule.HouseholdID, rule.TemplateID)] = &cp
	return nil
}

// memAccounts is an in-memory account.Repository
type memAccounts struct {
	accounts map[string]*account.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: make(map[string]*account.Account)}
}

func (r *memAccounts) CreateAccount(ctx context.Context, acc *account.Account) (*account.Account, error) {
	r.accounts[acc.HouseholdID+"/"+acc.AccountID] = acc
	return acc, nil
}

func (r *memAccounts) GetAccount(ctx context.Context, householdID, accountID string) (*account.Account, error) {
	acc, ok := r.accounts[householdID+"/"+accountID]
	if !ok {
		return nil, errors.NewNotFoundError("account not found")
	}
	cp := *acc
	return &cp, nil
}

func (r *memAccounts) GetAccounts(ctx context.Context, householdID string) ([]*account.Account, error) {
	var out []*account.Account
	for _, acc := range r.accounts {
		if acc.HouseholdID == householdID {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memAccounts) ApplyBalanceDelta(ctx context.Context, householdID, accountID string, deltaCents int64) (int64, error) {
	acc, ok := r.accounts[householdID+"/"+accountID]
	if !ok {
		return 0, errors.NewNotFoundError("account not found")
	}
	acc.BalanceCents += deltaCents
	return acc.BalanceCents, nil
}

func testHousehold() *household.HouseholdContext {
	return &household.HouseholdContext{HouseholdID: "hh1", UserID: "user1", Role: "owner"}
}

func newTestService() (*Service, *memRepo, *memAccounts) {
	accounts := newMemAccounts()
	repo := newMemRepo(accounts)
	return NewService(repo, accounts), repo, accounts
}

func TestComputeStatus(t *testing.T) {
	tests := []struct {
		name    string
		due     int64
		paid    int64
		dueDate string
		today   string
		want    OccurrenceStatus
	}{
		{"nothing paid, not yet due", 10000, 0, "2026-09-15", "2026-09-01", StatusUnpaid},
		{"nothing paid, due today", 10000, 0, "2026-09-01", "2026-09-01", StatusUnpaid},
		{"nothing paid, past due", 10000, 0, "2026-08-15", "2026-09-01", StatusOverdue},
		{"partially paid", 10000, 6000, "2026-09-15", "2026-09-01", StatusPartial},
		{"partially paid past due stays partial", 10000, 6000, "2026-08-15", "2026-09-01", StatusPartial},
		{"exactly paid", 10000, 10000, "2026-09-15", "2026-09-01", StatusPaid},
		{"overpaid", 10000, 10500, "2026-09-15", "2026-09-01", StatusOverpaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeStatus(tt.due, tt.paid, tt.dueDate, tt.today))
		})
	}
}

func TestRemainingCents(t *testing.T) {
	assert.Equal(t, int64(10000), remainingCents(10000, 0))
	assert.Equal(t, int64(4000), remainingCents(10000, 6000))
	assert.Equal(t, int64(0), remainingCents(10000, 10000))
	// Overpayment pins remaining to zero, never negative
	assert.Equal(t, int64(0), remainingCents(10000, 10500))
}

func TestDaysLate(t *testing.T) {
	assert.Equal(t, 0, daysLate("2026-09-15", "2026-09-15"))
	assert.Equal(t, 17, daysLate("2026-09-15", "2026-10-02"))
	// Early is never negative
	assert.Equal(t, 0, daysLate("2026-09-15", "2026-09-01"))
}

func TestCreateTemplateValidation(t *testing.T) {
	service, _, accounts := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	valid := func() *CreateTemplateRequest {
		return &CreateTemplateRequest{
			Name:           "Rent",
			BillType:       Expense,
			RecurrenceType: Recurring,
			Cadence:        Cadence{Frequency: Monthly, DayOfMonth: 1, StartDate: "2026-01-01"},
			AmountDueCents: 150000,
		}
	}

	t.Run("valid request", func(t *testing.T) {
		tmpl, err := service.CreateTemplate(ctx, hh, valid())
		require.NoError(t, err)
		assert.NotEmpty(t, tmpl.TemplateID)
		assert.True(t, tmpl.IsActive)
	})

	t.Run("empty name", func(t *testing.T) {
		req := valid()
		req.Name = ""
		_, err := service.CreateTemplate(ctx, hh, req)
		require.Error(t, err)
	})

	t.Run("bad bill type", func(t *testing.T) {
		req := valid()
		req.BillType = "subscription"
		_, err := service.CreateTemplate(ctx, hh, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "billType")
	})

	t.Run("bad recurrence type", func(t *testing.T) {
		req := valid()
		req.RecurrenceType = "sometimes"
		_, err := service.CreateTemplate(ctx, hh, req)
		require.Error(t, err)
	})

	t.Run("zero amount", func(t *testing.T) {
		req := valid()
		req.AmountDueCents = 0
		_, err := service.CreateTemplate(ctx, hh, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "amountDueCents")
	})

	t.Run("unknown linked account", func(t *testing.T) {
		req := valid()
		req.LinkedAccountID = "nope"
		_, err := service.CreateTemplate(ctx, hh, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "linked account")
	})

	t.Run("known linked account", func(t *testing.T) {
		_, err := accounts.CreateAccount(ctx, &account.Account{
			HouseholdID: "hh1", AccountID: "card1", Name: "Card", AccountType: account.Liability,
		})
		require.NoError(t, err)
		req := valid()
		req.LinkedAccountID = "card1"
		_, err = service.CreateTemplate(ctx, hh, req)
		require.NoError(t, err)
	})
}

func TestEnsureOccurrencesIdempotent(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	_, err := service.CreateTemplate(ctx, hh, &CreateTemplateRequest{
		Name:           "Electric",
		BillType:       Expense,
		RecurrenceType: Recurring,
		Cadence:        Cadence{Frequency: Monthly, DayOfMonth: 15, StartDate: "2030-01-15"},
		AmountDueCents: 12500,
	})
	require.NoError(t, err)

	require.NoError(t, service.EnsureOccurrences(ctx, hh, "2030-01-01", "2030-03-31"))
	first, err := repo.GetOccurrencesByDateRange(ctx, "hh1", "2030-01-01", "2030-03-31")
	require.NoError(t, err)
	require.Len(t, first, 3)

	// Overlapping re-run creates nothing new and keeps existing IDs
	require.NoError(t, service.EnsureOccurrences(ctx, hh, "2030-01-01", "2030-04-30"))
	second, err := repo.GetOccurrencesByDateRange(ctx, "hh1", "2030-01-01", "2030-04-30")
	require.NoError(t, err)
	require.Len(t, second, 4)
	for i := range first {
		assert.Equal(t, first[i].OccurrenceID, second[i].OccurrenceID)
	}
}

func TestEnsureOccurrencesMarksPastDatesOverdue(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	_, err := service.CreateTemplate(ctx, hh, &CreateTemplateRequest{
		Name:           "Old Bill",
		BillType:       Expense,
		RecurrenceType: Recurring,
		Cadence:        Cadence{Frequency: Monthly, DayOfMonth: 15, StartDate: "2020-01-15", EndDate: "2020-02-28"},
		AmountDueCents: 5000,
	})
	require.NoError(t, err)

	require.NoError(t, service.EnsureOccurrences(ctx, hh, "2020-01-01", "2020-03-31"))
	occurrences, err := repo.GetOccurrencesByDateRange(ctx, "hh1", "2020-01-01", "2020-03-31")
	require.NoError(t, err)
	require.Len(t, occurrences, 2)
	for _, occ := range occurrences {
		assert.Equal(t, StatusOverdue, occ.Status)
		assert.Positive(t, occ.DaysLate)
	}
}

func TestEnsureOccurrencesSkipsInactiveTemplates(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	tmpl, err := service.CreateTemplate(ctx, hh, &CreateTemplateRequest{
		Name:           "Cancelled Gym",
		BillType:       Expense,
		RecurrenceType: Recurring,
		Cadence:        Cadence{Frequency: Monthly, DayOfMonth: 1, StartDate: "2030-01-01"},
		AmountDueCents: 3000,
	})
	require.NoError(t, err)
	require.NoError(t, service.DeactivateTemplate(ctx, hh, tmpl.TemplateID))

	require.NoError(t, service.EnsureOccurrences(ctx, hh, "2030-01-01", "2030-03-31"))
	occurrences, err := repo.GetOccurrencesByDateRange(ctx, "hh1", "2030-01-01", "2030-03-31")
	require.NoError(t, err)
	assert.Empty(t, occurrences)
}

func TestEnsureOccurrencesRangeValidation(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	err := service.EnsureOccurrences(ctx, hh, "2030-03-01", "2030-01-01")
	require.Error(t, err)

	err = service.EnsureOccurrences(ctx, hh, "not-a-date", "2030-01-01")
	require.Error(t, err)
}

func TestListOccurrencesGeneratesLazily(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	_, err := service.CreateTemplate(ctx, hh, &CreateTemplateRequest{
		Name:           "Water",
		BillType:       Expense,
		RecurrenceType: Recurring,
		Cadence:        Cadence{Frequency: Monthly, DayOfMonth: 10, StartDate: "2030-01-10"},
		AmountDueCents: 4500,
	})
	require.NoError(t, err)

	result, err := service.ListOccurrences(ctx, hh, "2030-01-01", "2030-02-28")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, "2030-01-10", result.Occurrences[0].DueDate)
	assert.Equal(t, "2030-02-10", result.Occurrences[1].DueDate)
}

func TestUpdateTemplate(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	tmpl, err := service.CreateTemplate(ctx, hh, &CreateTemplateRequest{
		Name:           "Internet",
		BillType:       Expense,
		RecurrenceType: Recurring,
		Cadence:        Cadence{Frequency: Monthly, DayOfMonth: 1, StartDate: "2030-01-01"},
		AmountDueCents: 8000,
	})
	require.NoError(t, err)

	newName := "Fiber Internet"
	newAmount := int64(9500)
	updated, err := service.UpdateTemplate(ctx, hh, tmpl.TemplateID, &UpdateTemplateRequest{
		Name:           &newName,
		AmountDueCents: &newAmount,
	})
	require.NoError(t, err)
	assert.Equal(t, "Fiber Internet", updated.Name)
	assert.Equal(t, int64(9500), updated.AmountDueCents)
	// Unspecified fields keep their values
	assert.Equal(t, Monthly, updated.Cadence.Frequency)

	badAmount := int64(-1)
	_, err = service.UpdateTemplate(ctx, hh, tmpl.TemplateID, &UpdateTemplateRequest{AmountDueCents: &badAmount})
	require.Error(t, err)
}
