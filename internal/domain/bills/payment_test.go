package bills

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/homeledger/backend/internal/domain/account"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
)

// seedOccurrence creates a template and a single occurrence due on dueDate
func seedOccurrence(t *testing.T, service *Service, hh *household.HouseholdContext, amountCents int64, dueDate string, opts ...func(*CreateTemplateRequest)) *BillOccurrence {
	t.Helper()
	req := &CreateTemplateRequest{
		Name:           "Seeded Bill",
		BillType:       Expense,
		RecurrenceType: Recurring,
		Cadence: Cadence{
			Frequency:  Monthly,
			DayOfMonth: mustDay(t, dueDate),
			StartDate:  dueDate,
			EndDate:    dueDate,
		},
		AmountDueCents: amountCents,
	}
	for _, opt := range opts {
		opt(req)
	}
	ctx := context.Background()
	_, err := service.CreateTemplate(ctx, hh, req)
	require.NoError(t, err)
	result, err := service.ListOccurrences(ctx, hh, dueDate, dueDate)
	require.NoError(t, err)
	require.Len(t, result.Occurrences, 1)
	return result.Occurrences[0]
}

func mustDay(t *testing.T, date string) int {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	return d.Day()
}

func TestRecordPaymentProgression(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 10000, "2030-06-15")

	occ1, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 6000, PaymentDate: "2030-06-10",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, occ1.Status)
	assert.Equal(t, int64(6000), occ1.AmountPaidCents)
	assert.Equal(t, int64(4000), occ1.AmountRemainingCents)
	assert.Empty(t, occ1.PaidDate)

	occ2, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 4000, PaymentDate: "2030-06-12",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, occ2.Status)
	assert.Equal(t, int64(0), occ2.AmountRemainingCents)
	assert.Equal(t, "2030-06-12", occ2.PaidDate)
	assert.Equal(t, 0, occ2.DaysLate)

	occ3, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 500, PaymentDate: "2030-06-13",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOverpaid, occ3.Status)
	assert.Equal(t, int64(10500), occ3.AmountPaidCents)
	assert.Equal(t, int64(0), occ3.AmountRemainingCents)

	paymentEvents, err := repo.GetPaymentEvents(ctx, "hh1", occ.OccurrenceID)
	require.NoError(t, err)
	require.Len(t, paymentEvents, 3)
	assert.Equal(t, paymentEvents[2].EventID, occ3.LastPaymentEventID)
}

func TestRecordPaymentValidation(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 10000, "2030-06-15")

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
			AmountCents: 0, PaymentDate: "2030-06-10",
		})
		require.Error(t, err)
	})

	t.Run("bad payment date", func(t *testing.T) {
		_, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
			AmountCents: 1000, PaymentDate: "06/10/2030",
		})
		require.Error(t, err)
	})

	t.Run("principal and interest must sum to amount", func(t *testing.T) {
		_, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
			AmountCents: 1000, PaymentDate: "2030-06-10", PrincipalCents: 800, InterestCents: 100,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sum")
	})

	t.Run("negative interest", func(t *testing.T) {
		_, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
			AmountCents: 1000, PaymentDate: "2030-06-10", PrincipalCents: 1100, InterestCents: -100,
		})
		require.Error(t, err)
	})

	t.Run("unknown occurrence", func(t *testing.T) {
		_, err := service.RecordPayment(ctx, hh, "missing", &RecordPaymentRequest{
			AmountCents: 1000, PaymentDate: "2030-06-10",
		})
		require.Error(t, err)
	})
}

func TestRecordPaymentPrincipalInterestBreakdown(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 150000, "2030-06-01")

	_, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 150000, PaymentDate: "2030-06-01", PrincipalCents: 120000, InterestCents: 30000,
	})
	require.NoError(t, err)

	paymentEvents, err := repo.GetPaymentEvents(ctx, "hh1", occ.OccurrenceID)
	require.NoError(t, err)
	require.Len(t, paymentEvents, 1)
	assert.Equal(t, int64(120000), paymentEvents[0].PrincipalCents)
	assert.Equal(t, int64(30000), paymentEvents[0].InterestCents)
}

func TestRecordPaymentLiabilityDelta(t *testing.T) {
	service, repo, accounts := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	_, err := accounts.CreateAccount(ctx, &account.Account{
		HouseholdID: "hh1", AccountID: "card1", Name: "Visa",
		AccountType: account.Liability, BalanceCents: 50000,
	})
	require.NoError(t, err)

	occ := seedOccurrence(t, service, hh, 20000, "2030-06-15", func(req *CreateTemplateRequest) {
		req.LinkedAccountID = "card1"
	})

	_, err = service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 20000, PaymentDate: "2030-06-14",
	})
	require.NoError(t, err)

	card, err := accounts.GetAccount(ctx, "hh1", "card1")
	require.NoError(t, err)
	assert.Equal(t, int64(30000), card.BalanceCents)

	paymentEvents, err := repo.GetPaymentEvents(ctx, "hh1", occ.OccurrenceID)
	require.NoError(t, err)
	require.Len(t, paymentEvents, 1)
	require.NotNil(t, paymentEvents[0].BalanceBeforeCents)
	require.NotNil(t, paymentEvents[0].BalanceAfterCents)
	assert.Equal(t, int64(50000), *paymentEvents[0].BalanceBeforeCents)
	assert.Equal(t, int64(30000), *paymentEvents[0].BalanceAfterCents)
}

func TestRecordPaymentAssetAccountUntouched(t *testing.T) {
	service, _, accounts := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	_, err := accounts.CreateAccount(ctx, &account.Account{
		HouseholdID: "hh1", AccountID: "checking", Name: "Checking",
		AccountType: account.Asset, BalanceCents: 100000,
	})
	require.NoError(t, err)

	occ := seedOccurrence(t, service, hh, 5000, "2030-06-15", func(req *CreateTemplateRequest) {
		req.LinkedAccountID = "checking"
	})

	_, err = service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 5000, PaymentDate: "2030-06-14",
	})
	require.NoError(t, err)

	acc, err := accounts.GetAccount(ctx, "hh1", "checking")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), acc.BalanceCents)
}

func TestRecordPaymentDeactivatesOneTimeTemplate(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()

	tmpl, err := service.CreateTemplate(ctx, hh, &CreateTemplateRequest{
		Name:           "Car Registration",
		BillType:       Expense,
		RecurrenceType: OneTime,
		Cadence:        Cadence{StartDate: "2030-06-15"},
		AmountDueCents: 12000,
	})
	require.NoError(t, err)

	result, err := service.ListOccurrences(ctx, hh, "2030-06-01", "2030-06-30")
	require.NoError(t, err)
	require.Len(t, result.Occurrences, 1)
	occ := result.Occurrences[0]

	// A partial payment leaves the template active
	_, err = service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 2000, PaymentDate: "2030-06-10",
	})
	require.NoError(t, err)
	got, err := repo.GetTemplate(ctx, "hh1", tmpl.TemplateID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	_, err = service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 10000, PaymentDate: "2030-06-12",
	})
	require.NoError(t, err)
	got, err = repo.GetTemplate(ctx, "hh1", tmpl.TemplateID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestSkipOccurrence(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 3000, "2030-06-15")

	skipped, err := service.SkipOccurrence(ctx, hh, occ.OccurrenceID)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, skipped.Status)
	assert.True(t, skipped.StatusManuallySet)
}

func TestResetOccurrence(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 10000, "2030-06-15")

	_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
		Allocations: []AllocationInput{
			{PeriodNumber: 1, AllocatedAmountCents: 4000},
			{PeriodNumber: 2, AllocatedAmountCents: 6000},
		},
	})
	require.NoError(t, err)

	_, err = service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 10000, PaymentDate: "2030-06-14",
		AllocationSplit: []AllocationPayment{
			{PeriodNumber: 1, AmountCents: 4000},
			{PeriodNumber: 2, AmountCents: 6000},
		},
	})
	require.NoError(t, err)

	reset, err := service.ResetOccurrence(ctx, hh, occ.OccurrenceID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reset.AmountPaidCents)
	assert.Equal(t, int64(10000), reset.AmountRemainingCents)
	assert.Empty(t, reset.PaidDate)
	assert.Empty(t, reset.LastPaymentEventID)

	allocations, err := service.GetAllocations(ctx, hh, occ.OccurrenceID)
	require.NoError(t, err)
	require.Len(t, allocations, 2)
	for _, a := range allocations {
		assert.False(t, a.IsPaid)
		assert.Equal(t, int64(0), a.PaidAmountCents)
	}

	// Audit trail survives the reset
	paymentEvents, err := repo.GetPaymentEvents(ctx, "hh1", occ.OccurrenceID)
	require.NoError(t, err)
	assert.Len(t, paymentEvents, 1)
}

func TestPutAllocationsValidation(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 10000, "2030-06-15")

	t.Run("sum mismatch", func(t *testing.T) {
		_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
			Allocations: []AllocationInput{{PeriodNumber: 1, AllocatedAmountCents: 9999}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sum")
	})

	t.Run("duplicate period", func(t *testing.T) {
		_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
			Allocations: []AllocationInput{
				{PeriodNumber: 1, AllocatedAmountCents: 5000},
				{PeriodNumber: 1, AllocatedAmountCents: 5000},
			},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("non-positive period", func(t *testing.T) {
		_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
			Allocations: []AllocationInput{{PeriodNumber: 0, AllocatedAmountCents: 10000}},
		})
		require.Error(t, err)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
			Allocations: []AllocationInput{
				{PeriodNumber: 1, AllocatedAmountCents: 10000},
				{PeriodNumber: 2, AllocatedAmountCents: 0},
			},
		})
		require.Error(t, err)
	})
}

func TestPutAllocationsProtectsPaidPeriods(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 10000, "2030-06-15")

	_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
		Allocations: []AllocationInput{
			{PeriodNumber: 1, AllocatedAmountCents: 4000},
			{PeriodNumber: 2, AllocatedAmountCents: 6000},
		},
	})
	require.NoError(t, err)

	// Pay off period 1 via a split payment
	_, err = service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 4000, PaymentDate: "2030-06-10",
		AllocationSplit: []AllocationPayment{{PeriodNumber: 1, AmountCents: 4000}},
	})
	require.NoError(t, err)

	t.Run("paid period cannot be dropped", func(t *testing.T) {
		_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
			Allocations: []AllocationInput{{PeriodNumber: 2, AllocatedAmountCents: 10000}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be deleted")
	})

	t.Run("paid period cannot shrink below paid amount", func(t *testing.T) {
		_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
			Allocations: []AllocationInput{
				{PeriodNumber: 1, AllocatedAmountCents: 3000},
				{PeriodNumber: 2, AllocatedAmountCents: 7000},
			},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shrink")
	})

	t.Run("resize keeps paid markers", func(t *testing.T) {
		allocations, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
			Allocations: []AllocationInput{
				{PeriodNumber: 1, AllocatedAmountCents: 5000},
				{PeriodNumber: 2, AllocatedAmountCents: 5000},
			},
		})
		require.NoError(t, err)
		require.Len(t, allocations, 2)
		assert.Equal(t, int64(4000), allocations[0].PaidAmountCents)
		// Grown above its paid amount, so no longer fully paid
		assert.False(t, allocations[0].IsPaid)
	})
}

func TestRecordPaymentAllocationSplit(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 10000, "2030-06-15")

	_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
		Allocations: []AllocationInput{
			{PeriodNumber: 1, AllocatedAmountCents: 4000},
			{PeriodNumber: 2, AllocatedAmountCents: 6000},
		},
	})
	require.NoError(t, err)

	t.Run("split must sum to payment amount", func(t *testing.T) {
		_, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
			AmountCents: 5000, PaymentDate: "2030-06-10",
			AllocationSplit: []AllocationPayment{{PeriodNumber: 1, AmountCents: 4000}},
		})
		require.Error(t, err)
	})

	t.Run("split against unknown period", func(t *testing.T) {
		_, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
			AmountCents: 1000, PaymentDate: "2030-06-10",
			AllocationSplit: []AllocationPayment{{PeriodNumber: 9, AmountCents: 1000}},
		})
		require.Error(t, err)
	})

	t.Run("valid split marks periods paid", func(t *testing.T) {
		_, err := service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
			AmountCents: 7000, PaymentDate: "2030-06-10",
			AllocationSplit: []AllocationPayment{
				{PeriodNumber: 1, AmountCents: 4000},
				{PeriodNumber: 2, AmountCents: 3000},
			},
		})
		require.NoError(t, err)

		allocations, err := service.GetAllocations(ctx, hh, occ.OccurrenceID)
		require.NoError(t, err)
		require.Len(t, allocations, 2)
		assert.True(t, allocations[0].IsPaid)
		assert.Equal(t, int64(4000), allocations[0].PaidAmountCents)
		assert.False(t, allocations[1].IsPaid)
		assert.Equal(t, int64(3000), allocations[1].PaidAmountCents)
	})
}

func TestDeleteOccurrence(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 10000, "2030-06-15")

	require.NoError(t, service.DeleteOccurrence(ctx, hh, occ.OccurrenceID))
	_, err := service.GetOccurrence(ctx, hh, occ.OccurrenceID)
	require.Error(t, err)

	require.Error(t, service.DeleteOccurrence(ctx, hh, occ.OccurrenceID))
}

func TestDeleteOccurrenceBlockedByPaidAllocation(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()
	hh := testHousehold()
	occ := seedOccurrence(t, service, hh, 10000, "2030-06-15")

	_, err := service.PutAllocations(ctx, hh, occ.OccurrenceID, &PutAllocationsRequest{
		Allocations: []AllocationInput{
			{PeriodNumber: 1, AllocatedAmountCents: 4000},
			{PeriodNumber: 2, AllocatedAmountCents: 6000},
		},
	})
	require.NoError(t, err)

	_, err = service.RecordPayment(ctx, hh, occ.OccurrenceID, &RecordPaymentRequest{
		AmountCents: 4000, PaymentDate: "2030-06-10",
		AllocationSplit: []AllocationPayment{{PeriodNumber: 1, AmountCents: 4000}},
	})
	require.NoError(t, err)

	err = service.DeleteOccurrence(ctx, hh, occ.OccurrenceID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paid allocations")

	occAfter, err := service.GetOccurrence(ctx, hh, occ.OccurrenceID)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), occAfter.AmountPaidCents)
}
