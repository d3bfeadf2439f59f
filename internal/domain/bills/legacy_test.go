package bills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDollarsToCents(t *testing.T) {
	tests := []struct {
		dollars float64
		want    int64
	}{
		{0, 0},
		{1, 100},
		{12.5, 1250},
		{19.99, 1999},
		// Classic float trap: 0.1+0.2 style amounts still convert exactly
		{0.29, 29},
		{1499.99, 149999},
	}
	for _, tt := range tests {
		got, err := DollarsToCents(tt.dollars)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "dollars=%v", tt.dollars)
	}

	_, err := DollarsToCents(19.999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sub-cent")
}

func TestCentsToDollars(t *testing.T) {
	assert.Equal(t, 0.0, CentsToDollars(0))
	assert.Equal(t, 12.5, CentsToDollars(1250))
	assert.Equal(t, 19.99, CentsToDollars(1999))
	assert.Equal(t, -4.2, CentsToDollars(-420))
}

func TestLegacyBillRoundTrip(t *testing.T) {
	req, err := FromLegacyCreate(&LegacyCreateBillRequest{
		Name:       "Rent",
		Type:       "expense",
		Recurrence: "recurring",
		Frequency:  "monthly",
		Amount:     1500.50,
		DueDate:    "2030-01-01",
		EndDate:    "2030-12-31",
		CategoryID: "housing",
		AccountID:  "checking",
	})
	require.NoError(t, err)
	assert.Equal(t, Expense, req.BillType)
	assert.Equal(t, Recurring, req.RecurrenceType)
	assert.Equal(t, Monthly, req.Cadence.Frequency)
	assert.Equal(t, int64(150050), req.AmountDueCents)
	assert.Equal(t, "2030-01-01", req.Cadence.StartDate)
	assert.Equal(t, "2030-12-31", req.Cadence.EndDate)
	assert.Equal(t, "checking", req.LinkedAccountID)

	// The request validates even without an explicit dayOfMonth; the series
	// anchors on the start date's day.
	require.NoError(t, req.Cadence.Validate(req.RecurrenceType))

	legacy := ToLegacyBill(&BillTemplate{
		TemplateID:      "tmpl-1",
		Name:            req.Name,
		BillType:        req.BillType,
		RecurrenceType:  req.RecurrenceType,
		Cadence:         req.Cadence,
		AmountDueCents:  req.AmountDueCents,
		CategoryID:      req.CategoryID,
		LinkedAccountID: req.LinkedAccountID,
		IsActive:        true,
	})
	assert.Equal(t, "tmpl-1", legacy.ID)
	assert.Equal(t, "expense", legacy.Type)
	assert.Equal(t, "monthly", legacy.Frequency)
	assert.Equal(t, 1500.50, legacy.Amount)
	assert.Equal(t, "2030-01-01", legacy.DueDate)
	assert.Equal(t, "checking", legacy.AccountID)
	assert.True(t, legacy.IsActive)
}

func TestFromLegacyCreateRejectsSubCent(t *testing.T) {
	_, err := FromLegacyCreate(&LegacyCreateBillRequest{
		Name:       "Odd",
		Type:       "expense",
		Recurrence: "one_time",
		Amount:     10.005,
		DueDate:    "2030-01-01",
	})
	require.Error(t, err)
}
