package bills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCadenceValidate(t *testing.T) {
	tests := []struct {
		name       string
		cadence    Cadence
		recurrence RecurrenceType
		wantErr    string
	}{
		{
			name:       "valid monthly",
			cadence:    Cadence{Frequency: Monthly, DayOfMonth: 15, StartDate: "2026-01-15"},
			recurrence: Recurring,
		},
		{
			name:       "valid weekly",
			cadence:    Cadence{Frequency: Weekly, StartDate: "2026-01-05"},
			recurrence: Recurring,
		},
		{
			name:       "valid one time",
			cadence:    Cadence{StartDate: "2026-03-01"},
			recurrence: OneTime,
		},
		{
			name:       "bad start date",
			cadence:    Cadence{Frequency: Monthly, StartDate: "01/15/2026"},
			recurrence: Recurring,
			wantErr:    "startDate",
		},
		{
			name:       "end before start",
			cadence:    Cadence{Frequency: Monthly, StartDate: "2026-06-01", EndDate: "2026-01-01"},
			recurrence: Recurring,
			wantErr:    "endDate",
		},
		{
			name:       "one time with frequency",
			cadence:    Cadence{Frequency: Monthly, StartDate: "2026-03-01"},
			recurrence: OneTime,
			wantErr:    "one_time",
		},
		{
			name:       "unknown frequency",
			cadence:    Cadence{Frequency: "fortnightly", StartDate: "2026-01-01"},
			recurrence: Recurring,
			wantErr:    "frequency",
		},
		{
			name:       "dayOfMonth on weekly",
			cadence:    Cadence{Frequency: Weekly, DayOfMonth: 10, StartDate: "2026-01-05"},
			recurrence: Recurring,
			wantErr:    "dayOfMonth",
		},
		{
			name:       "dayOfMonth out of range",
			cadence:    Cadence{Frequency: Monthly, DayOfMonth: 32, StartDate: "2026-01-05"},
			recurrence: Recurring,
			wantErr:    "dayOfMonth",
		},
		{
			// Interval 0 means unset; the generator treats it as 1
			name:       "zero interval accepted",
			cadence:    Cadence{Frequency: Monthly, DayOfMonth: 15, Interval: 0, StartDate: "2026-01-15"},
			recurrence: Recurring,
		},
		{
			name:       "negative interval",
			cadence:    Cadence{Frequency: Monthly, DayOfMonth: 15, Interval: -1, StartDate: "2026-01-15"},
			recurrence: Recurring,
			wantErr:    "interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cadence.Validate(tt.recurrence)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDueDatesBetweenMonthly(t *testing.T) {
	c := Cadence{Frequency: Monthly, DayOfMonth: 15, StartDate: "2026-01-15"}

	dates := c.DueDatesBetween(Recurring, "2026-01-01", "2026-04-30")
	assert.Equal(t, []string{"2026-01-15", "2026-02-15", "2026-03-15", "2026-04-15"}, dates)

	// Window excludes dates before from
	dates = c.DueDatesBetween(Recurring, "2026-03-01", "2026-04-30")
	assert.Equal(t, []string{"2026-03-15", "2026-04-15"}, dates)
}

func TestDueDatesBetweenMonthEndClamp(t *testing.T) {
	// A bill anchored on the 31st lands on the last day of shorter months
	c := Cadence{Frequency: Monthly, DayOfMonth: 31, StartDate: "2026-01-31"}

	dates := c.DueDatesBetween(Recurring, "2026-01-01", "2026-04-30")
	assert.Equal(t, []string{"2026-01-31", "2026-02-28", "2026-03-31", "2026-04-30"}, dates)

	// Leap year February
	c = Cadence{Frequency: Monthly, DayOfMonth: 31, StartDate: "2028-01-31"}
	dates = c.DueDatesBetween(Recurring, "2028-02-01", "2028-02-29")
	assert.Equal(t, []string{"2028-02-29"}, dates)
}

func TestDueDatesBetweenInterval(t *testing.T) {
	// Every 2 months
	c := Cadence{Frequency: Monthly, Interval: 2, DayOfMonth: 1, StartDate: "2026-01-01"}
	dates := c.DueDatesBetween(Recurring, "2026-01-01", "2026-06-30")
	assert.Equal(t, []string{"2026-01-01", "2026-03-01", "2026-05-01"}, dates)
}

func TestDueDatesBetweenWeeklyAndBiweekly(t *testing.T) {
	c := Cadence{Frequency: Weekly, StartDate: "2026-01-05"}
	dates := c.DueDatesBetween(Recurring, "2026-01-01", "2026-01-31")
	assert.Equal(t, []string{"2026-01-05", "2026-01-12", "2026-01-19", "2026-01-26"}, dates)

	c = Cadence{Frequency: Biweekly, StartDate: "2026-01-05"}
	dates = c.DueDatesBetween(Recurring, "2026-01-01", "2026-01-31")
	assert.Equal(t, []string{"2026-01-05", "2026-01-19"}, dates)
}

func TestDueDatesBetweenQuarterlyAndAnnual(t *testing.T) {
	c := Cadence{Frequency: Quarterly, DayOfMonth: 1, StartDate: "2026-01-01"}
	dates := c.DueDatesBetween(Recurring, "2026-01-01", "2026-12-31")
	assert.Equal(t, []string{"2026-01-01", "2026-04-01", "2026-07-01", "2026-10-01"}, dates)

	c = Cadence{Frequency: Annual, DayOfMonth: 15, StartDate: "2026-06-15"}
	dates = c.DueDatesBetween(Recurring, "2026-01-01", "2028-12-31")
	assert.Equal(t, []string{"2026-06-15", "2027-06-15", "2028-06-15"}, dates)
}

func TestDueDatesBetweenEndDate(t *testing.T) {
	c := Cadence{Frequency: Monthly, DayOfMonth: 15, StartDate: "2026-01-15", EndDate: "2026-03-01"}
	dates := c.DueDatesBetween(Recurring, "2026-01-01", "2026-12-31")
	assert.Equal(t, []string{"2026-01-15", "2026-02-15"}, dates)
}

func TestDueDatesBetweenOneTime(t *testing.T) {
	c := Cadence{StartDate: "2026-03-01"}

	dates := c.DueDatesBetween(OneTime, "2026-01-01", "2026-12-31")
	assert.Equal(t, []string{"2026-03-01"}, dates)

	dates = c.DueDatesBetween(OneTime, "2026-04-01", "2026-12-31")
	assert.Empty(t, dates)
}
