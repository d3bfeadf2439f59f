package bills

import (
	"time"

	"github.com/hirosato/homeledger/backend/internal/domain/errors"
)

// CadenceFrequency represents how often a recurring template produces occurrences
type CadenceFrequency string

const (
	Weekly    CadenceFrequency = "weekly"
	Biweekly  CadenceFrequency = "biweekly"
	Monthly   CadenceFrequency = "monthly"
	Quarterly CadenceFrequency = "quarterly"
	Annual    CadenceFrequency = "annual"
)

// Cadence describes when a template's occurrences fall due. StartDate anchors
// the series; for one_time templates it is the single due date and Frequency
// is left empty.
type Cadence struct {
	Frequency  CadenceFrequency `json:"frequency,omitempty"`
	Interval   int              `json:"interval,omitempty"`   // every N periods; 0 means unset and is treated as 1
	DayOfMonth int              `json:"dayOfMonth,omitempty"` // monthly/quarterly/annual, clamped to month length
	StartDate  string           `json:"startDate"`            // YYYY-MM-DD
	EndDate    string           `json:"endDate,omitempty"`    // YYYY-MM-DD, inclusive
}

const dateLayout = "2006-01-02"

// Validate checks the cadence configuration. Malformed cadences are rejected
// here, at template creation time; the occurrence generator assumes valid
// templates.
func (c Cadence) Validate(recurrence RecurrenceType) error {
	start, err := time.Parse(dateLayout, c.StartDate)
	if err != nil {
		return errors.NewValidationError("cadence startDate must be in YYYY-MM-DD format")
	}

	if c.EndDate != "" {
		end, err := time.Parse(dateLayout, c.EndDate)
		if err != nil {
			return errors.NewValidationError("cadence endDate must be in YYYY-MM-DD format")
		}
		if end.Before(start) {
			return errors.NewValidationError("cadence endDate must not be before startDate")
		}
	}

	if c.Interval < 0 {
		return errors.NewValidationError("cadence interval must not be negative")
	}

	if recurrence == OneTime {
		if c.Frequency != "" {
			return errors.NewValidationError("one_time bills must not specify a cadence frequency")
		}
		return nil
	}

	switch c.Frequency {
	case Weekly, Biweekly:
		if c.DayOfMonth != 0 {
			return errors.NewValidationError("dayOfMonth does not apply to weekly cadences")
		}
	case Monthly, Quarterly, Annual:
		if c.DayOfMonth < 0 || c.DayOfMonth > 31 {
			return errors.NewValidationError("cadence dayOfMonth must be between 1 and 31")
		}
	default:
		return errors.NewValidationError("cadence frequency must be one of weekly, biweekly, monthly, quarterly, annual")
	}

	return nil
}

// DueDatesBetween returns the due dates the cadence produces in [from, to],
// both inclusive, in ascending order. Dates are YYYY-MM-DD strings; the
// caller guarantees the cadence validated at template-creation time.
func (c Cadence) DueDatesBetween(recurrence RecurrenceType, from, to string) []string {
	fromT, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil
	}
	toT, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil
	}
	start, err := time.Parse(dateLayout, c.StartDate)
	if err != nil {
		return nil
	}

	if c.EndDate != "" {
		if end, err := time.Parse(dateLayout, c.EndDate); err == nil && end.Before(toT) {
			toT = end
		}
	}

	if recurrence == OneTime {
		if !start.Before(fromT) && !start.After(toT) {
			return []string{c.StartDate}
		}
		return nil
	}

	interval := c.Interval
	if interval <= 0 {
		interval = 1
	}

	var dates []string
	for i := 0; ; i++ {
		d := c.nthDueDate(start, i, interval)
		if d.After(toT) {
			break
		}
		if !d.Before(fromT) {
			dates = append(dates, d.Format(dateLayout))
		}
	}
	return dates
}

// nthDueDate computes the i-th due date of the series anchored at start.
func (c Cadence) nthDueDate(start time.Time, i, interval int) time.Time {
	switch c.Frequency {
	case Weekly:
		return start.AddDate(0, 0, 7*interval*i)
	case Biweekly:
		return start.AddDate(0, 0, 14*interval*i)
	case Monthly:
		return addMonthsClamped(start, interval*i, c.DayOfMonth)
	case Quarterly:
		return addMonthsClamped(start, 3*interval*i, c.DayOfMonth)
	case Annual:
		return addMonthsClamped(start, 12*interval*i, c.DayOfMonth)
	default:
		return start.AddDate(0, 0, 7*interval*i)
	}
}

// addMonthsClamped adds months to the anchor keeping the target day-of-month,
// clamping to the last day of shorter months (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(start time.Time, months, dayOfMonth int) time.Time {
	day := dayOfMonth
	if day == 0 {
		day = start.Day()
	}

	y, m, _ := start.Date()
	anchor := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)

	if last := daysInMonth(anchor.Year(), anchor.Month()); day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
