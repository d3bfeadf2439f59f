package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/hirosato/homeledger/backend/internal/domain/errors"
)

var (
	// UUIDRegex validates UUID strings
	UUIDRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

	// DateRegex validates ISO 8601 date strings (YYYY-MM-DD)
	DateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// CurrencyRegex validates 3-letter currency codes
	CurrencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ValidateUUID validates a UUID string
func ValidateUUID(uuid string) error {
	if !UUIDRegex.MatchString(uuid) {
		return errors.NewValidationError("invalid UUID format")
	}
	return nil
}

// ValidateISODate validates an ISO 8601 date string (YYYY-MM-DD)
func ValidateISODate(date string) error {
	if !DateRegex.MatchString(date) {
		return errors.NewValidationError("invalid date format, should be YYYY-MM-DD")
	}

	// Parse the date to ensure it's valid
	_, err := time.Parse("2006-01-02", date)
	if err != nil {
		return errors.NewValidationError("invalid date value")
	}

	return nil
}

// ValidateCurrency validates a currency code
func ValidateCurrency(currency string) error {
	if !CurrencyRegex.MatchString(currency) {
		return errors.NewValidationError("invalid currency code, should be a 3-letter code (e.g., USD)")
	}
	return nil
}

// ValidateCents validates an amount in integer cents
func ValidateCents(cents int64, fieldName string) error {
	if cents < 0 {
		return errors.NewValidationError(fieldName + " must be a non-negative amount in cents")
	}
	return nil
}

// ValidateHouseholdID validates a household ID
func ValidateHouseholdID(householdID string) error {
	if strings.TrimSpace(householdID) == "" {
		return errors.NewHouseholdError("household ID is required")
	}
	return nil
}

// ValidateRequiredString validates that a string is not empty
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(fieldName + " is required")
	}
	return nil
}
