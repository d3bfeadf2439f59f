package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("a3bb189e-8bf9-3888-9912-ace4e6543002"))
	assert.Error(t, ValidateUUID("not-a-uuid"))
	assert.Error(t, ValidateUUID(""))
	assert.Error(t, ValidateUUID("a3bb189e-8bf9-3888-9912-ace4e654300"))
}

func TestValidateISODate(t *testing.T) {
	assert.NoError(t, ValidateISODate("2030-06-15"))
	assert.NoError(t, ValidateISODate("2028-02-29")) // leap day
	assert.Error(t, ValidateISODate("2030-6-15"))
	assert.Error(t, ValidateISODate("15/06/2030"))
	assert.Error(t, ValidateISODate("2030-02-30"))
	assert.Error(t, ValidateISODate(""))
}

func TestValidateCurrency(t *testing.T) {
	assert.NoError(t, ValidateCurrency("USD"))
	assert.NoError(t, ValidateCurrency("JPY"))
	assert.Error(t, ValidateCurrency("usd"))
	assert.Error(t, ValidateCurrency("DOLLARS"))
	assert.Error(t, ValidateCurrency(""))
}

func TestValidateCents(t *testing.T) {
	assert.NoError(t, ValidateCents(0, "amount"))
	assert.NoError(t, ValidateCents(12500, "amount"))
	err := ValidateCents(-1, "amount")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
}

func TestValidateHouseholdID(t *testing.T) {
	assert.NoError(t, ValidateHouseholdID("hh1"))
	assert.Error(t, ValidateHouseholdID(""))
	assert.Error(t, ValidateHouseholdID("   "))
}

func TestValidateRequiredString(t *testing.T) {
	assert.NoError(t, ValidateRequiredString("Rent", "name"))
	err := ValidateRequiredString("  ", "name")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}
