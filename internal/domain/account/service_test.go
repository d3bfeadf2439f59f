package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
)

type memRepo struct {
	accounts map[string]*Account
}

func newMemRepo() *memRepo {
	return &memRepo{accounts: make(map[string]*Account)}
}

func (r *memRepo) CreateAccount(ctx context.Context, acc *Account) (*Account, error) {
	r.accounts[acc.HouseholdID+"/"+acc.AccountID] = acc
	return acc, nil
}

func (r *memRepo) GetAccount(ctx context.Context, householdID, accountID string) (*Account, error) {
	acc, ok := r.accounts[householdID+"/"+accountID]
	if !ok {
		return nil, errors.NewNotFoundError("account not found")
	}
	return acc, nil
}

func (r *memRepo) GetAccounts(ctx context.Context, householdID string) ([]*Account, error) {
	var out []*Account
	for _, acc := range r.accounts {
		if acc.HouseholdID == householdID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *memRepo) ApplyBalanceDelta(ctx context.Context, householdID, accountID string, deltaCents int64) (int64, error) {
	acc, err := r.GetAccount(ctx, householdID, accountID)
	if err != nil {
		return 0, err
	}
	acc.BalanceCents += deltaCents
	return acc.BalanceCents, nil
}

func testContext() *household.HouseholdContext {
	return &household.HouseholdContext{HouseholdID: "hh1", UserID: "user1", Role: "owner"}
}

func TestCreateAccount(t *testing.T) {
	service := NewService(newMemRepo())
	ctx := context.Background()
	hh := testContext()

	acc, err := service.CreateAccount(ctx, hh, &CreateAccountRequest{
		Name:                "Checking",
		AccountType:         Asset,
		OpeningBalanceCents: 50000,
		Currency:            "USD",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, acc.AccountID)
	assert.Equal(t, "hh1", acc.HouseholdID)
	assert.Equal(t, int64(50000), acc.BalanceCents)
	assert.True(t, acc.IsActive)
}

func TestCreateAccountValidation(t *testing.T) {
	service := NewService(newMemRepo())
	ctx := context.Background()
	hh := testContext()

	t.Run("empty name", func(t *testing.T) {
		_, err := service.CreateAccount(ctx, hh, &CreateAccountRequest{
			AccountType: Asset, Currency: "USD",
		})
		require.Error(t, err)
	})

	t.Run("unknown account type", func(t *testing.T) {
		_, err := service.CreateAccount(ctx, hh, &CreateAccountRequest{
			Name: "Mystery", AccountType: "cryptocurrency", Currency: "USD",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accountType")
	})

	t.Run("empty account type", func(t *testing.T) {
		_, err := service.CreateAccount(ctx, hh, &CreateAccountRequest{
			Name: "Mystery", Currency: "USD",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accountType")
	})

	t.Run("bad currency", func(t *testing.T) {
		_, err := service.CreateAccount(ctx, hh, &CreateAccountRequest{
			Name: "Checking", AccountType: Asset, Currency: "dollars",
		})
		require.Error(t, err)
	})
}

func TestGetAccounts(t *testing.T) {
	service := NewService(newMemRepo())
	ctx := context.Background()
	hh := testContext()

	_, err := service.CreateAccount(ctx, hh, &CreateAccountRequest{
		Name: "Checking", AccountType: Asset, Currency: "USD",
	})
	require.NoError(t, err)
	_, err = service.CreateAccount(ctx, hh, &CreateAccountRequest{
		Name: "Visa", AccountType: Liability, Currency: "USD",
	})
	require.NoError(t, err)

	result, err := service.GetAccounts(ctx, hh)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)
}
