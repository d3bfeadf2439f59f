package repository

import (
	"log/slog"

	"github.com/hirosato/homeledger/backend/internal/domain/account"
	"github.com/hirosato/homeledger/backend/internal/domain/bills"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
	"github.com/hirosato/homeledger/backend/internal/domain/notification"
	"github.com/hirosato/homeledger/backend/internal/platform/dynamodb/client"
)

// Factory creates repository instances
type Factory struct {
	client    client.Client
	tableName string
	logger    *slog.Logger
}

// NewFactory creates a new repository factory
func NewFactory(client client.Client, tableName string, logger *slog.Logger) *Factory {
	return &Factory{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// BillRepository returns an implementation of the bills.Repository interface
func (f *Factory) BillRepository() bills.Repository {
	return NewDynamoDBBillRepository(f.client, f.tableName, f.logger)
}

// AccountRepository returns an implementation of the account.Repository interface
func (f *Factory) AccountRepository() account.Repository {
	return NewDynamoDBAccountRepository(f.client, f.tableName, f.logger)
}

// HouseholdRepository returns an implementation of the household.Repository interface
func (f *Factory) HouseholdRepository() household.Repository {
	return NewDynamoDBHouseholdRepository(f.client, f.tableName, f.logger)
}

// NotificationRepository returns an implementation of the notification.Repository interface
func (f *Factory) NotificationRepository() notification.Repository {
	return NewDynamoDBNotificationRepository(f.client, f.tableName, f.logger)
}
