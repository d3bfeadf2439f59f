package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hirosato/homeledger/backend/internal/domain/account"
	commonErrors "github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/platform/dynamodb/client"
)

// DynamoDBAccountRepository implements the account.Repository interface
type DynamoDBAccountRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBAccountRepository creates a new DynamoDBAccountRepository
func NewDynamoDBAccountRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBAccountRepository {
	return &DynamoDBAccountRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

func accountSK(accountID string) string {
	return fmt.Sprintf("ACCOUNT#%s", accountID)
}

// CreateAccount creates a new account
func (r *DynamoDBAccountRepository) CreateAccount(ctx context.Context, acct *account.Account) (*account.Account, error) {
	item, err := attributevalue.MarshalMap(acct)
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal account", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: householdPK(acct.HouseholdID)}
	item["SK"] = &types.AttributeValueMemberS{Value: accountSK(acct.AccountID)}
	item["Type"] = &types.AttributeValueMemberS{Value: "account"}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return nil, commonErrors.NewConflictError("account already exists")
		}
		return nil, commonErrors.NewInternalError("failed to create account", err)
	}
	return acct, nil
}

// GetAccount retrieves an account by ID
func (r *DynamoDBAccountRepository) GetAccount(ctx context.Context, householdID string, accountID string) (*account.Account, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: householdPK(householdID)},
			"SK": &types.AttributeValueMemberS{Value: accountSK(accountID)},
		},
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get account", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError("account not found")
	}

	var acct account.Account
	if err := attributevalue.UnmarshalMap(result.Item, &acct); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal account", err)
	}
	return &acct, nil
}

// GetAccounts lists the household's accounts
func (r *DynamoDBAccountRepository) GetAccounts(ctx context.Context, householdID string) ([]*account.Account, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(householdPK(householdID))).
		And(expression.Key("SK").BeginsWith("ACCOUNT#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to query accounts", err)
	}

	accounts := make([]*account.Account, 0, len(result.Items))
	for _, item := range result.Items {
		var acct account.Account
		if err := attributevalue.UnmarshalMap(item, &acct); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal account", err)
		}
		accounts = append(accounts, &acct)
	}
	return accounts, nil
}

// ApplyBalanceDelta atomically adds deltaCents to the account balance and
// returns the new balance.
func (r *DynamoDBAccountRepository) ApplyBalanceDelta(ctx context.Context, householdID string, accountID string, deltaCents int64) (int64, error) {
	update := expression.Add(expression.Name("BalanceCents"), expression.Value(deltaCents))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, commonErrors.NewInternalError("failed to build expression", err)
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: householdPK(householdID)},
			"SK": &types.AttributeValueMemberS{Value: accountSK(accountID)},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConditionExpression:       aws.String("attribute_exists(PK)"),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return 0, commonErrors.NewNotFoundError("account not found")
		}
		return 0, commonErrors.NewInternalError("failed to apply balance delta", err)
	}

	var updated account.Account
	if err := attributevalue.UnmarshalMap(result.Attributes, &updated); err != nil {
		return 0, commonErrors.NewInternalError("failed to unmarshal account", err)
	}
	return updated.BalanceCents, nil
}
