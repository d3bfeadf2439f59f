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

	commonErrors "github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
	"github.com/hirosato/homeledger/backend/internal/platform/dynamodb/client"
)

// DynamoDBHouseholdRepository implements the household.Repository interface
type DynamoDBHouseholdRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBHouseholdRepository creates a new DynamoDBHouseholdRepository
func NewDynamoDBHouseholdRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBHouseholdRepository {
	return &DynamoDBHouseholdRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

func memberSK(userID string) string {
	return fmt.Sprintf("MEMBER#%s", userID)
}

// GetHousehold retrieves a household by ID
func (r *DynamoDBHouseholdRepository) GetHousehold(ctx context.Context, householdID string) (*household.Household, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: householdPK(householdID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get household", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError("household not found")
	}

	var hh household.Household
	if err := attributevalue.UnmarshalMap(result.Item, &hh); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal household", err)
	}
	return &hh, nil
}

// CreateHousehold creates a new household
func (r *DynamoDBHouseholdRepository) CreateHousehold(ctx context.Context, hh *household.Household) (*household.Household, error) {
	item, err := attributevalue.MarshalMap(hh)
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal household", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: householdPK(hh.HouseholdID)}
	item["SK"] = &types.AttributeValueMemberS{Value: "METADATA"}
	item["Type"] = &types.AttributeValueMemberS{Value: "household"}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return nil, commonErrors.NewConflictError("household already exists")
		}
		return nil, commonErrors.NewInternalError("failed to create household", err)
	}
	return hh, nil
}

// GetMember retrieves a household member by user ID
func (r *DynamoDBHouseholdRepository) GetMember(ctx context.Context, householdID string, userID string) (*household.Member, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: householdPK(householdID)},
			"SK": &types.AttributeValueMemberS{Value: memberSK(userID)},
		},
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get household member", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError("household member not found")
	}

	var member household.Member
	if err := attributevalue.UnmarshalMap(result.Item, &member); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal household member", err)
	}
	return &member, nil
}

// GetMembers lists the household's members
func (r *DynamoDBHouseholdRepository) GetMembers(ctx context.Context, householdID string) ([]*household.Member, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(householdPK(householdID))).
		And(expression.Key("SK").BeginsWith("MEMBER#"))

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
		return nil, commonErrors.NewInternalError("failed to query household members", err)
	}

	members := make([]*household.Member, 0, len(result.Items))
	for _, item := range result.Items {
		var member household.Member
		if err := attributevalue.UnmarshalMap(item, &member); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal household member", err)
		}
		members = append(members, &member)
	}
	return members, nil
}

// AddMember adds a user to the household
func (r *DynamoDBHouseholdRepository) AddMember(ctx context.Context, member *household.Member) error {
	item, err := attributevalue.MarshalMap(member)
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal household member", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: householdPK(member.HouseholdID)}
	item["SK"] = &types.AttributeValueMemberS{Value: memberSK(member.UserID)}
	item["Type"] = &types.AttributeValueMemberS{Value: "household_member"}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewConflictError("user is already a member of this household")
		}
		return commonErrors.NewInternalError("failed to add household member", err)
	}
	return nil
}
