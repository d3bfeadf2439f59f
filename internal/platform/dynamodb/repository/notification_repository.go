package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	commonErrors "github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/domain/notification"
	"github.com/hirosato/homeledger/backend/internal/platform/dynamodb/client"
)

// DynamoDBNotificationRepository implements the notification.Repository
// interface. Notification IDs are ULIDs, so the sort key orders rows by
// creation time and a descending query yields newest first.
type DynamoDBNotificationRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBNotificationRepository creates a new DynamoDBNotificationRepository
func NewDynamoDBNotificationRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBNotificationRepository {
	return &DynamoDBNotificationRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

func notificationSK(notificationID string) string {
	return fmt.Sprintf("NOTIFICATION#%s", notificationID)
}

// AppendNotification writes a notification row
func (r *DynamoDBNotificationRepository) AppendNotification(ctx context.Context, n *notification.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal notification", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: householdPK(n.HouseholdID)}
	item["SK"] = &types.AttributeValueMemberS{Value: notificationSK(n.NotificationID)}
	item["Type"] = &types.AttributeValueMemberS{Value: "notification"}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return commonErrors.NewInternalError("failed to append notification", err)
	}
	return nil
}

// GetNotifications retrieves the most recent notifications for a household
func (r *DynamoDBNotificationRepository) GetNotifications(ctx context.Context, householdID string, limit int) ([]*notification.Notification, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(householdPK(householdID))).
		And(expression.Key("SK").BeginsWith("NOTIFICATION#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to query notifications", err)
	}

	notifications := make([]*notification.Notification, 0, len(result.Items))
	for _, item := range result.Items {
		var n notification.Notification
		if err := attributevalue.UnmarshalMap(item, &n); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal notification", err)
		}
		notifications = append(notifications, &n)
	}
	return notifications, nil
}
