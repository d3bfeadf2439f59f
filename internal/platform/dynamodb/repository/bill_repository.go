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

	"github.com/hirosato/homeledger/backend/internal/domain/bills"
	commonErrors "github.com/hirosato/homeledger/backend/internal/domain/errors"
	"github.com/hirosato/homeledger/backend/internal/platform/dynamodb/client"
)

// DynamoDBBillRepository implements the bills.Repository interface over the
// single-table layout:
//
//	HOUSEHOLD#{h} / TEMPLATE#{templateID}
//	HOUSEHOLD#{h} / OCCURRENCE#{templateID}#DATE#{dueDate}   (uniqueness key)
//	HOUSEHOLD#{h} / ALLOCATION#{occurrenceID}#{period}
//	HOUSEHOLD#{h} / PAYMENT#{occurrenceID}#{eventID}
//	HOUSEHOLD#{h} / AUTOPAY#{templateID}
//
// GSI1 resolves occurrences by ID; GSI2 orders them by due date.
type DynamoDBBillRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBBillRepository creates a new DynamoDBBillRepository
func NewDynamoDBBillRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBBillRepository {
	return &DynamoDBBillRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

func householdPK(householdID string) string {
	return fmt.Sprintf("HOUSEHOLD#%s", householdID)
}

func templateSK(templateID string) string {
	return fmt.Sprintf("TEMPLATE#%s", templateID)
}

func occurrenceSK(templateID, dueDate string) string {
	return fmt.Sprintf("OCCURRENCE#%s#DATE#%s", templateID, dueDate)
}

func allocationSK(occurrenceID string, period int) string {
	return fmt.Sprintf("ALLOCATION#%s#%04d", occurrenceID, period)
}

func paymentSK(occurrenceID, eventID string) string {
	return fmt.Sprintf("PAYMENT#%s#%s", occurrenceID, eventID)
}

func autopaySK(templateID string) string {
	return fmt.Sprintf("AUTOPAY#%s", templateID)
}

// CreateTemplate creates a new bill template
func (r *DynamoDBBillRepository) CreateTemplate(ctx context.Context, tmpl *bills.BillTemplate) (*bills.BillTemplate, error) {
	item, err := attributevalue.MarshalMap(tmpl)
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal bill template", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: householdPK(tmpl.HouseholdID)}
	item["SK"] = &types.AttributeValueMemberS{Value: templateSK(tmpl.TemplateID)}
	item["Type"] = &types.AttributeValueMemberS{Value: "bill_template"}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return nil, commonErrors.NewConflictError("bill template already exists")
		}
		return nil, commonErrors.NewInternalError("failed to create bill template", err)
	}

	return tmpl, nil
}

// GetTemplate retrieves a bill template by ID
func (r *DynamoDBBillRepository) GetTemplate(ctx context.Context, householdID string, templateID string) (*bills.BillTemplate, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: householdPK(householdID)},
			"SK": &types.AttributeValueMemberS{Value: templateSK(templateID)},
		},
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get bill template", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError("bill template not found")
	}

	var tmpl bills.BillTemplate
	if err := attributevalue.UnmarshalMap(result.Item, &tmpl); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal bill template", err)
	}
	return &tmpl, nil
}

// GetTemplates retrieves the household's bill templates
func (r *DynamoDBBillRepository) GetTemplates(ctx context.Context, householdID string, includeInactive bool) ([]*bills.BillTemplate, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(householdPK(householdID))).
		And(expression.Key("SK").BeginsWith("TEMPLATE#"))

	builder := expression.NewBuilder().WithKeyCondition(keyCondition)
	if !includeInactive {
		builder = builder.WithFilter(expression.Name("IsActive").Equal(expression.Value(true)))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to query bill templates", err)
	}

	templates := make([]*bills.BillTemplate, 0, len(result.Items))
	for _, item := range result.Items {
		var tmpl bills.BillTemplate
		if err := attributevalue.UnmarshalMap(item, &tmpl); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal bill template", err)
		}
		templates = append(templates, &tmpl)
	}
	return templates, nil
}

// UpdateTemplate overwrites an existing bill template
func (r *DynamoDBBillRepository) UpdateTemplate(ctx context.Context, tmpl *bills.BillTemplate) (*bills.BillTemplate, error) {
	item, err := attributevalue.MarshalMap(tmpl)
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal bill template", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: householdPK(tmpl.HouseholdID)}
	item["SK"] = &types.AttributeValueMemberS{Value: templateSK(tmpl.TemplateID)}
	item["Type"] = &types.AttributeValueMemberS{Value: "bill_template"}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return nil, commonErrors.NewNotFoundError("bill template not found")
		}
		return nil, commonErrors.NewInternalError("failed to update bill template", err)
	}
	return tmpl, nil
}

// DeactivateTemplate flips a template's IsActive flag off
func (r *DynamoDBBillRepository) DeactivateTemplate(ctx context.Context, householdID string, templateID string) error {
	update := expression.Set(expression.Name("IsActive"), expression.Value(false))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: householdPK(householdID)},
			"SK": &types.AttributeValueMemberS{Value: templateSK(templateID)},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConditionExpression:       aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewNotFoundError("bill template not found")
		}
		return commonErrors.NewInternalError("failed to deactivate bill template", err)
	}
	return nil
}

// occurrenceItem marshals an occurrence with its table and index keys
func occurrenceItem(occ *bills.BillOccurrence) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(occ)
	if err != nil {
		return nil, err
	}
	item["PK"] = &types.AttributeValueMemberS{Value: householdPK(occ.HouseholdID)}
	item["SK"] = &types.AttributeValueMemberS{Value: occurrenceSK(occ.TemplateID, occ.DueDate)}
	item["GSI1PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("HOUSEHOLD#%s#OCCURRENCE#%s", occ.HouseholdID, occ.OccurrenceID)}
	item["GSI1SK"] = &types.AttributeValueMemberS{Value: "OCCURRENCE"}
	item["GSI2PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("HOUSEHOLD#%s#OCCURRENCES", occ.HouseholdID)}
	item["GSI2SK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("DATE#%s#%s", occ.DueDate, occ.OccurrenceID)}
	item["Type"] = &types.AttributeValueMemberS{Value: "bill_occurrence"}
	return item, nil
}

// CreateOccurrence conditionally creates an occurrence row. The sort key is
// template+dueDate, so a second expansion of the same range hits the
// condition and reports false instead of duplicating the row.
func (r *DynamoDBBillRepository) CreateOccurrence(ctx context.Context, occ *bills.BillOccurrence) (bool, error) {
	item, err := occurrenceItem(occ)
	if err != nil {
		return false, commonErrors.NewInternalError("failed to marshal bill occurrence", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return false, nil
		}
		return false, commonErrors.NewInternalError("failed to create bill occurrence", err)
	}
	return true, nil
}

// GetOccurrence retrieves an occurrence by ID via GSI1
func (r *DynamoDBBillRepository) GetOccurrence(ctx context.Context, householdID string, occurrenceID string) (*bills.BillOccurrence, error) {
	keyCondition := expression.Key("GSI1PK").
		Equal(expression.Value(fmt.Sprintf("HOUSEHOLD#%s#OCCURRENCE#%s", householdID, occurrenceID))).
		And(expression.Key("GSI1SK").Equal(expression.Value("OCCURRENCE")))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String("GSI1"),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1), // We expect only one item
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to query bill occurrence", err)
	}
	if len(result.Items) == 0 {
		return nil, commonErrors.NewNotFoundError("bill occurrence not found")
	}

	var occ bills.BillOccurrence
	if err := attributevalue.UnmarshalMap(result.Items[0], &occ); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal bill occurrence", err)
	}
	return &occ, nil
}

// GetOccurrencesByDateRange retrieves occurrences by due date via GSI2
func (r *DynamoDBBillRepository) GetOccurrencesByDateRange(ctx context.Context, householdID string, from, to string) ([]*bills.BillOccurrence, error) {
	keyCondition := expression.Key("GSI2PK").
		Equal(expression.Value(fmt.Sprintf("HOUSEHOLD#%s#OCCURRENCES", householdID))).
		And(expression.Key("GSI2SK").Between(
			expression.Value(fmt.Sprintf("DATE#%s", from)),
			expression.Value(fmt.Sprintf("DATE#%s\uFFFF", to)),
		))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String("GSI2"),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to query bill occurrences", err)
	}

	occurrences := make([]*bills.BillOccurrence, 0, len(result.Items))
	for _, item := range result.Items {
		var occ bills.BillOccurrence
		if err := attributevalue.UnmarshalMap(item, &occ); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal bill occurrence", err)
		}
		occurrences = append(occurrences, &occ)
	}
	return occurrences, nil
}

// UpdateOccurrence overwrites an occurrence row
func (r *DynamoDBBillRepository) UpdateOccurrence(ctx context.Context, occ *bills.BillOccurrence) error {
	item, err := occurrenceItem(occ)
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal bill occurrence", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewNotFoundError("bill occurrence not found")
		}
		return commonErrors.NewInternalError("failed to update bill occurrence", err)
	}
	return nil
}

// DeleteOccurrence removes an occurrence together with its allocations and
// payment events.
func (r *DynamoDBBillRepository) DeleteOccurrence(ctx context.Context, occ *bills.BillOccurrence) error {
	pk := householdPK(occ.HouseholdID)

	keys := []map[string]types.AttributeValue{{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: occurrenceSK(occ.TemplateID, occ.DueDate)},
	}}

	for _, prefix := range []string{
		fmt.Sprintf("ALLOCATION#%s#", occ.OccurrenceID),
		fmt.Sprintf("PAYMENT#%s#", occ.OccurrenceID),
	} {
		children, err := r.queryByPrefix(ctx, occ.HouseholdID, prefix)
		if err != nil {
			return err
		}
		for _, item := range children {
			keys = append(keys, map[string]types.AttributeValue{
				"PK": item["PK"],
				"SK": item["SK"],
			})
		}
	}

	// BatchWriteItem takes at most 25 requests per call
	for start := 0; start < len(keys); start += 25 {
		end := start + 25
		if end > len(keys) {
			end = len(keys)
		}
		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}
		_, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.table: requests},
		})
		if err != nil {
			return commonErrors.NewInternalError("failed to delete bill occurrence", err)
		}
	}
	return nil
}

// ApplyPayment persists the occurrence update, the payment event and the
// optional linked-account balance delta in one TransactWriteItems call.
func (r *DynamoDBBillRepository) ApplyPayment(ctx context.Context, occ *bills.BillOccurrence, event *bills.PaymentEvent, delta *bills.AccountDelta) error {
	occItem, err := occurrenceItem(occ)
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal bill occurrence", err)
	}

	eventItem, err := attributevalue.MarshalMap(event)
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal payment event", err)
	}
	eventItem["PK"] = &types.AttributeValueMemberS{Value: householdPK(event.HouseholdID)}
	eventItem["SK"] = &types.AttributeValueMemberS{Value: paymentSK(event.OccurrenceID, event.EventID)}
	eventItem["Type"] = &types.AttributeValueMemberS{Value: "bill_payment_event"}

	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           aws.String(r.table),
				Item:                occItem,
				ConditionExpression: aws.String("attribute_exists(PK)"),
			},
		},
		{
			Put: &types.Put{
				TableName:           aws.String(r.table),
				Item:                eventItem,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			},
		},
	}

	if delta != nil {
		update := expression.Add(expression.Name("BalanceCents"), expression.Value(delta.DeltaCents))
		expr, err := expression.NewBuilder().WithUpdate(update).Build()
		if err != nil {
			return commonErrors.NewInternalError("failed to build expression", err)
		}
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(r.table),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: householdPK(occ.HouseholdID)},
					"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("ACCOUNT#%s", delta.AccountID)},
				},
				UpdateExpression:          expr.Update(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
				ConditionExpression:       aws.String("attribute_exists(PK)"),
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to apply payment", err)
	}
	return nil
}

// GetPaymentEvents lists the payment events of an occurrence, oldest first
func (r *DynamoDBBillRepository) GetPaymentEvents(ctx context.Context, householdID string, occurrenceID string) ([]*bills.PaymentEvent, error) {
	items, err := r.queryByPrefix(ctx, householdID, fmt.Sprintf("PAYMENT#%s#", occurrenceID))
	if err != nil {
		return nil, err
	}

	events := make([]*bills.PaymentEvent, 0, len(items))
	for _, item := range items {
		var event bills.PaymentEvent
		if err := attributevalue.UnmarshalMap(item, &event); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal payment event", err)
		}
		events = append(events, &event)
	}
	return events, nil
}

// GetAllocations lists the allocation rows of an occurrence
func (r *DynamoDBBillRepository) GetAllocations(ctx context.Context, householdID string, occurrenceID string) ([]*bills.Allocation, error) {
	items, err := r.queryByPrefix(ctx, householdID, fmt.Sprintf("ALLOCATION#%s#", occurrenceID))
	if err != nil {
		return nil, err
	}

	allocations := make([]*bills.Allocation, 0, len(items))
	for _, item := range items {
		var alloc bills.Allocation
		if err := attributevalue.UnmarshalMap(item, &alloc); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal allocation", err)
		}
		allocations = append(allocations, &alloc)
	}
	return allocations, nil
}

// PutAllocations writes allocation rows
func (r *DynamoDBBillRepository) PutAllocations(ctx context.Context, householdID string, occurrenceID string, allocations []*bills.Allocation) error {
	for _, alloc := range allocations {
		item, err := attributevalue.MarshalMap(alloc)
		if err != nil {
			return commonErrors.NewInternalError("failed to marshal allocation", err)
		}
		item["PK"] = &types.AttributeValueMemberS{Value: householdPK(householdID)}
		item["SK"] = &types.AttributeValueMemberS{Value: allocationSK(occurrenceID, alloc.PeriodNumber)}
		item["Type"] = &types.AttributeValueMemberS{Value: "bill_allocation"}

		if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.table),
			Item:      item,
		}); err != nil {
			return commonErrors.NewInternalError("failed to put allocation", err)
		}
	}
	return nil
}

// DeleteAllocations removes every allocation row of an occurrence
func (r *DynamoDBBillRepository) DeleteAllocations(ctx context.Context, householdID string, occurrenceID string) error {
	items, err := r.queryByPrefix(ctx, householdID, fmt.Sprintf("ALLOCATION#%s#", occurrenceID))
	if err != nil {
		return err
	}

	for _, item := range items {
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.table),
			Key: map[string]types.AttributeValue{
				"PK": item["PK"],
				"SK": item["SK"],
			},
		}); err != nil {
			return commonErrors.NewInternalError("failed to delete allocation", err)
		}
	}
	return nil
}

// GetAutopayRule retrieves the autopay rule for a template
func (r *DynamoDBBillRepository) GetAutopayRule(ctx context.Context, householdID string, templateID string) (*bills.AutopayRule, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: householdPK(householdID)},
			"SK": &types.AttributeValueMemberS{Value: autopaySK(templateID)},
		},
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get autopay rule", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError("autopay rule not found")
	}

	var rule bills.AutopayRule
	if err := attributevalue.UnmarshalMap(result.Item, &rule); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal autopay rule", err)
	}
	return &rule, nil
}

// GetAutopayRules lists the household's autopay rules
func (r *DynamoDBBillRepository) GetAutopayRules(ctx context.Context, householdID string) ([]*bills.AutopayRule, error) {
	items, err := r.queryByPrefix(ctx, householdID, "AUTOPAY#")
	if err != nil {
		return nil, err
	}

	rules := make([]*bills.AutopayRule, 0, len(items))
	for _, item := range items {
		var rule bills.AutopayRule
		if err := attributevalue.UnmarshalMap(item, &rule); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal autopay rule", err)
		}
		rules = append(rules, &rule)
	}
	return rules, nil
}

// PutAutopayRule upserts the rule; a plain put, one rule per template
func (r *DynamoDBBillRepository) PutAutopayRule(ctx context.Context, rule *bills.AutopayRule) error {
	item, err := attributevalue.MarshalMap(rule)
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal autopay rule", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: householdPK(rule.HouseholdID)}
	item["SK"] = &types.AttributeValueMemberS{Value: autopaySK(rule.TemplateID)}
	item["Type"] = &types.AttributeValueMemberS{Value: "autopay_rule"}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return commonErrors.NewInternalError("failed to put autopay rule", err)
	}
	return nil
}

// queryByPrefix queries the base table for items whose SK begins with prefix
func (r *DynamoDBBillRepository) queryByPrefix(ctx context.Context, householdID, prefix string) ([]map[string]types.AttributeValue, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(householdPK(householdID))).
		And(expression.Key("SK").BeginsWith(prefix))

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
		return nil, commonErrors.NewInternalError("failed to query items", err)
	}
	return result.Items, nil
}
