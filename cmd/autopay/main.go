package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"

	envconfig "github.com/hirosato/homeledger/backend/internal/common/config"
	"github.com/hirosato/homeledger/backend/internal/domain/bills"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
	"github.com/hirosato/homeledger/backend/internal/domain/notification"
	ddbclient "github.com/hirosato/homeledger/backend/internal/platform/dynamodb/client"
	"github.com/hirosato/homeledger/backend/internal/platform/dynamodb/repository"
)

// scheduleDetail is the payload carried by the EventBridge rule. Each rule
// targets a batch of households; the run date defaults to today.
type scheduleDetail struct {
	HouseholdIDs []string `json:"householdIds"`
	RunDate      string   `json:"runDate,omitempty"`
	DryRun       bool     `json:"dryRun,omitempty"`
}

var (
	logger           *slog.Logger
	config           *envconfig.Config
	householdService *household.Service
	autopayRunner    *bills.AutopayRunner
)

func init() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var err error
	config, err = envconfig.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load Env config: %v", err)
	}

	dbClient, err := ddbclient.NewDynamoDBClient(context.Background(), config.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to create DynamoDB client: %v", err)
	}

	factory := repository.NewFactory(dbClient, config.DynamoDBTableName, logger)

	householdService = household.NewService(factory.HouseholdRepository())
	accountRepo := factory.AccountRepository()
	billRepo := factory.BillRepository()
	billService := bills.NewService(billRepo, accountRepo)

	var webhook *notification.WebhookSender
	if config.WebhookURL != "" {
		secrets, err := secretcache.New()
		if err != nil {
			log.Fatalf("Failed to create secrets cache: %v", err)
		}
		webhook = notification.NewWebhookSender(config.WebhookURL, config.WebhookSecretID, secrets)
	}
	notificationService := notification.NewService(factory.NotificationRepository(), webhook, logger)

	autopayRunner = bills.NewAutopayRunner(billService, billRepo, accountRepo, notificationService, logger)
}

func handler(ctx context.Context, event events.CloudWatchEvent) error {
	var detail scheduleDetail
	if len(event.Detail) > 0 {
		if err := json.Unmarshal(event.Detail, &detail); err != nil {
			return fmt.Errorf("invalid schedule detail: %w", err)
		}
	}
	if len(detail.HouseholdIDs) == 0 {
		logger.Warn("scheduled autopay run with no households, nothing to do")
		return nil
	}

	var failed int
	for _, householdID := range detail.HouseholdIDs {
		// verify the household still exists before running against it
		if _, err := householdService.GetHousehold(ctx, householdID); err != nil {
			logger.Error("skipping unknown household", "householdId", householdID, "error", err)
			failed++
			continue
		}

		hh := &household.HouseholdContext{
			HouseholdID: householdID,
			UserID:      "system",
			Role:        "system",
		}
		result, err := autopayRunner.Run(ctx, hh, &bills.AutopayRunRequest{
			RunDate: detail.RunDate,
			RunType: "scheduled",
			DryRun:  detail.DryRun,
		})
		if err != nil {
			logger.Error("autopay run failed", "householdId", householdID, "error", err)
			failed++
			continue
		}

		logger.Info("autopay run complete",
			"householdId", householdID,
			"runDate", result.RunDate,
			"succeeded", result.SuccessCount,
			"failed", result.FailureCount,
			"skipped", result.SkippedCount,
		)
	}

	if failed > 0 {
		return fmt.Errorf("autopay run failed for %d of %d households", failed, len(detail.HouseholdIDs))
	}
	return nil
}

func main() {
	lambda.Start(handler)
}
