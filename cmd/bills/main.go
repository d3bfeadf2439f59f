package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
	"go.uber.org/zap"

	"github.com/hirosato/homeledger/backend/internal/api/handlers"
	"github.com/hirosato/homeledger/backend/internal/api/middleware"
	"github.com/hirosato/homeledger/backend/internal/api/response"
	envconfig "github.com/hirosato/homeledger/backend/internal/common/config"
	"github.com/hirosato/homeledger/backend/internal/domain/account"
	"github.com/hirosato/homeledger/backend/internal/domain/bills"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
	"github.com/hirosato/homeledger/backend/internal/domain/notification"
	"github.com/hirosato/homeledger/backend/internal/platform/cognito"
	ddbclient "github.com/hirosato/homeledger/backend/internal/platform/dynamodb/client"
	"github.com/hirosato/homeledger/backend/internal/platform/dynamodb/repository"
)

var (
	logger *slog.Logger
	config *envconfig.Config

	routedHandler middleware.APIGatewayHandler
)

func init() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var err error
	config, err = envconfig.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load Env config: %v", err)
	}

	awscfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	dbClient, err := ddbclient.NewDynamoDBClient(context.Background(), config.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to create DynamoDB client: %v", err)
	}

	cognitoClient := cognitoidentityprovider.NewFromConfig(awscfg)
	authService := cognito.NewService(cognitoClient, config, logger)

	factory := repository.NewFactory(dbClient, config.DynamoDBTableName, logger)

	householdService := household.NewService(factory.HouseholdRepository())
	accountRepo := factory.AccountRepository()
	accountService := account.NewService(accountRepo)
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

	autopayRunner := bills.NewAutopayRunner(billService, billRepo, accountRepo, notificationService, logger)

	billsHandler := handlers.NewBillsHandler(billService)
	autopayHandler := handlers.NewAutopayHandler(autopayRunner)
	accountsHandler := handlers.NewAccountsHandler(accountService)
	notificationsHandler := handlers.NewNotificationsHandler(notificationService)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create zap logger: %v", err)
	}

	routedHandler = middleware.Chain(
		route(billsHandler, autopayHandler, accountsHandler, notificationsHandler),
		middleware.NewLoggingMiddleware().Handle,
		middleware.NewRecoveryMiddleware().Handle,
		middleware.NewAuthMiddleware(config, authService, zapLogger).Handle,
		middleware.NewHouseholdMiddleware(householdService).Handle,
	)
}

func route(
	billsHandler *handlers.BillsHandler,
	autopayHandler *handlers.AutopayHandler,
	accountsHandler *handlers.AccountsHandler,
	notificationsHandler *handlers.NotificationsHandler,
) middleware.APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		path := strings.TrimSuffix(request.Path, "/")
		method := request.HTTPMethod

		switch {
		case path == "/bills" && method == "GET":
			return billsHandler.ListBills(ctx, logger, request)
		case path == "/bills" && method == "POST":
			return billsHandler.CreateBill(ctx, logger, request)
		case path == "/bills/templates" && method == "GET":
			return billsHandler.ListTemplates(ctx, logger, request)
		case path == "/bills/templates" && method == "POST":
			return billsHandler.CreateTemplate(ctx, logger, request)
		case path == "/bills/occurrences" && method == "GET":
			return billsHandler.ListOccurrences(ctx, logger, request)
		case path == "/bills/autopay/run" && method == "POST":
			return autopayHandler.Run(ctx, logger, request)
		case path == "/accounts" && method == "GET":
			return accountsHandler.ListAccounts(ctx, logger, request)
		case path == "/accounts" && method == "POST":
			return accountsHandler.CreateAccount(ctx, logger, request)
		case path == "/notifications" && method == "GET":
			return notificationsHandler.ListNotifications(ctx, logger, request)
		}

		if rest, ok := strings.CutPrefix(path, "/bills/templates/"); ok {
			templateID, sub, _ := strings.Cut(rest, "/")
			switch {
			case sub == "" && method == "GET":
				return billsHandler.GetTemplate(ctx, logger, request, templateID)
			case sub == "" && method == "PUT":
				return billsHandler.UpdateTemplate(ctx, logger, request, templateID)
			case sub == "" && method == "DELETE":
				return billsHandler.DeleteTemplate(ctx, logger, request, templateID)
			case sub == "autopay" && method == "GET":
				return billsHandler.GetAutopayRule(ctx, logger, request, templateID)
			case sub == "autopay" && method == "PUT":
				return billsHandler.PutAutopayRule(ctx, logger, request, templateID)
			}
		}

		if rest, ok := strings.CutPrefix(path, "/bills/occurrences/"); ok {
			occurrenceID, sub, _ := strings.Cut(rest, "/")
			switch {
			case sub == "" && method == "GET":
				return billsHandler.GetOccurrence(ctx, logger, request, occurrenceID)
			case sub == "" && method == "DELETE":
				return billsHandler.DeleteOccurrence(ctx, logger, request, occurrenceID)
			case sub == "pay" && method == "POST":
				return billsHandler.RecordPayment(ctx, logger, request, occurrenceID)
			case sub == "skip" && method == "POST":
				return billsHandler.SkipOccurrence(ctx, logger, request, occurrenceID)
			case sub == "reset" && method == "POST":
				return billsHandler.ResetOccurrence(ctx, logger, request, occurrenceID)
			case sub == "allocations" && method == "GET":
				return billsHandler.GetAllocations(ctx, logger, request, occurrenceID)
			case sub == "allocations" && method == "PUT":
				return billsHandler.PutAllocations(ctx, logger, request, occurrenceID)
			case sub == "payments" && method == "GET":
				return billsHandler.GetPaymentEvents(ctx, logger, request, occurrenceID)
			}
		}

		if accountID, ok := strings.CutPrefix(path, "/accounts/"); ok && method == "GET" && !strings.Contains(accountID, "/") {
			return accountsHandler.GetAccount(ctx, logger, request, accountID)
		}

		return response.NotFound("endpoint not found", request.RequestContext.RequestID), nil
	}
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// Handle CORS preflight
	if request.HTTPMethod == "OPTIONS" {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    response.DefaultHeaders(),
		}, nil
	}

	return routedHandler(ctx, logger, request)
}

func main() {
	lambda.Start(handler)
}
