package middleware

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/homeledger/backend/internal/api/response"
	"github.com/hirosato/homeledger/backend/internal/common/utils"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
)

// HouseholdContextKey is the key for the household context in the request context
type HouseholdContextKey string

const (
	// HouseholdContextKeyValue is the context key for household information
	HouseholdContextKeyValue HouseholdContextKey = "household"
)

// HouseholdMiddleware resolves which household a request operates on and
// verifies the caller is a member of it. Runs after AuthMiddleware.
type HouseholdMiddleware struct {
	householdService *household.Service
}

// NewHouseholdMiddleware creates a new household middleware
func NewHouseholdMiddleware(householdService *household.Service) *HouseholdMiddleware {
	return &HouseholdMiddleware{
		householdService: householdService,
	}
}

// Handle handles the household middleware for Lambda functions
func (m *HouseholdMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if request.HTTPMethod == "OPTIONS" {
			return next(ctx, logger, request)
		}

		user, ok := GetUser(ctx)
		if !ok {
			return response.AuthenticationError("user not found in context", request.RequestContext.RequestID), nil
		}

		// The token's household is the default; the X-Household-Id header
		// switches to another household the user belongs to.
		householdID := user.DefaultHouseholdID
		if headerHouseholdID := request.Headers["X-Household-Id"]; headerHouseholdID != "" {
			householdID = headerHouseholdID
		} else if headerHouseholdID := request.Headers["x-household-id"]; headerHouseholdID != "" {
			householdID = headerHouseholdID
		}

		if householdID == "" {
			return response.HouseholdError("household id is required", request.RequestContext.RequestID), nil
		}
		if err := utils.ValidateHouseholdID(householdID); err != nil {
			return response.HouseholdError(err.Error(), request.RequestContext.RequestID), nil
		}

		householdCtx, err := m.householdService.VerifyMembership(ctx, householdID, user.ID)
		if err != nil {
			return response.FromError(err, request.RequestContext.RequestID), nil
		}

		ctx = context.WithValue(ctx, HouseholdContextKeyValue, householdCtx)

		return next(ctx, logger, request)
	}
}

// GetHouseholdID gets the household ID from the request context
func GetHouseholdID(ctx context.Context) string {
	householdCtx, ok := ctx.Value(HouseholdContextKeyValue).(*household.HouseholdContext)
	if !ok {
		return ""
	}
	return householdCtx.HouseholdID
}

// GetHouseholdContext gets the household context from the request context
func GetHouseholdContext(ctx context.Context) (*household.HouseholdContext, bool) {
	householdCtx, ok := ctx.Value(HouseholdContextKeyValue).(*household.HouseholdContext)
	return householdCtx, ok
}
