package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/homeledger/backend/internal/api/middleware"
	"github.com/hirosato/homeledger/backend/internal/api/response"
	"github.com/hirosato/homeledger/backend/internal/domain/account"
)

// AccountsHandler handles account requests
type AccountsHandler struct {
	service *account.Service
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(service *account.Service) *AccountsHandler {
	return &AccountsHandler{
		service: service,
	}
}

// ListAccounts handles GET /accounts
func (h *AccountsHandler) ListAccounts(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	accounts, err := h.service.GetAccounts(ctx, hh)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(accounts, request.RequestContext.RequestID), nil
}

// CreateAccount handles POST /accounts
func (h *AccountsHandler) CreateAccount(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	var req account.CreateAccountRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.ValidationError("invalid request body", request.RequestContext.RequestID), nil
	}

	acct, err := h.service.CreateAccount(ctx, hh, &req)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.Created(acct, request.RequestContext.RequestID), nil
}

// GetAccount handles GET /accounts/{accountId}
func (h *AccountsHandler) GetAccount(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, accountID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	acct, err := h.service.GetAccount(ctx, hh, accountID)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(acct, request.RequestContext.RequestID), nil
}
