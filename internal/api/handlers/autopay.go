package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/homeledger/backend/internal/api/middleware"
	"github.com/hirosato/homeledger/backend/internal/api/response"
	"github.com/hirosato/homeledger/backend/internal/domain/bills"
)

// AutopayHandler handles manual autopay run requests
type AutopayHandler struct {
	runner *bills.AutopayRunner
}

// NewAutopayHandler creates a new autopay handler
func NewAutopayHandler(runner *bills.AutopayRunner) *AutopayHandler {
	return &AutopayHandler{
		runner: runner,
	}
}

// Run handles POST /bills/autopay/run. The same runner backs the scheduled
// Lambda; here the run is scoped to the caller's household and may be a dry run.
func (h *AutopayHandler) Run(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	var req bills.AutopayRunRequest
	if request.Body != "" {
		if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
			return response.ValidationError("invalid request body", request.RequestContext.RequestID), nil
		}
	}
	if req.RunType == "" {
		req.RunType = "manual"
	}

	result, err := h.runner.Run(ctx, hh, &req)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(result, request.RequestContext.RequestID), nil
}
