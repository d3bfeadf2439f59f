package handlers

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/homeledger/backend/internal/api/middleware"
	"github.com/hirosato/homeledger/backend/internal/api/response"
	"github.com/hirosato/homeledger/backend/internal/domain/notification"
)

// NotificationsHandler handles notification requests
type NotificationsHandler struct {
	service *notification.Service
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(service *notification.Service) *NotificationsHandler {
	return &NotificationsHandler{
		service: service,
	}
}

// ListNotifications handles GET /notifications?limit=...
func (h *NotificationsHandler) ListNotifications(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	limit := 0
	if raw := request.QueryStringParameters["limit"]; raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return response.ValidationError("limit must be a positive integer", request.RequestContext.RequestID), nil
		}
		limit = parsed
	}

	result, err := h.service.GetNotifications(ctx, hh, limit)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(result, request.RequestContext.RequestID), nil
}
