package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/homeledger/backend/internal/api/middleware"
	"github.com/hirosato/homeledger/backend/internal/api/response"
	"github.com/hirosato/homeledger/backend/internal/domain/bills"
)

// BillsHandler handles bill template and occurrence requests
type BillsHandler struct {
	service *bills.Service
}

// NewBillsHandler creates a new bills handler
func NewBillsHandler(service *bills.Service) *BillsHandler {
	return &BillsHandler{
		service: service,
	}
}

// ListBills handles GET /bills, the dollar-denominated listing kept for
// older clients. Templates are returned with amounts as float dollars.
func (h *BillsHandler) ListBills(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	includeInactive := request.QueryStringParameters["includeInactive"] == "true"
	templates, err := h.service.GetTemplates(ctx, hh, includeInactive)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}

	legacy := make([]*bills.LegacyBill, 0, len(templates))
	for _, tmpl := range templates {
		legacy = append(legacy, bills.ToLegacyBill(tmpl))
	}
	return response.OK(legacy, request.RequestContext.RequestID), nil
}

// CreateBill handles POST /bills, accepting dollar amounts
func (h *BillsHandler) CreateBill(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	var legacyReq bills.LegacyCreateBillRequest
	if err := json.Unmarshal([]byte(request.Body), &legacyReq); err != nil {
		return response.ValidationError("invalid request body", request.RequestContext.RequestID), nil
	}

	req, err := bills.FromLegacyCreate(&legacyReq)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}

	tmpl, err := h.service.CreateTemplate(ctx, hh, req)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.Created(bills.ToLegacyBill(tmpl), request.RequestContext.RequestID), nil
}

// ListTemplates handles GET /bills/templates
func (h *BillsHandler) ListTemplates(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	includeInactive := request.QueryStringParameters["includeInactive"] == "true"
	templates, err := h.service.GetTemplates(ctx, hh, includeInactive)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(templates, request.RequestContext.RequestID), nil
}

// CreateTemplate handles POST /bills/templates
func (h *BillsHandler) CreateTemplate(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	var req bills.CreateTemplateRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.ValidationError("invalid request body", request.RequestContext.RequestID), nil
	}

	tmpl, err := h.service.CreateTemplate(ctx, hh, &req)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.Created(tmpl, request.RequestContext.RequestID), nil
}

// GetTemplate handles GET /bills/templates/{templateId}
func (h *BillsHandler) GetTemplate(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, templateID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	tmpl, err := h.service.GetTemplate(ctx, hh, templateID)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(tmpl, request.RequestContext.RequestID), nil
}

// UpdateTemplate handles PUT /bills/templates/{templateId}
func (h *BillsHandler) UpdateTemplate(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, templateID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	var req bills.UpdateTemplateRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.ValidationError("invalid request body", request.RequestContext.RequestID), nil
	}

	tmpl, err := h.service.UpdateTemplate(ctx, hh, templateID, &req)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(tmpl, request.RequestContext.RequestID), nil
}

// DeleteTemplate handles DELETE /bills/templates/{templateId}. Templates are
// deactivated, never removed, so history stays queryable.
func (h *BillsHandler) DeleteTemplate(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, templateID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	if err := h.service.DeactivateTemplate(ctx, hh, templateID); err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.NoContent(), nil
}

// ListOccurrences handles GET /bills/occurrences?from=...&to=...
func (h *BillsHandler) ListOccurrences(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	from := request.QueryStringParameters["from"]
	to := request.QueryStringParameters["to"]
	if from == "" || to == "" {
		// Default to the current month
		now := time.Now().UTC()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		from = monthStart.Format("2006-01-02")
		to = monthStart.AddDate(0, 1, -1).Format("2006-01-02")
	}

	result, err := h.service.ListOccurrences(ctx, hh, from, to)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(result, request.RequestContext.RequestID), nil
}

// GetOccurrence handles GET /bills/occurrences/{occurrenceId}
func (h *BillsHandler) GetOccurrence(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, occurrenceID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	occ, err := h.service.GetOccurrence(ctx, hh, occurrenceID)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(occ, request.RequestContext.RequestID), nil
}

// RecordPayment handles POST /bills/occurrences/{occurrenceId}/pay
func (h *BillsHandler) RecordPayment(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, occurrenceID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	var req bills.RecordPaymentRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.ValidationError("invalid request body", request.RequestContext.RequestID), nil
	}

	occ, err := h.service.RecordPayment(ctx, hh, occurrenceID, &req)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(occ, request.RequestContext.RequestID), nil
}

// SkipOccurrence handles POST /bills/occurrences/{occurrenceId}/skip
func (h *BillsHandler) SkipOccurrence(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, occurrenceID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	occ, err := h.service.SkipOccurrence(ctx, hh, occurrenceID)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(occ, request.RequestContext.RequestID), nil
}

// ResetOccurrence handles POST /bills/occurrences/{occurrenceId}/reset
func (h *BillsHandler) ResetOccurrence(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, occurrenceID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	occ, err := h.service.ResetOccurrence(ctx, hh, occurrenceID)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(occ, request.RequestContext.RequestID), nil
}

// DeleteOccurrence handles DELETE /bills/occurrences/{occurrenceId}
func (h *BillsHandler) DeleteOccurrence(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, occurrenceID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	if err := h.service.DeleteOccurrence(ctx, hh, occurrenceID); err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.NoContent(), nil
}

// GetAllocations handles GET /bills/occurrences/{occurrenceId}/allocations
func (h *BillsHandler) GetAllocations(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, occurrenceID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	allocations, err := h.service.GetAllocations(ctx, hh, occurrenceID)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(allocations, request.RequestContext.RequestID), nil
}

// PutAllocations handles PUT /bills/occurrences/{occurrenceId}/allocations
func (h *BillsHandler) PutAllocations(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, occurrenceID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	var req bills.PutAllocationsRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.ValidationError("invalid request body", request.RequestContext.RequestID), nil
	}

	allocations, err := h.service.PutAllocations(ctx, hh, occurrenceID, &req)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(allocations, request.RequestContext.RequestID), nil
}

// GetPaymentEvents handles GET /bills/occurrences/{occurrenceId}/payments
func (h *BillsHandler) GetPaymentEvents(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, occurrenceID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	paymentEvents, err := h.service.GetPaymentEvents(ctx, hh, occurrenceID)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(paymentEvents, request.RequestContext.RequestID), nil
}

// GetAutopayRule handles GET /bills/templates/{templateId}/autopay
func (h *BillsHandler) GetAutopayRule(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, templateID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	rule, err := h.service.GetAutopayRule(ctx, hh, templateID)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(rule, request.RequestContext.RequestID), nil
}

// PutAutopayRule handles PUT /bills/templates/{templateId}/autopay
func (h *BillsHandler) PutAutopayRule(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest, templateID string) (events.APIGatewayProxyResponse, error) {
	hh, ok := middleware.GetHouseholdContext(ctx)
	if !ok {
		return response.AuthenticationError("household context not found", request.RequestContext.RequestID), nil
	}

	var rule bills.AutopayRule
	if err := json.Unmarshal([]byte(request.Body), &rule); err != nil {
		return response.ValidationError("invalid request body", request.RequestContext.RequestID), nil
	}

	saved, err := h.service.PutAutopayRule(ctx, hh, templateID, &rule)
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(saved, request.RequestContext.RequestID), nil
}
