package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/oklog/ulid/v2"

	"github.com/hirosato/homeledger/backend/internal/domain/bills"
	"github.com/hirosato/homeledger/backend/internal/domain/household"
)

// autopayFailureCopy maps autopay error codes to the user-facing message
// shown in the notification body.
var autopayFailureCopy = map[bills.AutopayErrorCode]string{
	bills.AutopayErrInsufficientFunds: "the selected account does not have enough funds",
	bills.AutopayErrAccountNotFound:   "the payment account could not be found",
	bills.AutopayErrBillNotFound:      "the bill no longer exists",
	bills.AutopayErrInstanceNotFound:  "the scheduled bill instance could not be found",
	bills.AutopayErrAlreadyPaid:       "this bill was already paid",
	bills.AutopayErrInvalidConfig:     "the autopay configuration is invalid",
	bills.AutopayErrZeroAmount:        "the computed payment amount was zero",
	bills.AutopayErrSystem:            "an unexpected error occurred",
}

// Service stores notifications and optionally forwards them to a webhook. It
// implements bills.Notifier.
type Service struct {
	repo    Repository
	webhook *WebhookSender // nil when webhooks are disabled
	logger  *slog.Logger
}

// NewService creates a new notification service
func NewService(repo Repository, webhook *WebhookSender, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		webhook: webhook,
		logger:  logger,
	}
}

// AutopaySucceeded records a success notification for an autopay charge
func (s *Service) AutopaySucceeded(ctx context.Context, hh *household.HouseholdContext, outcome *bills.AutopayOutcome) error {
	n := &Notification{
		NotificationID: ulid.Make().String(),
		HouseholdID:    hh.HouseholdID,
		Kind:           AutopaySuccess,
		Title:          "Autopay payment sent",
		Body: fmt.Sprintf("%s was paid automatically (%s, due %s).",
			outcome.TemplateName, formatAmount(outcome.AmountCents, outcome.Currency), outcome.DueDate),
		OccurrenceID: outcome.OccurrenceID,
		TemplateID:   outcome.TemplateID,
		CreatedAt:    time.Now().UTC(),
	}
	return s.deliver(ctx, n)
}

// AutopayFailed records a failure notification for an autopay charge
func (s *Service) AutopayFailed(ctx context.Context, hh *household.HouseholdContext, outcome *bills.AutopayOutcome) error {
	copyText, ok := autopayFailureCopy[outcome.ErrorCode]
	if !ok {
		copyText = autopayFailureCopy[bills.AutopayErrSystem]
	}

	name := outcome.TemplateName
	if name == "" {
		name = "A bill"
	}
	n := &Notification{
		NotificationID: ulid.Make().String(),
		HouseholdID:    hh.HouseholdID,
		Kind:           AutopayFailure,
		Title:          "Autopay payment failed",
		Body:           fmt.Sprintf("%s (due %s) could not be paid: %s.", name, outcome.DueDate, copyText),
		OccurrenceID:   outcome.OccurrenceID,
		TemplateID:     outcome.TemplateID,
		ErrorCode:      string(outcome.ErrorCode),
		CreatedAt:      time.Now().UTC(),
	}
	return s.deliver(ctx, n)
}

// GetNotifications lists the household's recent notifications
func (s *Service) GetNotifications(ctx context.Context, hh *household.HouseholdContext, limit int) (*NotificationListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	notifications, err := s.repo.GetNotifications(ctx, hh.HouseholdID, limit)
	if err != nil {
		return nil, err
	}
	return &NotificationListResponse{
		Notifications: notifications,
		TotalCount:    len(notifications),
	}, nil
}

// deliver persists the notification; webhook delivery is best effort and a
// failure there never fails the run.
func (s *Service) deliver(ctx context.Context, n *Notification) error {
	if err := s.repo.AppendNotification(ctx, n); err != nil {
		return err
	}
	if s.webhook != nil {
		if err := s.webhook.Send(ctx, n); err != nil {
			s.logger.Warn("webhook delivery failed",
				"notificationId", n.NotificationID, "error", err)
		}
	}
	return nil
}

// formatAmount renders cents for notification copy, e.g. "$24.99"
func formatAmount(cents int64, currency string) string {
	if currency == "" {
		currency = money.USD
	}
	return money.New(cents, currency).Display()
}
