package notification

import (
	"context"
	"time"
)

// Kind classifies a notification for client rendering
type Kind string

const (
	AutopaySuccess Kind = "autopay_success"
	AutopayFailure Kind = "autopay_failure"
)

// Notification is a user-facing message scoped to a household
type Notification struct {
	NotificationID string    `json:"notificationId"`
	HouseholdID    string    `json:"householdId"`
	Kind           Kind      `json:"kind"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	OccurrenceID   string    `json:"occurrenceId,omitempty"`
	TemplateID     string    `json:"templateId,omitempty"`
	ErrorCode      string    `json:"errorCode,omitempty"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Repository defines the interface for notification data operations
type Repository interface {
	// Append a notification row
	AppendNotification(ctx context.Context, n *Notification) error

	// Get the most recent notifications for a household
	GetNotifications(ctx context.Context, householdID string, limit int) ([]*Notification, error)
}

// NotificationListResponse represents a household's recent notifications
type NotificationListResponse struct {
	Notifications []*Notification `json:"notifications"`
	TotalCount    int             `json:"totalCount"`
}
