package bills

import (
	"context"
)

// AccountDelta describes a balance mutation applied atomically with a payment
type AccountDelta struct {
	AccountID  string
	DeltaCents int64
}

// Repository defines the interface for bill data operations. All operations
// are scoped by household; a row belonging to another household is
// indistinguishable from a missing row.
type Repository interface {
	// Templates
	CreateTemplate(ctx context.Context, tmpl *BillTemplate) (*BillTemplate, error)
	GetTemplate(ctx context.Context, householdID string, templateID string) (*BillTemplate, error)
	GetTemplates(ctx context.Context, householdID string, includeInactive bool) ([]*BillTemplate, error)
	UpdateTemplate(ctx context.Context, tmpl *BillTemplate) (*BillTemplate, error)
	DeactivateTemplate(ctx context.Context, householdID string, templateID string) error

	// Occurrences. CreateOccurrence is a conditional put keyed on
	// template+dueDate and reports false when the row already existed, which
	// is what makes generation idempotent.
	CreateOccurrence(ctx context.Context, occ *BillOccurrence) (bool, error)
	GetOccurrence(ctx context.Context, householdID string, occurrenceID string) (*BillOccurrence, error)
	GetOccurrencesByDateRange(ctx context.Context, householdID string, from, to string) ([]*BillOccurrence, error)
	UpdateOccurrence(ctx context.Context, occ *BillOccurrence) error
	DeleteOccurrence(ctx context.Context, occ *BillOccurrence) error

	// Payments. ApplyPayment persists the occurrence update and the payment
	// event in one database transaction, together with the linked account
	// balance delta when one is supplied.
	ApplyPayment(ctx context.Context, occ *BillOccurrence, event *PaymentEvent, delta *AccountDelta) error
	GetPaymentEvents(ctx context.Context, householdID string, occurrenceID string) ([]*PaymentEvent, error)

	// Allocations
	GetAllocations(ctx context.Context, householdID string, occurrenceID string) ([]*Allocation, error)
	PutAllocations(ctx context.Context, householdID string, occurrenceID string, allocations []*Allocation) error
	DeleteAllocations(ctx context.Context, householdID string, occurrenceID string) error

	// Autopay rules
	GetAutopayRule(ctx context.Context, householdID string, templateID string) (*AutopayRule, error)
	GetAutopayRules(ctx context.Context, householdID string) ([]*AutopayRule, error)
	PutAutopayRule(ctx context.Context, rule *AutopayRule) error
}
