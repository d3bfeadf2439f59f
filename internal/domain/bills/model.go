package bills

import (
	"time"
)

// BillType represents what kind of cash flow a bill template drives
type BillType string

const (
	// Expense represents a regular outgoing bill
	Expense BillType = "expense"
	// Income represents an expected incoming payment
	Income BillType = "income"
	// SavingsTransfer represents a scheduled transfer into savings
	SavingsTransfer BillType = "savings_transfer"
)

// RecurrenceType represents whether a template repeats
type RecurrenceType string

const (
	// OneTime templates produce a single occurrence and deactivate once paid
	OneTime RecurrenceType = "one_time"
	// Recurring templates expand into occurrences according to their cadence
	Recurring RecurrenceType = "recurring"
)

// OccurrenceStatus represents the payment state of a single occurrence
type OccurrenceStatus string

const (
	StatusUnpaid   OccurrenceStatus = "unpaid"
	StatusPartial  OccurrenceStatus = "partial"
	StatusPaid     OccurrenceStatus = "paid"
	StatusOverpaid OccurrenceStatus = "overpaid"
	StatusOverdue  OccurrenceStatus = "overdue"
	StatusSkipped  OccurrenceStatus = "skipped"
)

// BillTemplate represents a recurring bill definition. All amounts are integer
// cents; the legacy dollar view lives at the API boundary only.
type BillTemplate struct {
	TemplateID     string         `json:"templateId"`
	HouseholdID    string         `json:"householdId"`
	Name           string         `json:"name"`
	BillType       BillType       `json:"billType"`
	Classification string         `json:"classification,omitempty"`
	RecurrenceType RecurrenceType `json:"recurrenceType"`
	Cadence        Cadence        `json:"cadence"`

	AmountDueCents int64 `json:"amountDueCents"`

	CategoryID      string `json:"categoryId,omitempty"`
	MerchantID      string `json:"merchantId,omitempty"`
	LinkedAccountID string `json:"linkedAccountId,omitempty"`

	// Mirrors the template's autopay rule so listings can show the flag
	// without a second read. Maintained by PutAutopayRule.
	HasAutopay bool `json:"hasAutopay"`

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BillOccurrence represents one scheduled instance of a template, tied to a
// specific due date.
//
// Invariant: AmountPaidCents + AmountRemainingCents == AmountDueCents for
// every status except overpaid, where remaining is pinned to zero.
type BillOccurrence struct {
	OccurrenceID string `json:"occurrenceId"`
	TemplateID   string `json:"templateId"`
	HouseholdID  string `json:"householdId"`
	DueDate      string `json:"dueDate"` // YYYY-MM-DD

	AmountDueCents       int64 `json:"amountDueCents"`
	AmountPaidCents      int64 `json:"amountPaidCents"`
	AmountRemainingCents int64 `json:"amountRemainingCents"`

	Status             OccurrenceStatus `json:"status"`
	StatusManuallySet  bool             `json:"statusManuallySet"`
	PaidDate           string           `json:"paidDate,omitempty"` // YYYY-MM-DD
	LastPaymentEventID string           `json:"lastPaymentEventId,omitempty"`
	DaysLate           int              `json:"daysLate"`
	LateFeeCents       int64            `json:"lateFeeCents"`
	Notes              string           `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Allocation represents a sub-portion of an occurrence's due amount assigned
// to a period, supporting split payments.
type Allocation struct {
	OccurrenceID         string `json:"occurrenceId"`
	HouseholdID          string `json:"householdId"`
	PeriodNumber         int    `json:"periodNumber"`
	AllocatedAmountCents int64  `json:"allocatedAmountCents"`
	PaidAmountCents      int64  `json:"paidAmountCents"`
	IsPaid               bool   `json:"isPaid"`
}

// PaymentEvent is the append-only audit record of a payment applied to an
// occurrence. Never mutated after creation.
type PaymentEvent struct {
	EventID      string `json:"eventId"`
	OccurrenceID string `json:"occurrenceId"`
	TemplateID   string `json:"templateId"`
	HouseholdID  string `json:"householdId"`

	TransactionID  string `json:"transactionId,omitempty"`
	AmountCents    int64  `json:"amountCents"`
	PrincipalCents int64  `json:"principalCents,omitempty"`
	InterestCents  int64  `json:"interestCents,omitempty"`

	PaymentDate     string `json:"paymentDate"` // YYYY-MM-DD
	PaymentMethod   string `json:"paymentMethod,omitempty"`
	SourceAccountID string `json:"sourceAccountId,omitempty"`

	// Balance of the linked liability account around this payment, when one
	// was updated as part of the same transaction.
	BalanceBeforeCents *int64 `json:"balanceBeforeCents,omitempty"`
	BalanceAfterCents  *int64 `json:"balanceAfterCents,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AutopayAmountType selects how the autopay charge amount is computed
type AutopayAmountType string

const (
	// AmountFixed charges a configured fixed amount
	AmountFixed AutopayAmountType = "fixed"
	// AmountFullBalance charges the full remaining amount of the occurrence
	AmountFullBalance AutopayAmountType = "full_balance"
)

// AutopayRule is the per-template autopay configuration. One rule per
// template; writes overwrite the previous rule.
type AutopayRule struct {
	TemplateID       string            `json:"templateId"`
	HouseholdID      string            `json:"householdId"`
	IsEnabled        bool              `json:"isEnabled"`
	PayFromAccountID string            `json:"payFromAccountId"`
	AmountType       AutopayAmountType `json:"amountType"`
	FixedAmountCents int64             `json:"fixedAmountCents,omitempty"`
	DaysBeforeDue    int               `json:"daysBeforeDue"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// CreateTemplateRequest represents the data needed to create a bill template
type CreateTemplateRequest struct {
	Name            string         `json:"name"`
	BillType        BillType       `json:"billType"`
	Classification  string         `json:"classification,omitempty"`
	RecurrenceType  RecurrenceType `json:"recurrenceType"`
	Cadence         Cadence        `json:"cadence"`
	AmountDueCents  int64          `json:"amountDueCents"`
	CategoryID      string         `json:"categoryId,omitempty"`
	MerchantID      string         `json:"merchantId,omitempty"`
	LinkedAccountID string         `json:"linkedAccountId,omitempty"`
}

// UpdateTemplateRequest represents a request to update a bill template.
// Pointer fields distinguish "leave unchanged" from explicit zero values.
type UpdateTemplateRequest struct {
	Name            *string  `json:"name,omitempty"`
	Classification  *string  `json:"classification,omitempty"`
	Cadence         *Cadence `json:"cadence,omitempty"`
	AmountDueCents  *int64   `json:"amountDueCents,omitempty"`
	CategoryID      *string  `json:"categoryId,omitempty"`
	MerchantID      *string  `json:"merchantId,omitempty"`
	LinkedAccountID *string  `json:"linkedAccountId,omitempty"`
	IsActive        *bool    `json:"isActive,omitempty"`
}

// AllocationPayment assigns part of a payment to one allocation period
type AllocationPayment struct {
	PeriodNumber int   `json:"periodNumber"`
	AmountCents  int64 `json:"amountCents"`
}

// RecordPaymentRequest represents a payment applied to an occurrence
type RecordPaymentRequest struct {
	AmountCents     int64  `json:"amountCents"`
	PaymentDate     string `json:"paymentDate"` // YYYY-MM-DD
	PaymentMethod   string `json:"paymentMethod,omitempty"`
	SourceAccountID string `json:"sourceAccountId,omitempty"`
	TransactionID   string `json:"transactionId,omitempty"`
	PrincipalCents  int64  `json:"principalCents,omitempty"`
	InterestCents   int64  `json:"interestCents,omitempty"`
	Notes           string `json:"notes,omitempty"`

	// Optional split of this payment across allocation periods. When present
	// the split must sum to AmountCents.
	AllocationSplit []AllocationPayment `json:"allocationSplit,omitempty"`
}

// PutAllocationsRequest replaces the allocation set of an occurrence
type PutAllocationsRequest struct {
	Allocations []AllocationInput `json:"allocations"`
}

// AllocationInput is one allocation row in a replace-set request
type AllocationInput struct {
	PeriodNumber         int   `json:"periodNumber"`
	AllocatedAmountCents int64 `json:"allocatedAmountCents"`
}

// OccurrenceListResponse represents a date-range listing of occurrences
type OccurrenceListResponse struct {
	Occurrences []*BillOccurrence `json:"occurrences"`
	TotalCount  int               `json:"totalCount"`
	From        string            `json:"from"`
	To          string            `json:"to"`
}
