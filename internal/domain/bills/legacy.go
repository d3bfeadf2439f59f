package bills

import (
	"github.com/shopspring/decimal"

	"github.com/hirosato/homeledger/backend/internal/domain/errors"
)

// LegacyBill is the dollar-denominated view of a template served to older
// consumers of GET/POST /bills. Integer cents remain the source of truth;
// this shape is derived at the API boundary and nowhere else.
type LegacyBill struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Classification string  `json:"classification,omitempty"`
	Recurrence     string  `json:"recurrence"`
	Frequency      string  `json:"frequency,omitempty"`
	Amount         float64 `json:"amount"` // dollars
	DueDate        string  `json:"dueDate"`
	EndDate        string  `json:"endDate,omitempty"`
	CategoryID     string  `json:"categoryId,omitempty"`
	AccountID      string  `json:"accountId,omitempty"`
	IsActive       bool    `json:"isActive"`
}

// LegacyCreateBillRequest is the dollar-denominated create payload
type LegacyCreateBillRequest struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Classification string  `json:"classification,omitempty"`
	Recurrence     string  `json:"recurrence"`
	Frequency      string  `json:"frequency,omitempty"`
	Amount         float64 `json:"amount"` // dollars
	DueDate        string  `json:"dueDate"`
	EndDate        string  `json:"endDate,omitempty"`
	CategoryID     string  `json:"categoryId,omitempty"`
	AccountID      string  `json:"accountId,omitempty"`
}

var centsPerDollar = decimal.NewFromInt(100)

// DollarsToCents converts a dollar amount to integer cents exactly. Sub-cent
// precision is rejected rather than rounded away.
func DollarsToCents(dollars float64) (int64, error) {
	d := decimal.NewFromFloat(dollars).Mul(centsPerDollar)
	if !d.Equal(d.Truncate(0)) {
		return 0, errors.NewValidationError("amount has sub-cent precision")
	}
	return d.IntPart(), nil
}

// CentsToDollars converts integer cents to a dollar amount for the legacy view
func CentsToDollars(cents int64) float64 {
	f, _ := decimal.New(cents, -2).Float64()
	return f
}

// ToLegacyBill derives the legacy dollar view of a template
func ToLegacyBill(tmpl *BillTemplate) *LegacyBill {
	return &LegacyBill{
		ID:             tmpl.TemplateID,
		Name:           tmpl.Name,
		Type:           string(tmpl.BillType),
		Classification: tmpl.Classification,
		Recurrence:     string(tmpl.RecurrenceType),
		Frequency:      string(tmpl.Cadence.Frequency),
		Amount:         CentsToDollars(tmpl.AmountDueCents),
		DueDate:        tmpl.Cadence.StartDate,
		EndDate:        tmpl.Cadence.EndDate,
		CategoryID:     tmpl.CategoryID,
		AccountID:      tmpl.LinkedAccountID,
		IsActive:       tmpl.IsActive,
	}
}

// FromLegacyCreate translates a legacy dollar create payload into the
// cents-native request the service understands.
func FromLegacyCreate(req *LegacyCreateBillRequest) (*CreateTemplateRequest, error) {
	cents, err := DollarsToCents(req.Amount)
	if err != nil {
		return nil, err
	}

	return &CreateTemplateRequest{
		Name:            req.Name,
		BillType:        BillType(req.Type),
		Classification:  req.Classification,
		RecurrenceType:  RecurrenceType(req.Recurrence),
		Cadence: Cadence{
			Frequency: CadenceFrequency(req.Frequency),
			StartDate: req.DueDate,
			EndDate:   req.EndDate,
		},
		AmountDueCents:  cents,
		CategoryID:      req.CategoryID,
		LinkedAccountID: req.AccountID,
	}, nil
}
