package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// LineItem represents a single priced component of an invoice: the plan fee
// or one usage meter's overage for the period.
type LineItem struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	MeterID     *string         `json:"meter_id,omitempty"`
	SACCode     string          `json:"sac_code,omitempty"`
	PeriodStart *time.Time      `json:"period_start,omitempty"`
	PeriodEnd   *time.Time      `json:"period_end,omitempty"`
	Metadata    types.Metadata  `json:"metadata,omitempty"`
	types.BaseModel
}

// Validate validates the invoice line item
func (li *LineItem) Validate() error {
	if li.Description == "" {
		return ierr.NewError("line item description is required").
			Mark(ierr.ErrValidation)
	}
	if li.Amount.IsNegative() {
		return ierr.NewError("line item amount must be non-negative").
			Mark(ierr.ErrValidation)
	}
	if li.Quantity.IsNegative() {
		return ierr.NewError("line item quantity must be non-negative").
			Mark(ierr.ErrValidation)
	}
	if li.PeriodStart != nil && li.PeriodEnd != nil && li.PeriodEnd.Before(*li.PeriodStart) {
		return ierr.NewError("line item period_end must be after period_start").
			Mark(ierr.ErrValidation)
	}
	return nil
}
