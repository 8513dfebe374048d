package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// amountTolerance is the permitted rounding slack when checking amount
// conservation.
var amountTolerance = decimal.NewFromFloat(0.01)

// Invoice is the financial document produced for a subscription period.
// Amount conservation and tax exclusivity are checked once, in Validate,
// which runs at construction and before every persist.
type Invoice struct {
	ID             string  `json:"id"`
	SubscriptionID string  `json:"subscription_id"`
	InvoiceNumber  string  `json:"invoice_number"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`

	InvoiceDate time.Time  `json:"invoice_date"`
	DueDate     time.Time  `json:"due_date"`
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CGSTAmount     decimal.Decimal `json:"cgst_amount"`
	SGSTAmount     decimal.Decimal `json:"sgst_amount"`
	IGSTAmount     decimal.Decimal `json:"igst_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	Currency       string          `json:"currency"`

	PaymentStatus types.InvoicePaymentStatus `json:"payment_status"`
	InvoiceStatus types.InvoiceStatus        `json:"invoice_status"`
	PaidAt        *time.Time                 `json:"paid_at,omitempty"`

	// BillingReason distinguishes first invoices from renewal cycles.
	BillingReason string `json:"billing_reason,omitempty"`

	// E-invoice block, set once by the GST formatter.
	IRN       *string    `json:"irn,omitempty"`
	AckNumber *string    `json:"ack_number,omitempty"`
	AckDate   *time.Time `json:"ack_date,omitempty"`

	LineItems []*LineItem    `json:"line_items,omitempty"`
	Metadata  types.Metadata `json:"metadata,omitempty"`
	types.BaseModel
}

const (
	BillingReasonSubscriptionCreate = "subscription_create"
	BillingReasonSubscriptionCycle  = "subscription_cycle"
	BillingReasonManual             = "manual"
)

// AmountDue is the outstanding balance.
func (i *Invoice) AmountDue() decimal.Decimal {
	return i.TotalAmount.Sub(i.AmountPaid)
}

// Validate enforces the financial invariants:
// total = subtotal - discount + cgst + sgst + igst (within tolerance), and
// exactly one of (cgst+sgst) or igst nonzero, never both.
func (i *Invoice) Validate() error {
	if i.InvoiceNumber == "" {
		return ierr.NewError("invoice_number is required").Mark(ierr.ErrValidation)
	}
	if i.Subtotal.IsNegative() {
		return ierr.NewError("subtotal must be non-negative").Mark(ierr.ErrValidation)
	}
	if i.DiscountAmount.IsNegative() {
		return ierr.NewError("discount_amount must be non-negative").Mark(ierr.ErrValidation)
	}

	intraState := i.CGSTAmount.IsPositive() || i.SGSTAmount.IsPositive()
	interState := i.IGSTAmount.IsPositive()
	if intraState && interState {
		return ierr.NewError("invoice carries both CGST/SGST and IGST").
			WithHint("An invoice is either intra-state (CGST+SGST) or inter-state (IGST), never both").
			WithReportableDetails(map[string]interface{}{
				"cgst": i.CGSTAmount.String(),
				"sgst": i.SGSTAmount.String(),
				"igst": i.IGSTAmount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	expected := i.Subtotal.
		Sub(i.DiscountAmount).
		Add(i.CGSTAmount).
		Add(i.SGSTAmount).
		Add(i.IGSTAmount)
	if expected.Sub(i.TotalAmount).Abs().GreaterThan(amountTolerance) {
		return ierr.NewError("invoice amounts do not balance").
			WithHint("total_amount must equal subtotal - discount + taxes").
			WithReportableDetails(map[string]interface{}{
				"expected": expected.String(),
				"actual":   i.TotalAmount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	for _, li := range i.LineItems {
		if err := li.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RecordPayment applies a successful payment amount and recomputes the
// payment status. Callers persist inside the reconciliation transaction.
func (i *Invoice) RecordPayment(amount decimal.Decimal, at time.Time) {
	i.AmountPaid = i.AmountPaid.Add(amount)
	if i.AmountPaid.GreaterThanOrEqual(i.TotalAmount) {
		i.PaymentStatus = types.InvoicePaymentStatusPaid
		i.InvoiceStatus = types.InvoiceStatusPaid
		i.PaidAt = &at
	} else {
		i.PaymentStatus = types.InvoicePaymentStatusPartial
	}
}
