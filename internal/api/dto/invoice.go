package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/domain/invoice"
	"github.com/upbill/upbill/internal/types"
	"github.com/upbill/upbill/internal/validator"
)

type GenerateInvoiceRequest struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`

	// IncludeUsage folds the period's unbilled usage overage into the
	// invoice and marks the consumed events billed in the same transaction.
	IncludeUsage bool `json:"include_usage"`

	// BillingReason defaults to manual when empty.
	BillingReason string `json:"billing_reason,omitempty"`

	// PeriodStart/PeriodEnd default to the subscription's current period.
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`

	// IdempotencyKey dedupes renewal invoices on (subscription, period).
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
}

func (r *GenerateInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type InvoiceResponse struct {
	*invoice.Invoice
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}

type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]

// UsageMeterCharge is one meter's overage contribution in a charges
// breakdown.
type UsageMeterCharge struct {
	MeterID       string          `json:"meter_id"`
	MeterType     string          `json:"meter_type"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	IncludedUnits decimal.Decimal `json:"included_units"`
	BilledUnits   decimal.Decimal `json:"billed_units"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
}

// UsageChargesResponse is the unbilled overage for a period, totalled and
// broken down per meter for line-item generation.
type UsageChargesResponse struct {
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Charges     []UsageMeterCharge `json:"charges"`
}
