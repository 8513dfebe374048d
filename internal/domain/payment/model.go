package payment

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// Transaction records a single gateway payment attempt against an invoice,
// whatever its outcome. The gateway transaction id is unique: reconciling
// the same callback twice must not double-count amount_paid.
type Transaction struct {
	ID                   string               `json:"id"`
	InvoiceID            string               `json:"invoice_id"`
	Gateway              types.PaymentGateway `json:"gateway"`
	GatewayOrderID       *string              `json:"gateway_order_id,omitempty"`
	GatewayTransactionID *string              `json:"gateway_transaction_id,omitempty"`
	GatewaySignature     *string              `json:"gateway_signature,omitempty"`
	Amount               decimal.Decimal      `json:"amount"`
	Currency             string               `json:"currency"`
	PaymentMethod        *string              `json:"payment_method,omitempty"`
	PaymentStatus        types.PaymentStatus  `json:"payment_status"`
	FailureReason        *string              `json:"failure_reason,omitempty"`
	CompletedAt          *time.Time           `json:"completed_at,omitempty"`
	Metadata             types.Metadata       `json:"metadata,omitempty"`
	types.BaseModel
}

func (t *Transaction) Validate() error {
	if t.InvoiceID == "" {
		return ierr.NewError("invoice_id is required").Mark(ierr.ErrValidation)
	}
	if !t.Amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithHint("Payment amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if err := t.Gateway.Validate(); err != nil {
		return err
	}
	return t.PaymentStatus.Validate()
}

// IsSuccess reports whether the attempt completed successfully.
func (t *Transaction) IsSuccess() bool {
	return t.PaymentStatus == types.PaymentStatusSuccess
}

// Refund is a refund request against a successful transaction. It is created
// in requested state; the approval workflow and gateway execution live
// outside this core.
type Refund struct {
	ID              string             `json:"id"`
	TransactionID   string             `json:"transaction_id"`
	Amount          decimal.Decimal    `json:"amount"`
	RefundType      types.RefundType   `json:"refund_type"`
	Reason          string             `json:"reason"`
	RefundStatus    types.RefundStatus `json:"refund_status"`
	RequestedBy     string             `json:"requested_by"`
	GatewayRefundID *string            `json:"gateway_refund_id,omitempty"`
	types.BaseModel
}

func (r *Refund) Validate() error {
	if r.TransactionID == "" {
		return ierr.NewError("transaction_id is required").Mark(ierr.ErrValidation)
	}
	if !r.Amount.IsPositive() {
		return ierr.NewError("refund amount must be positive").
			WithHint("Refund amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if r.Reason == "" {
		return ierr.NewError("refund reason is required").
			WithHint("A reason is required to request a refund").
			Mark(ierr.ErrValidation)
	}
	return nil
}
