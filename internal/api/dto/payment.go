package dto

import (
	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/domain/payment"
	"github.com/upbill/upbill/internal/types"
	"github.com/upbill/upbill/internal/validator"
)

type CreatePaymentOrderRequest struct {
	InvoiceID string `json:"invoice_id" validate:"required"`
}

func (r *CreatePaymentOrderRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type PaymentOrderResponse struct {
	OrderID   string          `json:"order_id"`
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// ProcessPaymentRequest carries a gateway callback being reconciled against
// an invoice.
type ProcessPaymentRequest struct {
	InvoiceID            string               `json:"invoice_id" validate:"required"`
	Amount               decimal.Decimal      `json:"amount" validate:"required"`
	Gateway              types.PaymentGateway `json:"gateway" validate:"required"`
	PaymentStatus        types.PaymentStatus  `json:"payment_status" validate:"required"`
	GatewayOrderID       *string              `json:"gateway_order_id,omitempty"`
	GatewayTransactionID *string              `json:"gateway_transaction_id,omitempty"`
	GatewaySignature     *string              `json:"gateway_signature,omitempty"`
	PaymentMethod        *string              `json:"payment_method,omitempty"`
	FailureReason        *string              `json:"failure_reason,omitempty"`
	Metadata             types.Metadata       `json:"metadata,omitempty"`
}

func (r *ProcessPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.Gateway.Validate(); err != nil {
		return err
	}
	return r.PaymentStatus.Validate()
}

type RequestRefundRequest struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Reason        string          `json:"reason" validate:"required"`
}

func (r *RequestRefundRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type PaymentResponse struct {
	*payment.Transaction

	// Invoice reflects the invoice state after reconciliation.
	Invoice *InvoiceResponse `json:"invoice,omitempty"`
}

func NewPaymentResponse(t *payment.Transaction) *PaymentResponse {
	return &PaymentResponse{Transaction: t}
}

type RefundResponse struct {
	*payment.Refund
}

func NewRefundResponse(r *payment.Refund) *RefundResponse {
	return &RefundResponse{Refund: r}
}
