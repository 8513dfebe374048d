package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InternalInvoiceEvent is the payload for invoice lifecycle events consumed
// by the notification dispatcher.
type InternalInvoiceEvent struct {
	EventType      string          `json:"event_type"`
	TenantID       string          `json:"tenant_id"`
	InvoiceID      string          `json:"invoice_id"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	InvoiceNumber  string          `json:"invoice_number"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	Currency       string          `json:"currency"`
	DueDate        time.Time       `json:"due_date"`
}

// InternalPaymentEvent is the payload for payment outcome events.
type InternalPaymentEvent struct {
	EventType     string          `json:"event_type"`
	TenantID      string          `json:"tenant_id"`
	InvoiceID     string          `json:"invoice_id"`
	PaymentID     string          `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Gateway       string          `json:"gateway"`
	FailureReason string          `json:"failure_reason,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// InternalSubscriptionEvent is the payload for subscription lifecycle events.
type InternalSubscriptionEvent struct {
	EventType          string     `json:"event_type"`
	TenantID           string     `json:"tenant_id"`
	SubscriptionID     string     `json:"subscription_id"`
	PlanID             string     `json:"plan_id"`
	SubscriptionStatus string     `json:"subscription_status"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	TrialEnd           *time.Time `json:"trial_end,omitempty"`
	NextBillingDate    time.Time  `json:"next_billing_date"`
}
