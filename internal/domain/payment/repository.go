package payment

import "context"

// Repository defines the interface for payment transaction and refund
// persistence.
type Repository interface {
	CreateTransaction(ctx context.Context, t *Transaction) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)

	// GetByGatewayTransactionID looks up a transaction by the gateway's id,
	// for reconciliation idempotency.
	GetByGatewayTransactionID(ctx context.Context, gatewayTxnID string) (*Transaction, error)

	ListByInvoice(ctx context.Context, invoiceID string) ([]*Transaction, error)

	// ListSuccessfulWithoutCommission returns successful transactions that
	// have no commission row yet (anti-join on payment id). Crosses tenants:
	// the caller is the commission sweep.
	ListSuccessfulWithoutCommission(ctx context.Context, limit int) ([]*Transaction, error)

	CreateRefund(ctx context.Context, r *Refund) error
	GetRefund(ctx context.Context, id string) (*Refund, error)
}
