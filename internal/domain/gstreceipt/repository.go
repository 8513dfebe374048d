package gstreceipt

import "context"

// Repository defines the interface for GST receipt persistence. Receipts are
// append-only; there is no update or delete.
type Repository interface {
	Create(ctx context.Context, r *Receipt) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Receipt, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Receipt, error)
}
