package invoice

import (
	"context"
	"time"

	"github.com/upbill/upbill/internal/types"
)

// Repository defines the interface for invoice persistence operations.
// CreateWithLineItems and Update are expected to run inside an ambient
// transaction (postgres.IClient.WithTx); the repository joins it via context.
type Repository interface {
	// CreateWithLineItems inserts the invoice and all its line items.
	CreateWithLineItems(ctx context.Context, inv *Invoice) error

	Get(ctx context.Context, id string) (*Invoice, error)

	// GetForUpdate loads the invoice with a row lock (SELECT ... FOR UPDATE)
	// so amount_paid and discount mutations serialize. Must run inside a
	// transaction.
	GetForUpdate(ctx context.Context, id string) (*Invoice, error)

	GetByIdempotencyKey(ctx context.Context, key string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter *Filter) ([]*Invoice, error)
	Count(ctx context.Context, filter *Filter) (int, error)

	// MaxInvoiceNumber returns the highest invoice number with the given
	// prefix across all tenants, or "" when none exists. Callers must hold
	// the invoice-number advisory lock before relying on the result.
	MaxInvoiceNumber(ctx context.Context, prefix string) (string, error)

	// ListOverdue returns pending invoices past their due date.
	ListOverdue(ctx context.Context, asOf time.Time) ([]*Invoice, error)
}

// Filter defines query parameters for listing invoices
type Filter struct {
	QueryFilter     *types.QueryFilter
	SubscriptionIDs []string
	InvoiceStatuses []types.InvoiceStatus
	PaymentStatuses []types.InvoicePaymentStatus
}

func NewFilter() *Filter {
	return &Filter{QueryFilter: types.NewDefaultQueryFilter()}
}

func (f *Filter) GetLimit() int {
	return f.QueryFilter.GetLimit()
}

func (f *Filter) GetOffset() int {
	return f.QueryFilter.GetOffset()
}
