package testutil

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/upbill/upbill/internal/domain/invoice"
	"github.com/upbill/upbill/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{InMemoryStore: NewInMemoryStore[*invoice.Invoice]()}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	copied := *inv
	copied.IdempotencyKey = copyStringPtr(inv.IdempotencyKey)
	copied.PeriodStart = copyTimePtr(inv.PeriodStart)
	copied.PeriodEnd = copyTimePtr(inv.PeriodEnd)
	copied.PaidAt = copyTimePtr(inv.PaidAt)
	copied.IRN = copyStringPtr(inv.IRN)
	copied.AckNumber = copyStringPtr(inv.AckNumber)
	copied.AckDate = copyTimePtr(inv.AckDate)
	copied.Metadata = lo.Assign(map[string]string{}, inv.Metadata)
	copied.LineItems = make([]*invoice.LineItem, len(inv.LineItems))
	for i, li := range inv.LineItems {
		liCopy := *li
		liCopy.MeterID = copyStringPtr(li.MeterID)
		liCopy.PeriodStart = copyTimePtr(li.PeriodStart)
		liCopy.PeriodEnd = copyTimePtr(li.PeriodEnd)
		liCopy.Metadata = lo.Assign(map[string]string{}, li.Metadata)
		copied.LineItems[i] = &liCopy
	}
	return &copied
}

func (s *InMemoryInvoiceStore) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	existing := s.InMemoryStore.List(ctx, func(ctx context.Context, other *invoice.Invoice) bool {
		return other.InvoiceNumber == inv.InvoiceNumber
	})
	if len(existing) > 0 {
		return alreadyExistsErr("invoice", inv.InvoiceNumber)
	}
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyInvoice(inv), nil
}

// GetForUpdate behaves like Get; the fakes run single-threaded so no row
// lock is needed.
func (s *InMemoryInvoiceStore) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryInvoiceStore) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	matches := s.InMemoryStore.List(ctx, func(ctx context.Context, inv *invoice.Invoice) bool {
		return inv.IdempotencyKey != nil && *inv.IdempotencyKey == key
	})
	if len(matches) == 0 {
		return nil, notFoundErr("invoice", key)
	}
	return copyInvoice(matches[0]), nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	stored, err := s.InMemoryStore.Get(ctx, inv.ID)
	if err != nil {
		return err
	}
	copied := copyInvoice(inv)
	if len(copied.LineItems) == 0 {
		copied.LineItems = copyInvoice(stored).LineItems
	}
	return s.InMemoryStore.Update(ctx, inv.ID, copied)
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *invoice.Filter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = invoice.NewFilter()
	}
	matches := s.InMemoryStore.List(ctx, s.matchesFilter(filter))
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].InvoiceDate.After(matches[j].InvoiceDate)
	})
	out := make([]*invoice.Invoice, len(matches))
	for i, inv := range matches {
		out[i] = copyInvoice(inv)
	}
	return out, nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *invoice.Filter) (int, error) {
	if filter == nil {
		filter = invoice.NewFilter()
	}
	return s.InMemoryStore.Count(ctx, s.matchesFilter(filter)), nil
}

func (s *InMemoryInvoiceStore) matchesFilter(filter *invoice.Filter) func(ctx context.Context, inv *invoice.Invoice) bool {
	return func(ctx context.Context, inv *invoice.Invoice) bool {
		if tenantID := types.GetTenantID(ctx); tenantID != "" && inv.TenantID != tenantID {
			return false
		}
		if inv.Status == types.StatusDeleted {
			return false
		}
		if len(filter.SubscriptionIDs) > 0 && !lo.Contains(filter.SubscriptionIDs, inv.SubscriptionID) {
			return false
		}
		if len(filter.InvoiceStatuses) > 0 && !lo.Contains(filter.InvoiceStatuses, inv.InvoiceStatus) {
			return false
		}
		if len(filter.PaymentStatuses) > 0 && !lo.Contains(filter.PaymentStatuses, inv.PaymentStatus) {
			return false
		}
		return true
	}
}

func (s *InMemoryInvoiceStore) MaxInvoiceNumber(ctx context.Context, prefix string) (string, error) {
	max := ""
	for _, inv := range s.InMemoryStore.List(ctx, nil) {
		if strings.HasPrefix(inv.InvoiceNumber, prefix+"-") && inv.InvoiceNumber > max {
			max = inv.InvoiceNumber
		}
	}
	return max, nil
}

func (s *InMemoryInvoiceStore) ListOverdue(ctx context.Context, asOf time.Time) ([]*invoice.Invoice, error) {
	matches := s.InMemoryStore.List(ctx, func(ctx context.Context, inv *invoice.Invoice) bool {
		return inv.InvoiceStatus == types.InvoiceStatusPending &&
			inv.PaymentStatus != types.InvoicePaymentStatusPaid &&
			inv.DueDate.Before(asOf) &&
			inv.Status != types.StatusDeleted
	})
	out := make([]*invoice.Invoice, len(matches))
	for i, inv := range matches {
		out[i] = copyInvoice(inv)
	}
	return out, nil
}
