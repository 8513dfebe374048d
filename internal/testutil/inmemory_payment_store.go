package testutil

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/upbill/upbill/internal/domain/payment"
	"github.com/upbill/upbill/internal/types"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	transactions *InMemoryStore[*payment.Transaction]
	refunds      *InMemoryStore[*payment.Refund]

	// commissionChecker lets the store answer the anti-join query without a
	// database; the base suite wires it to the partner store.
	commissionChecker func(ctx context.Context, paymentID string) bool
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		transactions: NewInMemoryStore[*payment.Transaction](),
		refunds:      NewInMemoryStore[*payment.Refund](),
	}
}

// SetCommissionChecker wires the commission-existence predicate used by
// ListSuccessfulWithoutCommission.
func (s *InMemoryPaymentStore) SetCommissionChecker(fn func(ctx context.Context, paymentID string) bool) {
	s.commissionChecker = fn
}

func copyTransaction(t *payment.Transaction) *payment.Transaction {
	if t == nil {
		return nil
	}
	copied := *t
	copied.GatewayOrderID = copyStringPtr(t.GatewayOrderID)
	copied.GatewayTransactionID = copyStringPtr(t.GatewayTransactionID)
	copied.GatewaySignature = copyStringPtr(t.GatewaySignature)
	copied.PaymentMethod = copyStringPtr(t.PaymentMethod)
	copied.FailureReason = copyStringPtr(t.FailureReason)
	copied.CompletedAt = copyTimePtr(t.CompletedAt)
	copied.Metadata = lo.Assign(map[string]string{}, t.Metadata)
	return &copied
}

func (s *InMemoryPaymentStore) CreateTransaction(ctx context.Context, t *payment.Transaction) error {
	if t.GatewayTransactionID != nil {
		dupes := s.transactions.List(ctx, func(ctx context.Context, other *payment.Transaction) bool {
			return other.GatewayTransactionID != nil && *other.GatewayTransactionID == *t.GatewayTransactionID
		})
		if len(dupes) > 0 {
			return alreadyExistsErr("payment", *t.GatewayTransactionID)
		}
	}
	return s.transactions.Create(ctx, t.ID, copyTransaction(t))
}

func (s *InMemoryPaymentStore) GetTransaction(ctx context.Context, id string) (*payment.Transaction, error) {
	t, err := s.transactions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyTransaction(t), nil
}

func (s *InMemoryPaymentStore) GetByGatewayTransactionID(ctx context.Context, gatewayTxnID string) (*payment.Transaction, error) {
	matches := s.transactions.List(ctx, func(ctx context.Context, t *payment.Transaction) bool {
		return t.GatewayTransactionID != nil && *t.GatewayTransactionID == gatewayTxnID
	})
	if len(matches) == 0 {
		return nil, notFoundErr("payment", gatewayTxnID)
	}
	return copyTransaction(matches[0]), nil
}

func (s *InMemoryPaymentStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.Transaction, error) {
	matches := s.transactions.List(ctx, func(ctx context.Context, t *payment.Transaction) bool {
		return t.InvoiceID == invoiceID && t.Status != types.StatusDeleted
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	out := make([]*payment.Transaction, len(matches))
	for i, t := range matches {
		out[i] = copyTransaction(t)
	}
	return out, nil
}

func (s *InMemoryPaymentStore) ListSuccessfulWithoutCommission(ctx context.Context, limit int) ([]*payment.Transaction, error) {
	matches := s.transactions.List(ctx, func(ctx context.Context, t *payment.Transaction) bool {
		if !t.IsSuccess() || t.Status == types.StatusDeleted {
			return false
		}
		if s.commissionChecker != nil && s.commissionChecker(ctx, t.ID) {
			return false
		}
		return true
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]*payment.Transaction, len(matches))
	for i, t := range matches {
		out[i] = copyTransaction(t)
	}
	return out, nil
}

func (s *InMemoryPaymentStore) CreateRefund(ctx context.Context, r *payment.Refund) error {
	copied := *r
	copied.GatewayRefundID = copyStringPtr(r.GatewayRefundID)
	return s.refunds.Create(ctx, r.ID, &copied)
}

func (s *InMemoryPaymentStore) GetRefund(ctx context.Context, id string) (*payment.Refund, error) {
	r, err := s.refunds.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	copied := *r
	copied.GatewayRefundID = copyStringPtr(r.GatewayRefundID)
	return &copied, nil
}
