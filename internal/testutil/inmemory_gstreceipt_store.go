package testutil

import (
	"context"
	"sort"

	"github.com/upbill/upbill/internal/domain/gstreceipt"
	"github.com/upbill/upbill/internal/types"
)

// InMemoryGSTReceiptStore implements gstreceipt.Repository
type InMemoryGSTReceiptStore struct {
	*InMemoryStore[*gstreceipt.Receipt]
}

func NewInMemoryGSTReceiptStore() *InMemoryGSTReceiptStore {
	return &InMemoryGSTReceiptStore{InMemoryStore: NewInMemoryStore[*gstreceipt.Receipt]()}
}

func copyReceipt(r *gstreceipt.Receipt) *gstreceipt.Receipt {
	if r == nil {
		return nil
	}
	copied := *r
	copied.RecipientGSTIN = copyStringPtr(r.RecipientGSTIN)
	return &copied
}

func (s *InMemoryGSTReceiptStore) Create(ctx context.Context, r *gstreceipt.Receipt) error {
	matches := s.InMemoryStore.List(ctx, func(ctx context.Context, other *gstreceipt.Receipt) bool {
		return other.PaymentID == r.PaymentID
	})
	if len(matches) > 0 {
		return alreadyExistsErr("gst receipt", r.PaymentID)
	}
	return s.InMemoryStore.Create(ctx, r.ID, copyReceipt(r))
}

func (s *InMemoryGSTReceiptStore) GetByPaymentID(ctx context.Context, paymentID string) (*gstreceipt.Receipt, error) {
	matches := s.InMemoryStore.List(ctx, func(ctx context.Context, r *gstreceipt.Receipt) bool {
		return r.PaymentID == paymentID && r.Status != types.StatusDeleted
	})
	if len(matches) == 0 {
		return nil, notFoundErr("gst receipt", paymentID)
	}
	return copyReceipt(matches[0]), nil
}

func (s *InMemoryGSTReceiptStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*gstreceipt.Receipt, error) {
	matches := s.InMemoryStore.List(ctx, func(ctx context.Context, r *gstreceipt.Receipt) bool {
		return r.InvoiceID == invoiceID && r.Status != types.StatusDeleted
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	out := make([]*gstreceipt.Receipt, len(matches))
	for i, r := range matches {
		out[i] = copyReceipt(r)
	}
	return out, nil
}
