package testutil

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/integration"
)

// FakeGateway is a deterministic integration.Gateway for tests. Signatures
// verify when they equal "sig-" + paymentID; order and refund ids are
// sequential.
type FakeGateway struct {
	orderSeq  atomic.Int64
	refundSeq atomic.Int64

	// FailOrders makes CreateOrder return an error, for failure-path tests.
	FailOrders bool

	// VerifyHook, when set, runs at the start of VerifySignature. Tests use
	// it to interleave a competing operation between a service's read of the
	// invoice and its write.
	VerifyHook func()
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (g *FakeGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*integration.Order, error) {
	if g.FailOrders {
		return nil, fmt.Errorf("gateway unavailable")
	}
	return &integration.Order{
		OrderID:  fmt.Sprintf("order_test_%d", g.orderSeq.Add(1)),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (g *FakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if g.VerifyHook != nil {
		g.VerifyHook()
	}
	return signature == "sig-"+paymentID
}

func (g *FakeGateway) ProcessRefund(ctx context.Context, paymentID string, amount decimal.Decimal) (string, error) {
	return fmt.Sprintf("rfnd_test_%d", g.refundSeq.Add(1)), nil
}

// Signature returns the signature VerifySignature accepts for a payment id.
func (g *FakeGateway) Signature(paymentID string) string {
	return "sig-" + paymentID
}
