package integration

import (
	"context"

	"github.com/shopspring/decimal"
)

// Order is a gateway payment order created ahead of checkout.
type Order struct {
	OrderID  string          `json:"order_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
}

// Gateway is the payment provider contract this core consumes. The core
// never performs the HTTP calls itself in tests; only this contract is
// depended upon.
type Gateway interface {
	// CreateOrder registers a payable order with the provider and returns
	// its id.
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*Order, error)

	// VerifySignature checks the provider's callback signature for an
	// (order, payment) pair.
	VerifySignature(orderID, paymentID, signature string) bool

	// ProcessRefund asks the provider to refund part or all of a payment
	// and returns the provider's refund id.
	ProcessRefund(ctx context.Context, paymentID string, amount decimal.Decimal) (string, error)
}
