package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/config"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/integration"
	"github.com/upbill/upbill/internal/logger"
)

var hundred = decimal.NewFromInt(100)

// Client implements the payment gateway contract on the Razorpay API.
// Amounts cross the wire in paise.
type Client struct {
	api       *razorpay.Client
	keySecret string
	logger    *logger.Logger
}

// NewClient builds a Razorpay gateway client from configuration.
func NewClient(cfg *config.Configuration, log *logger.Logger) integration.Gateway {
	return &Client{
		api:       razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret),
		keySecret: cfg.Razorpay.KeySecret,
		logger:    log,
	}
}

// CreateOrder registers a payable order with Razorpay.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*integration.Order, error) {
	data := map[string]interface{}{
		"amount":   amount.Mul(hundred).IntPart(),
		"currency": currency,
		"receipt":  receipt,
	}

	resp, err := c.api.Order.Create(data, nil)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment gateway rejected the order request").
			WithReportableDetails(map[string]interface{}{
				"receipt": receipt,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	orderID, ok := resp["id"].(string)
	if !ok || orderID == "" {
		return nil, ierr.NewError("gateway order response missing id").
			WithHint("Payment gateway returned an unexpected response").
			Mark(ierr.ErrHTTPClient)
	}

	c.logger.Debugw("created razorpay order", "order_id", orderID, "receipt", receipt)

	return &integration.Order{
		OrderID:  orderID,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 callback signature Razorpay computes
// over "orderID|paymentID" with the key secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ProcessRefund asks Razorpay to refund the given amount of a payment.
func (c *Client) ProcessRefund(ctx context.Context, paymentID string, amount decimal.Decimal) (string, error) {
	resp, err := c.api.Payment.Refund(paymentID, int(amount.Mul(hundred).IntPart()), nil, nil)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Payment gateway rejected the refund request").
			WithReportableDetails(map[string]interface{}{
				"payment_id": paymentID,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	refundID, ok := resp["id"].(string)
	if !ok || refundID == "" {
		return "", ierr.NewError("gateway refund response missing id").
			Mark(ierr.ErrHTTPClient)
	}

	return refundID, nil
}
