package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/upbill/upbill/internal/types"
)

func balancedInvoice() *Invoice {
	return &Invoice{
		InvoiceNumber:  "INV-2026-000001",
		Subtotal:       decimal.RequireFromString("999"),
		DiscountAmount: decimal.Zero,
		CGSTAmount:     decimal.RequireFromString("89.91"),
		SGSTAmount:     decimal.RequireFromString("89.91"),
		IGSTAmount:     decimal.Zero,
		TotalAmount:    decimal.RequireFromString("1178.82"),
		AmountPaid:     decimal.Zero,
		PaymentStatus:  types.InvoicePaymentStatusUnpaid,
		InvoiceStatus:  types.InvoiceStatusPending,
	}
}

func TestInvoiceValidate(t *testing.T) {
	t.Run("Balanced", func(t *testing.T) {
		assert.NoError(t, balancedInvoice().Validate())
	})

	t.Run("BalancedWithDiscount", func(t *testing.T) {
		inv := balancedInvoice()
		inv.DiscountAmount = decimal.NewFromInt(50)
		inv.TotalAmount = decimal.RequireFromString("1128.82")
		assert.NoError(t, inv.Validate())
	})

	t.Run("AmountsDoNotBalance", func(t *testing.T) {
		inv := balancedInvoice()
		inv.TotalAmount = decimal.RequireFromString("1200.00")
		assert.Error(t, inv.Validate())
	})

	t.Run("RoundingToleranceAccepted", func(t *testing.T) {
		inv := balancedInvoice()
		inv.TotalAmount = decimal.RequireFromString("1178.83")
		assert.NoError(t, inv.Validate())
	})

	t.Run("BothTaxRegimesRejected", func(t *testing.T) {
		inv := balancedInvoice()
		inv.IGSTAmount = decimal.RequireFromString("179.82")
		inv.TotalAmount = inv.TotalAmount.Add(inv.IGSTAmount)
		assert.Error(t, inv.Validate())
	})

	t.Run("MissingNumberRejected", func(t *testing.T) {
		inv := balancedInvoice()
		inv.InvoiceNumber = ""
		assert.Error(t, inv.Validate())
	})
}

func TestRecordPayment(t *testing.T) {
	now := time.Now().UTC()

	t.Run("PartialPayment", func(t *testing.T) {
		inv := balancedInvoice()
		inv.RecordPayment(decimal.NewFromInt(500), now)

		assert.Equal(t, types.InvoicePaymentStatusPartial, inv.PaymentStatus)
		assert.Equal(t, types.InvoiceStatusPending, inv.InvoiceStatus)
		assert.Nil(t, inv.PaidAt)
		assert.Equal(t, "678.82", inv.AmountDue().String())
	})

	t.Run("SettlingPayment", func(t *testing.T) {
		inv := balancedInvoice()
		inv.RecordPayment(decimal.NewFromInt(500), now)
		inv.RecordPayment(decimal.RequireFromString("678.82"), now)

		assert.Equal(t, types.InvoicePaymentStatusPaid, inv.PaymentStatus)
		assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)
		assert.NotNil(t, inv.PaidAt)
		assert.True(t, inv.AmountDue().IsZero())
	})
}
