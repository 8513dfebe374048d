package types

import (
	"time"

	ierr "github.com/upbill/upbill/internal/errors"
)

// BillingPeriod is the cadence at which a subscription renews.
type BillingPeriod string

const (
	BILLING_PERIOD_MONTHLY   BillingPeriod = "monthly"
	BILLING_PERIOD_QUARTERLY BillingPeriod = "quarterly"
	BILLING_PERIOD_YEARLY    BillingPeriod = "yearly"
)

func (p BillingPeriod) Validate() error {
	switch p {
	case BILLING_PERIOD_MONTHLY, BILLING_PERIOD_QUARTERLY, BILLING_PERIOD_YEARLY:
		return nil
	default:
		return ierr.NewErrorf("invalid billing period: %s", p).
			WithHint("Billing period must be monthly, quarterly or yearly").
			Mark(ierr.ErrValidation)
	}
}

// Months returns the number of calendar months in one billing cycle.
func (p BillingPeriod) Months() int {
	switch p {
	case BILLING_PERIOD_QUARTERLY:
		return 3
	case BILLING_PERIOD_YEARLY:
		return 12
	default:
		return 1
	}
}

// AddCalendarMonths advances t by the given number of calendar months,
// clamping the day-of-month to the length of the target month. Unlike
// time.AddDate this never overflows into the following month
// (Jan 31 + 1 month = Feb 28/29, not Mar 2/3), so period boundaries do not
// drift across months of different length.
func AddCalendarMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// NextBillingDate advances the given anchor by exactly one billing cycle.
// Renewal advancement is always computed from the previous anchor, never from
// "now", so a late sweep run cannot accumulate drift.
func NextBillingDate(from time.Time, period BillingPeriod) time.Time {
	return AddCalendarMonths(from, period.Months())
}

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) Validate() error {
	switch s {
	case SubscriptionStatusTrial, SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusExpired:
		return nil
	default:
		return ierr.NewErrorf("invalid subscription status: %s", s).
			Mark(ierr.ErrValidation)
	}
}

// InvoiceStatus is the document state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// InvoicePaymentStatus tracks how much of an invoice has been collected.
type InvoicePaymentStatus string

const (
	InvoicePaymentStatusUnpaid  InvoicePaymentStatus = "unpaid"
	InvoicePaymentStatusPartial InvoicePaymentStatus = "partial"
	InvoicePaymentStatusPaid    InvoicePaymentStatus = "paid"
)

// PaymentStatus is the state of a single gateway payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Validate() error {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed:
		return nil
	default:
		return ierr.NewErrorf("invalid payment status: %s", s).
			Mark(ierr.ErrValidation)
	}
}

// PaymentGateway identifies the provider a payment was attempted through.
type PaymentGateway string

const (
	PaymentGatewayRazorpay PaymentGateway = "razorpay"
	PaymentGatewayCashfree PaymentGateway = "cashfree"
	PaymentGatewayPaytm    PaymentGateway = "paytm"
)

func (g PaymentGateway) Validate() error {
	switch g {
	case PaymentGatewayRazorpay, PaymentGatewayCashfree, PaymentGatewayPaytm:
		return nil
	default:
		return ierr.NewErrorf("unsupported payment gateway: %s", g).
			WithHint("Supported gateways are razorpay, cashfree and paytm").
			Mark(ierr.ErrValidation)
	}
}

// DiscountType is how a coupon's discount value is interpreted.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFlat       DiscountType = "flat"
)

func (d DiscountType) Validate() error {
	switch d {
	case DiscountTypePercentage, DiscountTypeFlat:
		return nil
	default:
		return ierr.NewErrorf("invalid discount type: %s", d).
			WithHint("Discount type must be percentage or flat").
			Mark(ierr.ErrValidation)
	}
}

// RefundType classifies a refund request against its source transaction.
type RefundType string

const (
	RefundTypeFull    RefundType = "full"
	RefundTypePartial RefundType = "partial"
)

// RefundStatus is the approval workflow state of a refund. Only the initial
// state is owned by this core; approval and execution happen elsewhere.
type RefundStatus string

const (
	RefundStatusRequested RefundStatus = "requested"
	RefundStatusApproved  RefundStatus = "approved"
	RefundStatusRejected  RefundStatus = "rejected"
	RefundStatusProcessed RefundStatus = "processed"
)

// CommissionType is how a partner's commission value is interpreted.
type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFlat       CommissionType = "flat"
)

// CommissionStatus tracks payout of a partner commission.
type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending"
	CommissionStatusPaid    CommissionStatus = "paid"
)
