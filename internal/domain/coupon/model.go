package coupon

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// Coupon is a discount code. Redemption constraints (validity window, global
// cap, first-time-only, minimum purchase) are enforced by the coupon engine
// under a row lock on this row.
type Coupon struct {
	ID                string             `json:"id"`
	Code              string             `json:"code"`
	DiscountType      types.DiscountType `json:"discount_type"`
	DiscountValue     decimal.Decimal    `json:"discount_value"`
	MinPurchaseAmount *decimal.Decimal   `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount,omitempty"`
	ValidFrom         time.Time          `json:"valid_from"`
	ValidUntil        *time.Time         `json:"valid_until,omitempty"`
	MaxRedemptions    *int               `json:"max_redemptions,omitempty"`
	RedemptionsCount  int                `json:"redemptions_count"`
	FirstTimeOnly     bool               `json:"first_time_only"`
	Metadata          types.Metadata     `json:"metadata,omitempty"`
	types.BaseModel
}

// IsActive reports whether the coupon row itself is live.
func (c *Coupon) IsActive() bool {
	return c.Status == types.StatusPublished
}

// IsWithinValidityWindow reports whether now falls inside
// [valid_from, valid_until].
func (c *Coupon) IsWithinValidityWindow(now time.Time) bool {
	if now.Before(c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return true
}

// IsExhausted reports whether the global redemption cap has been reached.
func (c *Coupon) IsExhausted() bool {
	return c.MaxRedemptions != nil && c.RedemptionsCount >= *c.MaxRedemptions
}

// ComputeDiscount returns the discount for a given invoice subtotal, rounded
// to currency precision at the source. Percentage discounts are capped at
// MaxDiscountAmount when set; flat discounts apply verbatim. The result is
// clamped to the subtotal so an invoice total can never go negative.
func (c *Coupon) ComputeDiscount(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case types.DiscountTypePercentage:
		discount = subtotal.Mul(c.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
		if c.MaxDiscountAmount != nil && discount.GreaterThan(*c.MaxDiscountAmount) {
			discount = c.MaxDiscountAmount.Round(2)
		}
	case types.DiscountTypeFlat:
		discount = c.DiscountValue.Round(2)
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}

func (c *Coupon) Validate() error {
	if c.Code == "" {
		return ierr.NewError("coupon code is required").
			WithHint("Coupon code is required").
			Mark(ierr.ErrValidation)
	}
	if err := c.DiscountType.Validate(); err != nil {
		return err
	}
	if !c.DiscountValue.IsPositive() {
		return ierr.NewError("discount value must be positive").
			WithHint("Discount value must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if c.DiscountType == types.DiscountTypePercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError("percentage discount cannot exceed 100").
			WithHint("Percentage discount cannot exceed 100").
			Mark(ierr.ErrValidation)
	}
	if c.MaxRedemptions != nil && *c.MaxRedemptions <= 0 {
		return ierr.NewError("max_redemptions must be positive when set").
			Mark(ierr.ErrValidation)
	}
	if c.ValidUntil != nil && c.ValidUntil.Before(c.ValidFrom) {
		return ierr.NewError("valid_until must be after valid_from").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Redemption records one successful application of a coupon to an invoice.
type Redemption struct {
	ID              string          `json:"id"`
	CouponID        string          `json:"coupon_id"`
	InvoiceID       string          `json:"invoice_id"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	types.BaseModel
}
