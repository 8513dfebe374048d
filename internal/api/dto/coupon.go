package dto

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/domain/coupon"
	"github.com/upbill/upbill/internal/types"
	"github.com/upbill/upbill/internal/validator"
)

type CreateCouponRequest struct {
	Code              string             `json:"code" validate:"required"`
	DiscountType      types.DiscountType `json:"discount_type" validate:"required"`
	DiscountValue     decimal.Decimal    `json:"discount_value" validate:"required"`
	MinPurchaseAmount *decimal.Decimal   `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount,omitempty"`
	ValidFrom         *time.Time         `json:"valid_from,omitempty"`
	ValidUntil        *time.Time         `json:"valid_until,omitempty"`
	MaxRedemptions    *int               `json:"max_redemptions,omitempty"`
	FirstTimeOnly     bool               `json:"first_time_only"`
	Metadata          types.Metadata     `json:"metadata,omitempty"`
}

func (r *CreateCouponRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.ToCoupon(context.Background()).Validate()
}

func (r *CreateCouponRequest) ToCoupon(ctx context.Context) *coupon.Coupon {
	validFrom := time.Now().UTC()
	if r.ValidFrom != nil {
		validFrom = *r.ValidFrom
	}
	return &coupon.Coupon{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COUPON),
		Code:              strings.ToUpper(strings.TrimSpace(r.Code)),
		DiscountType:      r.DiscountType,
		DiscountValue:     r.DiscountValue,
		MinPurchaseAmount: r.MinPurchaseAmount,
		MaxDiscountAmount: r.MaxDiscountAmount,
		ValidFrom:         validFrom,
		ValidUntil:        r.ValidUntil,
		MaxRedemptions:    r.MaxRedemptions,
		FirstTimeOnly:     r.FirstTimeOnly,
		Metadata:          r.Metadata,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
}

type ApplyCouponRequest struct {
	Code      string `json:"code" validate:"required"`
	InvoiceID string `json:"invoice_id" validate:"required"`
}

func (r *ApplyCouponRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type CouponResponse struct {
	*coupon.Coupon
}

func NewCouponResponse(c *coupon.Coupon) *CouponResponse {
	return &CouponResponse{Coupon: c}
}

// ApplyCouponResponse reports the discount actually applied and the mutated
// invoice.
type ApplyCouponResponse struct {
	DiscountApplied decimal.Decimal  `json:"discount_applied"`
	Invoice         *InvoiceResponse `json:"invoice"`
}
