package coupon

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/upbill/upbill/internal/types"
)

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   Coupon
		subtotal string
		want     string
	}{
		{
			name: "PercentageOfSubtotal",
			coupon: Coupon{
				DiscountType:  types.DiscountTypePercentage,
				DiscountValue: decimal.NewFromInt(10),
			},
			subtotal: "999",
			want:     "99.9",
		},
		{
			name: "PercentageCappedAtMax",
			coupon: Coupon{
				DiscountType:      types.DiscountTypePercentage,
				DiscountValue:     decimal.NewFromInt(10),
				MaxDiscountAmount: lo.ToPtr(decimal.NewFromInt(50)),
			},
			subtotal: "999",
			want:     "50",
		},
		{
			name: "FlatDiscount",
			coupon: Coupon{
				DiscountType:  types.DiscountTypeFlat,
				DiscountValue: decimal.NewFromInt(100),
			},
			subtotal: "999",
			want:     "100",
		},
		{
			name: "FlatClampedToSubtotal",
			coupon: Coupon{
				DiscountType:  types.DiscountTypeFlat,
				DiscountValue: decimal.NewFromInt(500),
			},
			subtotal: "300",
			want:     "300",
		},
		{
			name: "PercentageRoundsToPaise",
			coupon: Coupon{
				DiscountType:  types.DiscountTypePercentage,
				DiscountValue: decimal.NewFromFloat(12.5),
			},
			subtotal: "99.99",
			want:     "12.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.ComputeDiscount(decimal.RequireFromString(tt.subtotal))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestIsWithinValidityWindow(t *testing.T) {
	now := time.Now().UTC()

	c := Coupon{ValidFrom: now.AddDate(0, 0, -1)}
	assert.True(t, c.IsWithinValidityWindow(now))

	c.ValidUntil = lo.ToPtr(now.AddDate(0, 0, 1))
	assert.True(t, c.IsWithinValidityWindow(now))

	assert.False(t, c.IsWithinValidityWindow(now.AddDate(0, 0, 2)))
	assert.False(t, c.IsWithinValidityWindow(now.AddDate(0, 0, -2)))
}

func TestIsExhausted(t *testing.T) {
	c := Coupon{RedemptionsCount: 5}
	assert.False(t, c.IsExhausted())

	c.MaxRedemptions = lo.ToPtr(5)
	assert.True(t, c.IsExhausted())

	c.MaxRedemptions = lo.ToPtr(6)
	assert.False(t, c.IsExhausted())
}

func TestCouponValidate(t *testing.T) {
	base := Coupon{
		Code:          "SAVE10",
		DiscountType:  types.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		ValidFrom:     time.Now().UTC(),
	}
	assert.NoError(t, base.Validate())

	over := base
	over.DiscountValue = decimal.NewFromInt(150)
	assert.Error(t, over.Validate())

	negative := base
	negative.DiscountType = types.DiscountTypeFlat
	negative.DiscountValue = decimal.NewFromInt(-5)
	assert.Error(t, negative.Validate())

	inverted := base
	inverted.ValidUntil = lo.ToPtr(base.ValidFrom.AddDate(0, 0, -1))
	assert.Error(t, inverted.Validate())
}
