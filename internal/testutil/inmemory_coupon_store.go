package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/upbill/upbill/internal/domain/coupon"
	"github.com/upbill/upbill/internal/types"
)

// InMemoryCouponStore implements coupon.Repository
type InMemoryCouponStore struct {
	coupons     *InMemoryStore[*coupon.Coupon]
	redemptions *InMemoryStore[*coupon.Redemption]
}

func NewInMemoryCouponStore() *InMemoryCouponStore {
	return &InMemoryCouponStore{
		coupons:     NewInMemoryStore[*coupon.Coupon](),
		redemptions: NewInMemoryStore[*coupon.Redemption](),
	}
}

func copyCoupon(c *coupon.Coupon) *coupon.Coupon {
	if c == nil {
		return nil
	}
	copied := *c
	if c.MinPurchaseAmount != nil {
		v := *c.MinPurchaseAmount
		copied.MinPurchaseAmount = &v
	}
	if c.MaxDiscountAmount != nil {
		v := *c.MaxDiscountAmount
		copied.MaxDiscountAmount = &v
	}
	copied.ValidUntil = copyTimePtr(c.ValidUntil)
	if c.MaxRedemptions != nil {
		v := *c.MaxRedemptions
		copied.MaxRedemptions = &v
	}
	copied.Metadata = lo.Assign(map[string]string{}, c.Metadata)
	return &copied
}

func (s *InMemoryCouponStore) Create(ctx context.Context, c *coupon.Coupon) error {
	if existing := s.byCode(ctx, c.Code); existing != nil {
		return alreadyExistsErr("coupon", c.Code)
	}
	return s.coupons.Create(ctx, c.ID, copyCoupon(c))
}

func (s *InMemoryCouponStore) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	c, err := s.coupons.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyCoupon(c), nil
}

func (s *InMemoryCouponStore) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	c := s.byCode(ctx, code)
	if c == nil {
		return nil, notFoundErr("coupon", code)
	}
	return copyCoupon(c), nil
}

// GetByCodeForUpdate behaves like GetByCode; the fakes run single-threaded
// tests, so there is no row lock to take.
func (s *InMemoryCouponStore) GetByCodeForUpdate(ctx context.Context, code string) (*coupon.Coupon, error) {
	return s.GetByCode(ctx, code)
}

func (s *InMemoryCouponStore) IncrementRedemptions(ctx context.Context, id string) error {
	c, err := s.coupons.Get(ctx, id)
	if err != nil {
		return err
	}
	copied := copyCoupon(c)
	copied.RedemptionsCount++
	copied.UpdatedAt = time.Now().UTC()
	return s.coupons.Update(ctx, id, copied)
}

func (s *InMemoryCouponStore) CreateRedemption(ctx context.Context, r *coupon.Redemption) error {
	copied := *r
	return s.redemptions.Create(ctx, r.ID, &copied)
}

func (s *InMemoryCouponStore) CountRedemptionsByTenant(ctx context.Context, couponID, tenantID string) (int, error) {
	return s.redemptions.Count(ctx, func(ctx context.Context, r *coupon.Redemption) bool {
		return r.CouponID == couponID && r.TenantID == tenantID && r.Status != types.StatusDeleted
	}), nil
}

func (s *InMemoryCouponStore) byCode(ctx context.Context, code string) *coupon.Coupon {
	matches := s.coupons.List(ctx, func(ctx context.Context, c *coupon.Coupon) bool {
		return c.Code == code && c.Status != types.StatusDeleted
	})
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}
