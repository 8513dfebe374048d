package coupon

import "context"

// Repository defines the interface for coupon persistence operations
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	Get(ctx context.Context, id string) (*Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)

	// GetByCodeForUpdate loads the coupon with a row lock (SELECT ... FOR
	// UPDATE). Must be called inside a transaction; serializes concurrent
	// redemptions of the same coupon.
	GetByCodeForUpdate(ctx context.Context, code string) (*Coupon, error)

	// IncrementRedemptions bumps redemptions_count by one.
	IncrementRedemptions(ctx context.Context, id string) error

	CreateRedemption(ctx context.Context, r *Redemption) error

	// CountRedemptionsByTenant counts prior successful redemptions of the
	// coupon by the tenant, for first-time-only enforcement.
	CountRedemptionsByTenant(ctx context.Context, couponID, tenantID string) (int, error)
}
