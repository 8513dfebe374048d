package postgres

import (
	"context"
	"time"

	"github.com/upbill/upbill/internal/domain/coupon"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
)

type couponRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewCouponRepository(client postgres.IClient, log *logger.Logger) coupon.Repository {
	return &couponRepository{client: client, log: log}
}

const couponColumns = `id, code, discount_type, discount_value, min_purchase_amount, max_discount_amount,
	valid_from, valid_until, max_redemptions, redemptions_count, first_time_only, metadata,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *couponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	meta, err := marshalMetadata(c.Metadata)
	if err != nil {
		return err
	}

	_, err = r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO coupons (`+couponColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.MinPurchaseAmount, c.MaxDiscountAmount,
		c.ValidFrom, c.ValidUntil, c.MaxRedemptions, c.RedemptionsCount, c.FirstTimeOnly, meta,
		c.TenantID, c.Status, c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "coupons_code_key") {
			return ierr.WithError(err).
				WithHint("A coupon with this code already exists").
				WithReportableDetails(map[string]interface{}{
					"code": c.Code,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return dbErr(err, "Failed to create coupon")
	}
	return nil
}

func (r *couponRepository) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanCoupon(row)
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE code = $1 AND status != $2`,
		code, types.StatusDeleted,
	)
	return scanCoupon(row)
}

func (r *couponRepository) GetByCodeForUpdate(ctx context.Context, code string) (*coupon.Coupon, error) {
	if r.client.TxFromContext(ctx) == nil {
		return nil, ierr.NewError("GetByCodeForUpdate must run inside a transaction").
			Mark(ierr.ErrInternal)
	}

	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE code = $1 AND status != $2
		FOR UPDATE`,
		code, types.StatusDeleted,
	)
	return scanCoupon(row)
}

func (r *couponRepository) IncrementRedemptions(ctx context.Context, id string) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE coupons
		SET redemptions_count = redemptions_count + 1, updated_at = $2
		WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return dbErr(err, "Failed to increment coupon redemptions")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(errNoRows, "coupon", id)
	}
	return nil
}

func (r *couponRepository) CreateRedemption(ctx context.Context, red *coupon.Redemption) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO coupon_redemptions (
			id, coupon_id, invoice_id, discount_applied,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		red.ID, red.CouponID, red.InvoiceID, red.DiscountApplied,
		red.TenantID, red.Status, red.CreatedAt, red.UpdatedAt, red.CreatedBy, red.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to create coupon redemption")
	}
	return nil
}

func (r *couponRepository) CountRedemptionsByTenant(ctx context.Context, couponID, tenantID string) (int, error) {
	var count int
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM coupon_redemptions
		WHERE coupon_id = $1 AND tenant_id = $2 AND status != $3`,
		couponID, tenantID, types.StatusDeleted,
	).Scan(&count)
	if err != nil {
		return 0, dbErr(err, "Failed to count coupon redemptions")
	}
	return count, nil
}

func scanCoupon(row rowScanner) (*coupon.Coupon, error) {
	var c coupon.Coupon
	var meta []byte
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MinPurchaseAmount, &c.MaxDiscountAmount,
		&c.ValidFrom, &c.ValidUntil, &c.MaxRedemptions, &c.RedemptionsCount, &c.FirstTimeOnly, &meta,
		&c.TenantID, &c.Status, &c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "coupon", c.Code)
	}
	if c.Metadata, err = unmarshalMetadata(meta); err != nil {
		return nil, err
	}
	return &c, nil
}
