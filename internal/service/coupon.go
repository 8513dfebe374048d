package service

import (
	"context"
	"strings"
	"time"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/coupon"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// CouponService manages discount codes and applies them to unpaid invoices.
// Application runs inside a transaction with a row lock on the coupon, so a
// capped coupon can never be redeemed past its limit under concurrency.
type CouponService interface {
	CreateCoupon(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error)
	GetCouponByCode(ctx context.Context, code string) (*dto.CouponResponse, error)
	ApplyCoupon(ctx context.Context, req dto.ApplyCouponRequest) (*dto.ApplyCouponResponse, error)
}

type couponService struct {
	ServiceParams
}

func NewCouponService(params ServiceParams) CouponService {
	return &couponService{ServiceParams: params}
}

func (s *couponService) CreateCoupon(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := req.ToCoupon(ctx)
	if existing, err := s.CouponRepo.GetByCode(ctx, c.Code); err == nil && existing != nil {
		return nil, ierr.NewError("coupon code already exists").
			WithHint("Choose a different coupon code").
			WithReportableDetails(map[string]interface{}{
				"code": c.Code,
			}).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	if err := s.CouponRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "coupon.created", "coupon", c.ID, nil, map[string]interface{}{
		"code":           c.Code,
		"discount_type":  string(c.DiscountType),
		"discount_value": c.DiscountValue.String(),
	})
	return dto.NewCouponResponse(c), nil
}

func (s *couponService) GetCouponByCode(ctx context.Context, code string) (*dto.CouponResponse, error) {
	c, err := s.CouponRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	return dto.NewCouponResponse(c), nil
}

func (s *couponService) ApplyCoupon(ctx context.Context, req dto.ApplyCouponRequest) (*dto.ApplyCouponResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	tenantID := types.GetTenantID(ctx)
	now := time.Now().UTC()

	var resp *dto.ApplyCouponResponse
	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		c, err := s.CouponRepo.GetByCodeForUpdate(txCtx, code)
		if err != nil {
			return err
		}
		if err := s.checkRedeemable(txCtx, c, tenantID, now); err != nil {
			return err
		}

		// Row lock on the invoice too: the coupon lock alone cannot stop
		// two different coupons landing on one invoice concurrently.
		inv, err := s.InvoiceRepo.GetForUpdate(txCtx, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.PaymentStatus == types.InvoicePaymentStatusPaid {
			return ierr.NewError("invoice is already paid").
				WithHint("Coupons can only be applied to unpaid invoices").
				WithReportableDetails(map[string]interface{}{
					"invoice_id": inv.ID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		if !inv.DiscountAmount.IsZero() {
			return ierr.NewError("invoice already has a discount").
				WithHint("Only one coupon can be applied per invoice").
				WithReportableDetails(map[string]interface{}{
					"invoice_id": inv.ID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		if c.MinPurchaseAmount != nil && inv.Subtotal.LessThan(*c.MinPurchaseAmount) {
			return ierr.NewErrorf("Minimum purchase amount of ₹%s required", c.MinPurchaseAmount.StringFixed(2)).
				WithReportableDetails(map[string]interface{}{
					"code":                c.Code,
					"min_purchase_amount": c.MinPurchaseAmount.String(),
					"subtotal":            inv.Subtotal.String(),
				}).
				Mark(ierr.ErrValidation)
		}

		discount := c.ComputeDiscount(inv.Subtotal)

		// The subtotal and tax amounts stay frozen; the discount reduces the
		// total directly so the document still balances.
		inv.DiscountAmount = inv.DiscountAmount.Add(discount)
		inv.TotalAmount = inv.TotalAmount.Sub(discount)
		if err := inv.Validate(); err != nil {
			return err
		}
		if err := s.InvoiceRepo.Update(txCtx, inv); err != nil {
			return err
		}

		redemption := &coupon.Redemption{
			ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COUPON_REDEMPTION),
			CouponID:        c.ID,
			InvoiceID:       inv.ID,
			DiscountApplied: discount,
			BaseModel:       types.GetDefaultBaseModel(txCtx),
		}
		if err := s.CouponRepo.CreateRedemption(txCtx, redemption); err != nil {
			return err
		}
		if err := s.CouponRepo.IncrementRedemptions(txCtx, c.ID); err != nil {
			return err
		}

		resp = &dto.ApplyCouponResponse{
			DiscountApplied: discount,
			Invoice:         dto.NewInvoiceResponse(inv),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "coupon.redeemed", "coupon", code, nil, map[string]interface{}{
		"invoice_id":       req.InvoiceID,
		"discount_applied": resp.DiscountApplied.String(),
	})
	return resp, nil
}

// checkRedeemable enforces every redemption constraint except minimum
// purchase, which needs the invoice.
func (s *couponService) checkRedeemable(ctx context.Context, c *coupon.Coupon, tenantID string, now time.Time) error {
	if !c.IsActive() {
		return ierr.NewError("coupon is not active").
			WithHint("This coupon is no longer available").
			WithReportableDetails(map[string]interface{}{
				"code": c.Code,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if !c.IsWithinValidityWindow(now) {
		return ierr.NewError("coupon is outside its validity window").
			WithHint("This coupon is expired or not yet valid").
			WithReportableDetails(map[string]interface{}{
				"code":       c.Code,
				"valid_from": c.ValidFrom,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if c.IsExhausted() {
		return ierr.NewError("coupon redemption limit reached").
			WithHint("This coupon has been fully redeemed").
			WithReportableDetails(map[string]interface{}{
				"code":            c.Code,
				"max_redemptions": *c.MaxRedemptions,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if c.FirstTimeOnly {
		count, err := s.CouponRepo.CountRedemptionsByTenant(ctx, c.ID, tenantID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ierr.NewError("coupon can only be used once").
				WithHint("This coupon can only be used once per customer").
				WithReportableDetails(map[string]interface{}{
					"code": c.Code,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
	}
	return nil
}
