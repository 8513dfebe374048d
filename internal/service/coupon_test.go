package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/subscription"
	"github.com/upbill/upbill/internal/domain/tenant"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/testutil"
	"github.com/upbill/upbill/internal/types"
)

type CouponServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CouponService
	params  ServiceParams

	subID string
}

func TestCouponService(t *testing.T) {
	suite.Run(t, new(CouponServiceSuite))
}

func (s *CouponServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		TenantRepo:       s.GetStores().TenantRepo,
		PlanRepo:         s.GetStores().PlanRepo,
		SubRepo:          s.GetStores().SubRepo,
		InvoiceRepo:      s.GetStores().InvoiceRepo,
		UsageRepo:        s.GetStores().UsageRepo,
		CouponRepo:       s.GetStores().CouponRepo,
		PaymentRepo:      s.GetStores().PaymentRepo,
		PartnerRepo:      s.GetStores().PartnerRepo,
		GSTReceiptRepo:   s.GetStores().GSTReceiptRepo,
		Gateway:          s.GetGateway(),
		WebhookPublisher: s.GetWebhookPublisher(),
		AuditLogger:      s.GetAuditLogger(),
		PlanCache:        s.GetPlanCache(),
	}
	s.service = NewCouponService(s.params)

	ctx := s.GetContext()
	s.NoError(s.GetStores().TenantRepo.Create(ctx, &tenant.Tenant{
		ID:           types.GetTenantID(ctx),
		Name:         "Acme Corp",
		BillingEmail: "billing@acme.test",
		State:        "KA",
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}))

	planResp, err := NewPlanService(s.params).CreatePlan(ctx, dto.CreatePlanRequest{
		Name:          "Pro",
		BasePrice:     decimal.NewFromInt(999),
		BillingPeriod: types.BILLING_PERIOD_MONTHLY,
	})
	s.NoError(err)

	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		PlanID:             planResp.Plan.ID,
		BillingEmail:       "ops@acme.test",
		Gateway:            types.PaymentGatewayRazorpay,
		SubscriptionStatus: types.SubscriptionStatusActive,
		BillingPeriod:      types.BILLING_PERIOD_MONTHLY,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   types.NextBillingDate(now, types.BILLING_PERIOD_MONTHLY),
		NextBillingDate:    types.NextBillingDate(now, types.BILLING_PERIOD_MONTHLY),
		AutoRenew:          true,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubRepo.Create(ctx, sub))
	s.subID = sub.ID
}

func (s *CouponServiceSuite) newInvoice() string {
	resp, err := NewInvoiceService(s.params).GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		SubscriptionID: s.subID,
	})
	s.NoError(err)
	return resp.ID
}

func (s *CouponServiceSuite) TestCreateCoupon() {
	s.Run("ValidCoupon", func() {
		resp, err := s.service.CreateCoupon(s.GetContext(), dto.CreateCouponRequest{
			Code:          " welcome10 ",
			DiscountType:  types.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(10),
		})
		s.NoError(err)
		s.Equal("WELCOME10", resp.Code)
	})

	s.Run("DuplicateCode", func() {
		_, err := s.service.CreateCoupon(s.GetContext(), dto.CreateCouponRequest{
			Code:          "WELCOME10",
			DiscountType:  types.DiscountTypeFlat,
			DiscountValue: decimal.NewFromInt(50),
		})
		s.Error(err)
		s.True(ierr.IsAlreadyExists(err))
	})

	s.Run("PercentageOverHundred", func() {
		_, err := s.service.CreateCoupon(s.GetContext(), dto.CreateCouponRequest{
			Code:          "TOOBIG",
			DiscountType:  types.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(150),
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})
}

func (s *CouponServiceSuite) TestApplyCoupon() {
	_, err := s.service.CreateCoupon(s.GetContext(), dto.CreateCouponRequest{
		Code:              "SAVE10",
		DiscountType:      types.DiscountTypePercentage,
		DiscountValue:     decimal.NewFromInt(10),
		MaxDiscountAmount: lo.ToPtr(decimal.NewFromInt(50)),
	})
	s.NoError(err)

	s.Run("PercentageCappedAtMax", func() {
		invoiceID := s.newInvoice()
		resp, err := s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "save10",
			InvoiceID: invoiceID,
		})
		s.NoError(err)
		// 10% of 999 is 99.90, capped at 50.
		s.Equal("50", resp.DiscountApplied.String())
		s.Equal("50", resp.Invoice.DiscountAmount.String())
		s.Equal("1128.82", resp.Invoice.TotalAmount.String())
		// The tax amounts stay frozen.
		s.Equal("89.91", resp.Invoice.CGSTAmount.String())
		s.Equal("89.91", resp.Invoice.SGSTAmount.String())

		c, err := s.service.GetCouponByCode(s.GetContext(), "SAVE10")
		s.NoError(err)
		s.Equal(1, c.RedemptionsCount)
	})

	s.Run("SecondCouponOnSameInvoiceRejected", func() {
		invoiceID := s.newInvoice()
		_, err := s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "SAVE10",
			InvoiceID: invoiceID,
		})
		s.NoError(err)

		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "SAVE10",
			InvoiceID: invoiceID,
		})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	})

	s.Run("DifferentCouponOnDiscountedInvoiceRejected", func() {
		// The invoice row lock serializes applies across distinct coupons;
		// the later one must see the earlier discount and refuse to stack.
		_, err := s.service.CreateCoupon(s.GetContext(), dto.CreateCouponRequest{
			Code:          "FLAT50",
			DiscountType:  types.DiscountTypeFlat,
			DiscountValue: decimal.NewFromInt(50),
		})
		s.NoError(err)

		invoiceID := s.newInvoice()
		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "SAVE10",
			InvoiceID: invoiceID,
		})
		s.NoError(err)

		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "FLAT50",
			InvoiceID: invoiceID,
		})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))

		// Only the first discount sticks.
		inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), invoiceID)
		s.NoError(err)
		s.Equal("50", inv.DiscountAmount.String())
	})

	s.Run("PaidInvoiceRejected", func() {
		invoiceID := s.newInvoice()
		inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), invoiceID)
		s.NoError(err)
		inv.RecordPayment(inv.TotalAmount, time.Now().UTC())
		s.NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))

		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "SAVE10",
			InvoiceID: invoiceID,
		})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	})

	s.Run("MinPurchaseNotMet", func() {
		_, err := s.service.CreateCoupon(s.GetContext(), dto.CreateCouponRequest{
			Code:              "BULK",
			DiscountType:      types.DiscountTypeFlat,
			DiscountValue:     decimal.NewFromInt(100),
			MinPurchaseAmount: lo.ToPtr(decimal.NewFromInt(5000)),
		})
		s.NoError(err)

		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "BULK",
			InvoiceID: s.newInvoice(),
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("ExpiredCoupon", func() {
		_, err := s.service.CreateCoupon(s.GetContext(), dto.CreateCouponRequest{
			Code:          "BYGONE",
			DiscountType:  types.DiscountTypeFlat,
			DiscountValue: decimal.NewFromInt(10),
			ValidFrom:     lo.ToPtr(time.Now().UTC().AddDate(0, -2, 0)),
			ValidUntil:    lo.ToPtr(time.Now().UTC().AddDate(0, -1, 0)),
		})
		s.NoError(err)

		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "BYGONE",
			InvoiceID: s.newInvoice(),
		})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	})

	s.Run("RedemptionCapEnforced", func() {
		_, err := s.service.CreateCoupon(s.GetContext(), dto.CreateCouponRequest{
			Code:           "ONCE",
			DiscountType:   types.DiscountTypeFlat,
			DiscountValue:  decimal.NewFromInt(10),
			MaxRedemptions: lo.ToPtr(1),
		})
		s.NoError(err)

		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "ONCE",
			InvoiceID: s.newInvoice(),
		})
		s.NoError(err)

		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "ONCE",
			InvoiceID: s.newInvoice(),
		})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	})

	s.Run("FirstTimeOnlySecondUseRejected", func() {
		_, err := s.service.CreateCoupon(s.GetContext(), dto.CreateCouponRequest{
			Code:          "NEWBIE",
			DiscountType:  types.DiscountTypeFlat,
			DiscountValue: decimal.NewFromInt(25),
			FirstTimeOnly: true,
		})
		s.NoError(err)

		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "NEWBIE",
			InvoiceID: s.newInvoice(),
		})
		s.NoError(err)

		_, err = s.service.ApplyCoupon(s.GetContext(), dto.ApplyCouponRequest{
			Code:      "NEWBIE",
			InvoiceID: s.newInvoice(),
		})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	})
}
