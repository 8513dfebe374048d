package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/invoice"
	"github.com/upbill/upbill/internal/domain/tenant"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/testutil"
	"github.com/upbill/upbill/internal/types"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
	params  ServiceParams
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
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
	s.service = NewSubscriptionService(s.params)
	s.seedTenant()
}

func (s *SubscriptionServiceSuite) seedTenant() {
	ctx := s.GetContext()
	t := &tenant.Tenant{
		ID:           types.GetTenantID(ctx),
		Name:         "Acme Corp",
		BillingEmail: "billing@acme.test",
		State:        "KA",
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().TenantRepo.Create(ctx, t))
}

func (s *SubscriptionServiceSuite) seedPlan(trialDays int) string {
	resp, err := NewPlanService(s.params).CreatePlan(s.GetContext(), dto.CreatePlanRequest{
		Name:          "Pro",
		BasePrice:     decimal.NewFromInt(999),
		BillingPeriod: types.BILLING_PERIOD_MONTHLY,
		TrialDays:     trialDays,
	})
	s.NoError(err)
	return resp.Plan.ID
}

func (s *SubscriptionServiceSuite) TestCreateSubscription() {
	s.Run("ActivePlanWithoutTrial", func() {
		planID := s.seedPlan(0)
		resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
			PlanID:       planID,
			BillingEmail: "ops@acme.test",
			Gateway:      types.PaymentGatewayRazorpay,
		})
		s.NoError(err)
		s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
		s.True(resp.AutoRenew)
		s.Nil(resp.TrialEnd)
		s.Equal(resp.CurrentPeriodEnd, resp.NextBillingDate)

		// The first invoice is issued immediately.
		invoices, err := s.GetStores().InvoiceRepo.List(s.GetContext(), invoice.NewFilter())
		s.NoError(err)
		s.Len(invoices, 1)
		s.Equal(resp.ID, invoices[0].SubscriptionID)
		s.Equal(invoice.BillingReasonSubscriptionCreate, invoices[0].BillingReason)
	})

	s.Run("TrialPlan", func() {
		s.GetStores().SubRepo.Clear()
		s.GetStores().InvoiceRepo.Clear()
		planID := s.seedPlan(14)
		resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
			PlanID:       planID,
			BillingEmail: "ops@acme.test",
			Gateway:      types.PaymentGatewayRazorpay,
		})
		s.NoError(err)
		s.Equal(types.SubscriptionStatusTrial, resp.SubscriptionStatus)
		s.NotNil(resp.TrialStart)
		s.NotNil(resp.TrialEnd)
		s.WithinDuration(time.Now().UTC().AddDate(0, 0, 14), *resp.TrialEnd, time.Minute)

		// Trials are not invoiced until conversion.
		invoices, err := s.GetStores().InvoiceRepo.List(s.GetContext(), invoice.NewFilter())
		s.NoError(err)
		s.Len(invoices, 0)
	})

	s.Run("TrialOverrideZeroSkipsTrial", func() {
		s.GetStores().SubRepo.Clear()
		s.GetStores().InvoiceRepo.Clear()
		planID := s.seedPlan(14)
		resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
			PlanID:            planID,
			BillingEmail:      "ops@acme.test",
			Gateway:           types.PaymentGatewayRazorpay,
			TrialDaysOverride: lo.ToPtr(0),
		})
		s.NoError(err)
		s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	})

	s.Run("SecondCurrentSubscriptionRejected", func() {
		planID := s.seedPlan(0)
		_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
			PlanID:       planID,
			BillingEmail: "ops@acme.test",
			Gateway:      types.PaymentGatewayRazorpay,
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("UnknownPlanRejected", func() {
		s.GetStores().SubRepo.Clear()
		_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
			PlanID:       "plan_missing",
			BillingEmail: "ops@acme.test",
			Gateway:      types.PaymentGatewayRazorpay,
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("ArchivedPlanRejected", func() {
		s.GetStores().SubRepo.Clear()
		planID := s.seedPlan(0)
		s.NoError(NewPlanService(s.params).ArchivePlan(s.GetContext(), planID))
		_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
			PlanID:       planID,
			BillingEmail: "ops@acme.test",
			Gateway:      types.PaymentGatewayRazorpay,
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})
}

func (s *SubscriptionServiceSuite) TestCancelSubscription() {
	planID := s.seedPlan(0)
	created, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID:       planID,
		BillingEmail: "ops@acme.test",
		Gateway:      types.PaymentGatewayRazorpay,
	})
	s.NoError(err)

	s.Run("AtPeriodEnd", func() {
		resp, err := s.service.CancelSubscription(s.GetContext(), created.ID, dto.CancelSubscriptionRequest{AtPeriodEnd: true})
		s.NoError(err)
		s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
		s.True(resp.CancelAtPeriodEnd)
		s.False(resp.AutoRenew)
		s.Nil(resp.CancelledAt)
	})

	s.Run("Immediate", func() {
		resp, err := s.service.CancelSubscription(s.GetContext(), created.ID, dto.CancelSubscriptionRequest{})
		s.NoError(err)
		s.Equal(types.SubscriptionStatusCancelled, resp.SubscriptionStatus)
		s.NotNil(resp.CancelledAt)
	})

	s.Run("AlreadyCancelled", func() {
		_, err := s.service.CancelSubscription(s.GetContext(), created.ID, dto.CancelSubscriptionRequest{})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	})

	s.Run("Unknown", func() {
		_, err := s.service.CancelSubscription(s.GetContext(), "sub_missing", dto.CancelSubscriptionRequest{})
		s.Error(err)
		s.True(ierr.IsNotFound(err))
	})
}

func (s *SubscriptionServiceSuite) TestRenewSubscriptions() {
	planID := s.seedPlan(0)
	created, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID:       planID,
		BillingEmail: "ops@acme.test",
		Gateway:      types.PaymentGatewayRazorpay,
	})
	s.NoError(err)

	s.Run("DueSubscriptionRenews", func() {
		// Backdate the anchor so the sweep picks the subscription up.
		sub, err := s.GetStores().SubRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		anchor := time.Now().UTC().AddDate(0, -1, 0)
		sub.CurrentPeriodStart = anchor.AddDate(0, -1, 0)
		sub.CurrentPeriodEnd = anchor
		sub.NextBillingDate = anchor
		s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

		result, err := s.service.RenewSubscriptions(s.GetContext())
		s.NoError(err)
		s.Equal(1, result.RenewedCount)
		s.Empty(result.Failures)

		renewed, err := s.GetStores().SubRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		// The new period starts at the previous anchor, not at sweep time.
		s.True(renewed.CurrentPeriodStart.Equal(anchor))
		s.True(renewed.CurrentPeriodEnd.Equal(types.NextBillingDate(anchor, types.BILLING_PERIOD_MONTHLY)))
		s.True(renewed.NextBillingDate.Equal(renewed.CurrentPeriodEnd))

		invoices, err := s.GetStores().InvoiceRepo.List(s.GetContext(), invoice.NewFilter())
		s.NoError(err)
		s.Len(invoices, 2)
	})

	s.Run("ReplayedSweepDoesNotDoubleBill", func() {
		// Rewind the anchor to replay the same period.
		sub, err := s.GetStores().SubRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		prev := sub.CurrentPeriodStart
		sub.CurrentPeriodStart = prev.AddDate(0, -1, 0)
		sub.CurrentPeriodEnd = prev
		sub.NextBillingDate = prev
		s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

		before, err := s.GetStores().InvoiceRepo.List(s.GetContext(), invoice.NewFilter())
		s.NoError(err)

		result, err := s.service.RenewSubscriptions(s.GetContext())
		s.NoError(err)
		s.Equal(1, result.RenewedCount)

		after, err := s.GetStores().InvoiceRepo.List(s.GetContext(), invoice.NewFilter())
		s.NoError(err)
		s.Len(after, len(before))
	})

	s.Run("ElapsedCancellationExpires", func() {
		sub, err := s.GetStores().SubRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		sub.CancelAtPeriodEnd = true
		sub.AutoRenew = false
		sub.CurrentPeriodEnd = time.Now().UTC().AddDate(0, 0, -1)
		s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

		result, err := s.service.RenewSubscriptions(s.GetContext())
		s.NoError(err)
		s.Equal(1, result.ExpiredCount)

		expired, err := s.GetStores().SubRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		s.Equal(types.SubscriptionStatusCancelled, expired.SubscriptionStatus)
		s.NotNil(expired.CancelledAt)
	})
}

func (s *SubscriptionServiceSuite) TestTrialSweep() {
	planID := s.seedPlan(14)
	created, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID:       planID,
		BillingEmail: "ops@acme.test",
		Gateway:      types.PaymentGatewayRazorpay,
	})
	s.NoError(err)

	s.Run("EndingSoonGetsReminder", func() {
		sub, err := s.GetStores().SubRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		soon := time.Now().UTC().AddDate(0, 0, 2)
		sub.TrialEnd = &soon
		s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

		result, err := s.service.RenewSubscriptions(s.GetContext())
		s.NoError(err)
		s.Equal(1, result.TrialEndingCount)

		unchanged, err := s.GetStores().SubRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		s.Equal(types.SubscriptionStatusTrial, unchanged.SubscriptionStatus)
	})

	s.Run("ElapsedTrialActivatesAndInvoices", func() {
		sub, err := s.GetStores().SubRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		past := time.Now().UTC().AddDate(0, 0, -1)
		sub.TrialEnd = &past
		s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

		_, err = s.service.RenewSubscriptions(s.GetContext())
		s.NoError(err)

		activated, err := s.GetStores().SubRepo.Get(s.GetContext(), created.ID)
		s.NoError(err)
		s.Equal(types.SubscriptionStatusActive, activated.SubscriptionStatus)

		invoices, err := s.GetStores().InvoiceRepo.List(s.GetContext(), invoice.NewFilter())
		s.NoError(err)
		s.Len(invoices, 1)
		s.Equal(invoice.BillingReasonSubscriptionCreate, invoices[0].BillingReason)
	})
}
