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

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PaymentService
	params  ServiceParams

	invoiceID string
	total     decimal.Decimal
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
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
	s.service = NewPaymentService(s.params)

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

	invResp, err := NewInvoiceService(s.params).GenerateInvoice(ctx, dto.GenerateInvoiceRequest{
		SubscriptionID: sub.ID,
	})
	s.NoError(err)
	s.invoiceID = invResp.ID
	s.total = invResp.TotalAmount
}

func (s *PaymentServiceSuite) TestCreatePaymentOrder() {
	s.Run("OrderForOutstandingBalance", func() {
		resp, err := s.service.CreatePaymentOrder(s.GetContext(), dto.CreatePaymentOrderRequest{
			InvoiceID: s.invoiceID,
		})
		s.NoError(err)
		s.NotEmpty(resp.OrderID)
		s.True(resp.Amount.Equal(s.total))
	})

	s.Run("PaidInvoiceRejected", func() {
		inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.invoiceID)
		s.NoError(err)
		inv.RecordPayment(inv.TotalAmount, time.Now().UTC())
		s.NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))

		_, err = s.service.CreatePaymentOrder(s.GetContext(), dto.CreatePaymentOrderRequest{
			InvoiceID: s.invoiceID,
		})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	})
}

func (s *PaymentServiceSuite) TestProcessPayment() {
	s.Run("FullPaymentMarksInvoicePaid", func() {
		resp, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
			InvoiceID:            s.invoiceID,
			Amount:               s.total,
			Gateway:              types.PaymentGatewayRazorpay,
			PaymentStatus:        types.PaymentStatusSuccess,
			GatewayOrderID:       lo.ToPtr("order_1"),
			GatewayTransactionID: lo.ToPtr("pay_full"),
			GatewaySignature:     lo.ToPtr(s.GetGateway().Signature("pay_full")),
		})
		s.NoError(err)
		s.Equal(types.PaymentStatusSuccess, resp.PaymentStatus)
		s.NotNil(resp.CompletedAt)
		s.Equal(types.InvoicePaymentStatusPaid, resp.Invoice.PaymentStatus)
		s.Equal(types.InvoiceStatusPaid, resp.Invoice.InvoiceStatus)
		s.NotNil(resp.Invoice.PaidAt)

		// The statutory receipt is frozen as a post-commit side effect.
		receipt, err := s.GetStores().GSTReceiptRepo.GetByPaymentID(s.GetContext(), resp.ID)
		s.NoError(err)
		s.NotNil(receipt)
	})

	s.Run("ReplayedCallbackRejected", func() {
		_, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
			InvoiceID:            s.invoiceID,
			Amount:               s.total,
			Gateway:              types.PaymentGatewayRazorpay,
			PaymentStatus:        types.PaymentStatusSuccess,
			GatewayOrderID:       lo.ToPtr("order_1"),
			GatewayTransactionID: lo.ToPtr("pay_full"),
			GatewaySignature:     lo.ToPtr(s.GetGateway().Signature("pay_full")),
		})
		s.Error(err)
		s.True(ierr.IsAlreadyExists(err))

		// amount_paid was not double-counted.
		inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.invoiceID)
		s.NoError(err)
		s.True(inv.AmountPaid.Equal(s.total))
	})

	s.Run("BadSignatureRejected", func() {
		_, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
			InvoiceID:            s.invoiceID,
			Amount:               s.total,
			Gateway:              types.PaymentGatewayRazorpay,
			PaymentStatus:        types.PaymentStatusSuccess,
			GatewayOrderID:       lo.ToPtr("order_2"),
			GatewayTransactionID: lo.ToPtr("pay_forged"),
			GatewaySignature:     lo.ToPtr("sig-wrong"),
		})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrPermissionDenied))
	})
}

func (s *PaymentServiceSuite) TestPartialPayments() {
	half := s.total.Div(decimal.NewFromInt(2)).Round(2)

	s.Run("FirstHalfLeavesInvoicePartial", func() {
		resp, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
			InvoiceID:            s.invoiceID,
			Amount:               half,
			Gateway:              types.PaymentGatewayRazorpay,
			PaymentStatus:        types.PaymentStatusSuccess,
			GatewayTransactionID: lo.ToPtr("pay_half_1"),
		})
		s.NoError(err)
		s.Equal(types.InvoicePaymentStatusPartial, resp.Invoice.PaymentStatus)
		s.Equal(types.InvoiceStatusPending, resp.Invoice.InvoiceStatus)
	})

	s.Run("SecondHalfSettles", func() {
		remaining := s.total.Sub(half)
		resp, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
			InvoiceID:            s.invoiceID,
			Amount:               remaining,
			Gateway:              types.PaymentGatewayRazorpay,
			PaymentStatus:        types.PaymentStatusSuccess,
			GatewayTransactionID: lo.ToPtr("pay_half_2"),
		})
		s.NoError(err)
		s.Equal(types.InvoicePaymentStatusPaid, resp.Invoice.PaymentStatus)
		s.True(resp.Invoice.AmountPaid.Equal(s.total))
	})
}

func (s *PaymentServiceSuite) TestConcurrentPartialPayments() {
	// A second payment lands between the first one's invoice read and its
	// write. The row lock re-read inside the transaction must keep both
	// increments.
	second := decimal.NewFromInt(400)
	s.GetGateway().VerifyHook = func() {
		s.GetGateway().VerifyHook = nil
		_, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
			InvoiceID:            s.invoiceID,
			Amount:               second,
			Gateway:              types.PaymentGatewayRazorpay,
			PaymentStatus:        types.PaymentStatusSuccess,
			GatewayTransactionID: lo.ToPtr("pay_race_2"),
		})
		s.NoError(err)
	}

	first := decimal.NewFromInt(500)
	resp, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
		InvoiceID:            s.invoiceID,
		Amount:               first,
		Gateway:              types.PaymentGatewayRazorpay,
		PaymentStatus:        types.PaymentStatusSuccess,
		GatewayOrderID:       lo.ToPtr("order_race"),
		GatewayTransactionID: lo.ToPtr("pay_race_1"),
		GatewaySignature:     lo.ToPtr(s.GetGateway().Signature("pay_race_1")),
	})
	s.NoError(err)
	s.True(resp.Invoice.AmountPaid.Equal(first.Add(second)))

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.invoiceID)
	s.NoError(err)
	s.True(inv.AmountPaid.Equal(first.Add(second)))
	s.Equal(types.InvoicePaymentStatusPartial, inv.PaymentStatus)
}

func (s *PaymentServiceSuite) TestFailedPayment() {
	resp, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
		InvoiceID:            s.invoiceID,
		Amount:               s.total,
		Gateway:              types.PaymentGatewayRazorpay,
		PaymentStatus:        types.PaymentStatusFailed,
		GatewayTransactionID: lo.ToPtr("pay_failed"),
		FailureReason:        lo.ToPtr("card declined"),
	})
	s.NoError(err)
	s.Equal(types.PaymentStatusFailed, resp.PaymentStatus)
	s.Nil(resp.CompletedAt)

	// The attempt is recorded but the invoice is untouched.
	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.invoiceID)
	s.NoError(err)
	s.True(inv.AmountPaid.IsZero())
	s.Equal(types.InvoicePaymentStatusUnpaid, inv.PaymentStatus)
}

func (s *PaymentServiceSuite) TestRequestRefund() {
	paid, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
		InvoiceID:            s.invoiceID,
		Amount:               s.total,
		Gateway:              types.PaymentGatewayRazorpay,
		PaymentStatus:        types.PaymentStatusSuccess,
		GatewayTransactionID: lo.ToPtr("pay_refundable"),
	})
	s.NoError(err)

	s.Run("PartialRefund", func() {
		resp, err := s.service.RequestRefund(s.GetContext(), dto.RequestRefundRequest{
			TransactionID: paid.ID,
			Amount:        decimal.NewFromInt(100),
			Reason:        "service credit",
		})
		s.NoError(err)
		s.Equal(types.RefundTypePartial, resp.RefundType)
		s.Equal(types.RefundStatusRequested, resp.RefundStatus)
	})

	s.Run("FullRefund", func() {
		resp, err := s.service.RequestRefund(s.GetContext(), dto.RequestRefundRequest{
			TransactionID: paid.ID,
			Amount:        s.total,
			Reason:        "cancellation",
		})
		s.NoError(err)
		s.Equal(types.RefundTypeFull, resp.RefundType)
	})

	s.Run("AmountExceedsPayment", func() {
		_, err := s.service.RequestRefund(s.GetContext(), dto.RequestRefundRequest{
			TransactionID: paid.ID,
			Amount:        s.total.Add(decimal.NewFromInt(1)),
			Reason:        "oops",
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("FailedPaymentNotRefundable", func() {
		failed, err := s.service.ProcessPayment(s.GetContext(), dto.ProcessPaymentRequest{
			InvoiceID:            s.invoiceID,
			Amount:               s.total,
			Gateway:              types.PaymentGatewayRazorpay,
			PaymentStatus:        types.PaymentStatusFailed,
			GatewayTransactionID: lo.ToPtr("pay_failed_refund"),
		})
		s.NoError(err)

		_, err = s.service.RequestRefund(s.GetContext(), dto.RequestRefundRequest{
			TransactionID: failed.ID,
			Amount:        decimal.NewFromInt(10),
			Reason:        "n/a",
		})
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	})
}
