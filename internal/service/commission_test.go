package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/payment"
	"github.com/upbill/upbill/internal/domain/tenant"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/testutil"
	"github.com/upbill/upbill/internal/types"
)

type CommissionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CommissionService
	params  ServiceParams

	partnerID string
}

func TestCommissionService(t *testing.T) {
	suite.Run(t, new(CommissionServiceSuite))
}

func (s *CommissionServiceSuite) SetupTest() {
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
	s.service = NewCommissionService(s.params)

	resp, err := s.service.CreatePartner(s.GetContext(), dto.CreatePartnerRequest{
		Name:            "Channel One",
		Email:           "partners@channel.test",
		CommissionType:  types.CommissionTypePercentage,
		CommissionValue: decimal.NewFromInt(10),
	})
	s.NoError(err)
	s.partnerID = resp.Partner.ID

	ctx := s.GetContext()
	s.NoError(s.GetStores().TenantRepo.Create(ctx, &tenant.Tenant{
		ID:           types.GetTenantID(ctx),
		Name:         "Acme Corp",
		BillingEmail: "billing@acme.test",
		State:        "KA",
		PartnerID:    &s.partnerID,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}))
}

func (s *CommissionServiceSuite) seedPayment(id string, amount decimal.Decimal, status types.PaymentStatus) *payment.Transaction {
	ctx := s.GetContext()
	now := time.Now().UTC()
	txn := &payment.Transaction{
		ID:                   id,
		InvoiceID:            "inv_fixture",
		Gateway:              types.PaymentGatewayRazorpay,
		GatewayTransactionID: lo.ToPtr("gw_" + id),
		Amount:               amount,
		Currency:             "INR",
		PaymentStatus:        status,
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}
	if status == types.PaymentStatusSuccess {
		txn.CompletedAt = &now
	}
	s.NoError(s.GetStores().PaymentRepo.CreateTransaction(ctx, txn))
	return txn
}

func (s *CommissionServiceSuite) TestCreatePartner() {
	s.Run("PercentageOverHundredRejected", func() {
		_, err := s.service.CreatePartner(s.GetContext(), dto.CreatePartnerRequest{
			Name:            "Greedy",
			CommissionType:  types.CommissionTypePercentage,
			CommissionValue: decimal.NewFromInt(120),
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("FlatPartner", func() {
		resp, err := s.service.CreatePartner(s.GetContext(), dto.CreatePartnerRequest{
			Name:            "Flat Fee Co",
			CommissionType:  types.CommissionTypeFlat,
			CommissionValue: decimal.NewFromInt(200),
		})
		s.NoError(err)
		s.Equal(types.CommissionTypeFlat, resp.CommissionType)
	})
}

func (s *CommissionServiceSuite) TestCalculateForPayment() {
	s.Run("PercentageCommission", func() {
		txn := s.seedPayment("pay_pct", decimal.NewFromFloat(1178.82), types.PaymentStatusSuccess)
		resp, err := s.service.CalculateForPayment(s.GetContext(), txn)
		s.NoError(err)
		s.NotNil(resp)
		s.Equal(s.partnerID, resp.PartnerID)
		s.Equal("117.88", resp.CommissionAmount.String())
		s.Equal(types.CommissionStatusPending, resp.CommissionStatus)
	})

	s.Run("ExactlyOncePerPayment", func() {
		txn, err := s.GetStores().PaymentRepo.GetTransaction(s.GetContext(), "pay_pct")
		s.NoError(err)
		resp, err := s.service.CalculateForPayment(s.GetContext(), txn)
		s.NoError(err)
		s.Nil(resp)
	})

	s.Run("FailedPaymentRejected", func() {
		txn := s.seedPayment("pay_comm_failed", decimal.NewFromInt(500), types.PaymentStatusFailed)
		_, err := s.service.CalculateForPayment(s.GetContext(), txn)
		s.Error(err)
		s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	})

	s.Run("TenantWithoutPartnerSkipped", func() {
		soloCtx := types.SetTenantID(s.GetContext(), "tenant_solo")
		s.NoError(s.GetStores().TenantRepo.Create(soloCtx, &tenant.Tenant{
			ID:           "tenant_solo",
			Name:         "Solo",
			BillingEmail: "solo@solo.test",
			State:        "KA",
			BaseModel:    types.GetDefaultBaseModel(soloCtx),
		}))
		now := time.Now().UTC()
		txn := &payment.Transaction{
			ID:            "pay_solo",
			InvoiceID:     "inv_solo",
			Gateway:       types.PaymentGatewayRazorpay,
			Amount:        decimal.NewFromInt(100),
			Currency:      "INR",
			PaymentStatus: types.PaymentStatusSuccess,
			CompletedAt:   &now,
			BaseModel:     types.GetDefaultBaseModel(soloCtx),
		}
		s.NoError(s.GetStores().PaymentRepo.CreateTransaction(soloCtx, txn))

		resp, err := s.service.CalculateForPayment(soloCtx, txn)
		s.NoError(err)
		s.Nil(resp)
	})
}

func (s *CommissionServiceSuite) TestFlatCommissionClamped() {
	flat, err := s.service.CreatePartner(s.GetContext(), dto.CreatePartnerRequest{
		Name:            "Flat Fee Co",
		CommissionType:  types.CommissionTypeFlat,
		CommissionValue: decimal.NewFromInt(200),
	})
	s.NoError(err)

	ctx := s.GetContext()
	t, err := s.GetStores().TenantRepo.Get(ctx, types.GetTenantID(ctx))
	s.NoError(err)
	t.PartnerID = &flat.Partner.ID
	s.NoError(s.GetStores().TenantRepo.Update(ctx, t))

	s.Run("FlatBelowPayment", func() {
		txn := s.seedPayment("pay_flat", decimal.NewFromInt(1000), types.PaymentStatusSuccess)
		resp, err := s.service.CalculateForPayment(ctx, txn)
		s.NoError(err)
		s.Equal("200", resp.CommissionAmount.String())
		s.Equal("20", resp.CommissionRate.String())
	})

	s.Run("FlatClampedToPayment", func() {
		txn := s.seedPayment("pay_small", decimal.NewFromInt(150), types.PaymentStatusSuccess)
		resp, err := s.service.CalculateForPayment(ctx, txn)
		s.NoError(err)
		s.Equal("150", resp.CommissionAmount.String())
	})
}

func (s *CommissionServiceSuite) TestProcessPendingCommissions() {
	s.seedPayment("pay_backlog_1", decimal.NewFromInt(1000), types.PaymentStatusSuccess)
	s.seedPayment("pay_backlog_2", decimal.NewFromInt(2000), types.PaymentStatusSuccess)
	s.seedPayment("pay_backlog_failed", decimal.NewFromInt(500), types.PaymentStatusFailed)

	result, err := s.service.ProcessPendingCommissions(s.GetContext(), 10)
	s.NoError(err)
	s.Equal(2, result.ProcessedCount)
	s.Empty(result.Errors)

	commissions, err := s.service.ListCommissionsByPartner(s.GetContext(), s.partnerID)
	s.NoError(err)
	s.Len(commissions, 2)
}
