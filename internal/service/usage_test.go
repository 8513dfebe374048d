package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/tenant"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/testutil"
	"github.com/upbill/upbill/internal/types"
)

type UsageServiceSuite struct {
	testutil.BaseServiceTestSuite
	service UsageService
	params  ServiceParams
}

func TestUsageService(t *testing.T) {
	suite.Run(t, new(UsageServiceSuite))
}

func (s *UsageServiceSuite) SetupTest() {
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
	s.service = NewUsageService(s.params)

	ctx := s.GetContext()
	s.NoError(s.GetStores().TenantRepo.Create(ctx, &tenant.Tenant{
		ID:           types.GetTenantID(ctx),
		Name:         "Acme Corp",
		BillingEmail: "billing@acme.test",
		State:        "KA",
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}))
}

func (s *UsageServiceSuite) TestRecordUsage() {
	s.Run("MeterCreatedLazily", func() {
		resp, err := s.service.RecordUsage(s.GetContext(), dto.RecordUsageRequest{
			MeterType: "api_calls",
			Quantity:  decimal.NewFromInt(25),
		})
		s.NoError(err)
		s.NotEmpty(resp.MeterID)

		meter, err := s.service.GetMeter(s.GetContext(), "api_calls")
		s.NoError(err)
		s.Equal(resp.MeterID, meter.ID)
		s.Nil(meter.UnitPrice)
	})

	s.Run("ZeroQuantityRejected", func() {
		_, err := s.service.RecordUsage(s.GetContext(), dto.RecordUsageRequest{
			MeterType: "api_calls",
			Quantity:  decimal.Zero,
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("ExplicitTimestampKept", func() {
		ts := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
		resp, err := s.service.RecordUsage(s.GetContext(), dto.RecordUsageRequest{
			MeterType: "api_calls",
			Quantity:  decimal.NewFromInt(1),
			Timestamp: &ts,
		})
		s.NoError(err)
		s.True(resp.Timestamp.Equal(ts))
	})
}

func (s *UsageServiceSuite) TestConfigureMeter() {
	resp, err := s.service.ConfigureMeter(s.GetContext(), dto.ConfigureMeterRequest{
		MeterType:     "storage_gb",
		UnitPrice:     lo.ToPtr(decimal.NewFromFloat(1.5)),
		IncludedUnits: decimal.NewFromInt(10),
	})
	s.NoError(err)
	s.Equal("1.5", resp.UnitPrice.String())
	s.Equal("10", resp.IncludedUnits.String())

	s.Run("ReconfigureKeepsIdentity", func() {
		again, err := s.service.ConfigureMeter(s.GetContext(), dto.ConfigureMeterRequest{
			MeterType:     "storage_gb",
			UnitPrice:     lo.ToPtr(decimal.NewFromInt(2)),
			IncludedUnits: decimal.NewFromInt(20),
		})
		s.NoError(err)
		s.Equal(resp.ID, again.ID)
		s.Equal("2", again.UnitPrice.String())
	})

	s.Run("NegativePriceRejected", func() {
		_, err := s.service.ConfigureMeter(s.GetContext(), dto.ConfigureMeterRequest{
			MeterType: "storage_gb",
			UnitPrice: lo.ToPtr(decimal.NewFromInt(-1)),
		})
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})
}

func (s *UsageServiceSuite) TestCalculateUsageCharges() {
	ctx := s.GetContext()
	periodStart := time.Now().UTC().AddDate(0, 0, -7)
	periodEnd := time.Now().UTC().AddDate(0, 0, 1)

	_, err := s.service.ConfigureMeter(ctx, dto.ConfigureMeterRequest{
		MeterType:     "api_calls",
		UnitPrice:     lo.ToPtr(decimal.NewFromFloat(0.5)),
		IncludedUnits: decimal.NewFromInt(100),
	})
	s.NoError(err)

	record := func(meterType string, qty int64) {
		_, err := s.service.RecordUsage(ctx, dto.RecordUsageRequest{
			MeterType: meterType,
			Quantity:  decimal.NewFromInt(qty),
		})
		s.NoError(err)
	}

	s.Run("NoEvents", func() {
		resp, err := s.service.CalculateUsageCharges(ctx, periodStart, periodEnd)
		s.NoError(err)
		s.True(resp.TotalAmount.IsZero())
		s.Empty(resp.Charges)
	})

	s.Run("OverageBeyondIncludedUnits", func() {
		record("api_calls", 80)
		record("api_calls", 70)

		resp, err := s.service.CalculateUsageCharges(ctx, periodStart, periodEnd)
		s.NoError(err)
		s.Len(resp.Charges, 1)
		c := resp.Charges[0]
		s.Equal("150", c.TotalQuantity.String())
		s.Equal("50", c.BilledUnits.String())
		s.Equal("25", c.Amount.String())
		s.Equal("25", resp.TotalAmount.String())
	})

	s.Run("WithinIncludedUnitsIsFree", func() {
		_, err := s.service.ConfigureMeter(ctx, dto.ConfigureMeterRequest{
			MeterType:     "api_calls",
			UnitPrice:     lo.ToPtr(decimal.NewFromFloat(0.5)),
			IncludedUnits: decimal.NewFromInt(1000),
		})
		s.NoError(err)

		resp, err := s.service.CalculateUsageCharges(ctx, periodStart, periodEnd)
		s.NoError(err)
		s.Len(resp.Charges, 1)
		s.True(resp.Charges[0].Amount.IsZero())
		s.True(resp.TotalAmount.IsZero())
	})

	s.Run("UnpricedMeterContributesNothing", func() {
		record("emails_sent", 500)

		resp, err := s.service.CalculateUsageCharges(ctx, periodStart, periodEnd)
		s.NoError(err)
		for _, c := range resp.Charges {
			s.NotEqual("emails_sent", c.MeterType)
		}
	})
}
