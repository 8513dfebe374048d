package testutil

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/upbill/upbill/internal/audit"
	"github.com/upbill/upbill/internal/cache"
	"github.com/upbill/upbill/internal/config"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/pubsub/memory"
	"github.com/upbill/upbill/internal/types"
	"github.com/upbill/upbill/internal/webhook"
)

// Stores bundles the in-memory repository fakes for service tests.
type Stores struct {
	TenantRepo     *InMemoryTenantStore
	PlanRepo       *InMemoryPlanStore
	SubRepo        *InMemorySubscriptionStore
	InvoiceRepo    *InMemoryInvoiceStore
	UsageRepo      *InMemoryUsageStore
	CouponRepo     *InMemoryCouponStore
	PaymentRepo    *InMemoryPaymentStore
	PartnerRepo    *InMemoryPartnerStore
	GSTReceiptRepo *InMemoryGSTReceiptStore
}

// BaseServiceTestSuite provides fresh stores, context, config and
// infrastructure fakes per test.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	db        *MockDB
	logger    *logger.Logger
	config    *config.Configuration
	gateway   *FakeGateway
	publisher webhook.Publisher
	audit     audit.Logger
	planCache *cache.Cache
}

// SetupTest prepares a clean state before each test.
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = types.SetUserID(context.Background(), types.DefaultUserID)
	s.ctx = types.SetTenantID(s.ctx, "tenant_test")

	s.logger = logger.GetLogger()
	s.config = config.GetDefaultConfig()
	s.db = NewMockDB()
	s.gateway = NewFakeGateway()
	s.planCache = cache.New()

	s.stores = Stores{
		TenantRepo:     NewInMemoryTenantStore(),
		PlanRepo:       NewInMemoryPlanStore(),
		SubRepo:        NewInMemorySubscriptionStore(),
		InvoiceRepo:    NewInMemoryInvoiceStore(),
		UsageRepo:      NewInMemoryUsageStore(),
		CouponRepo:     NewInMemoryCouponStore(),
		PaymentRepo:    NewInMemoryPaymentStore(),
		PartnerRepo:    NewInMemoryPartnerStore(),
		GSTReceiptRepo: NewInMemoryGSTReceiptStore(),
	}
	s.stores.PaymentRepo.SetCommissionChecker(func(ctx context.Context, paymentID string) bool {
		exists, _ := s.stores.PartnerRepo.CommissionExistsForPayment(ctx, paymentID)
		return exists
	})

	s.publisher = webhook.NewPublisher(memory.NewPubSub(s.logger), s.logger)
	s.audit = audit.NewLogger(audit.NewLogSink(s.logger), s.logger)
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetTenantContext returns a context scoped to the given tenant.
func (s *BaseServiceTestSuite) GetTenantContext(tenantID string) context.Context {
	return types.SetTenantID(s.ctx, tenantID)
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetDB() *MockDB {
	return s.db
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetGateway() *FakeGateway {
	return s.gateway
}

func (s *BaseServiceTestSuite) GetWebhookPublisher() webhook.Publisher {
	return s.publisher
}

func (s *BaseServiceTestSuite) GetAuditLogger() audit.Logger {
	return s.audit
}

func (s *BaseServiceTestSuite) GetPlanCache() *cache.Cache {
	return s.planCache
}
