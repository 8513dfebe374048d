package service

import (
	"github.com/upbill/upbill/internal/audit"
	"github.com/upbill/upbill/internal/cache"
	"github.com/upbill/upbill/internal/config"
	"github.com/upbill/upbill/internal/domain/coupon"
	"github.com/upbill/upbill/internal/domain/gstreceipt"
	"github.com/upbill/upbill/internal/domain/invoice"
	"github.com/upbill/upbill/internal/domain/partner"
	"github.com/upbill/upbill/internal/domain/payment"
	"github.com/upbill/upbill/internal/domain/plan"
	"github.com/upbill/upbill/internal/domain/subscription"
	"github.com/upbill/upbill/internal/domain/tenant"
	"github.com/upbill/upbill/internal/domain/usage"
	"github.com/upbill/upbill/internal/integration"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/webhook"
)

// ServiceParams bundles the dependencies every service is built from. All
// services share one instance, wired once at startup (or by the test suite).
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	TenantRepo     tenant.Repository
	PlanRepo       plan.Repository
	SubRepo        subscription.Repository
	InvoiceRepo    invoice.Repository
	UsageRepo      usage.Repository
	CouponRepo     coupon.Repository
	PaymentRepo    payment.Repository
	PartnerRepo    partner.Repository
	GSTReceiptRepo gstreceipt.Repository

	Gateway          integration.Gateway
	WebhookPublisher webhook.Publisher
	AuditLogger      audit.Logger
	PlanCache        *cache.Cache
}
