package repository

import (
	"github.com/upbill/upbill/internal/domain/coupon"
	"github.com/upbill/upbill/internal/domain/gstreceipt"
	"github.com/upbill/upbill/internal/domain/invoice"
	"github.com/upbill/upbill/internal/domain/partner"
	"github.com/upbill/upbill/internal/domain/payment"
	"github.com/upbill/upbill/internal/domain/plan"
	"github.com/upbill/upbill/internal/domain/subscription"
	"github.com/upbill/upbill/internal/domain/tenant"
	"github.com/upbill/upbill/internal/domain/usage"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	pgrepo "github.com/upbill/upbill/internal/repository/postgres"
)

// Repositories bundles every persistence interface, wired once at startup.
type Repositories struct {
	Tenant       tenant.Repository
	Plan         plan.Repository
	Subscription subscription.Repository
	Invoice      invoice.Repository
	Usage        usage.Repository
	Coupon       coupon.Repository
	Payment      payment.Repository
	Partner      partner.Repository
	GSTReceipt   gstreceipt.Repository
}

// NewRepositories builds the postgres-backed repository set.
func NewRepositories(client postgres.IClient, log *logger.Logger) *Repositories {
	return &Repositories{
		Tenant:       pgrepo.NewTenantRepository(client, log),
		Plan:         pgrepo.NewPlanRepository(client, log),
		Subscription: pgrepo.NewSubscriptionRepository(client, log),
		Invoice:      pgrepo.NewInvoiceRepository(client, log),
		Usage:        pgrepo.NewUsageRepository(client, log),
		Coupon:       pgrepo.NewCouponRepository(client, log),
		Payment:      pgrepo.NewPaymentRepository(client, log),
		Partner:      pgrepo.NewPartnerRepository(client, log),
		GSTReceipt:   pgrepo.NewGSTReceiptRepository(client, log),
	}
}
