package subscription

import (
	"context"
	"time"

	"github.com/upbill/upbill/internal/types"
)

// Repository defines the interface for subscription persistence operations
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error

	// GetCurrentByTenant returns the tenant's active or trial subscription,
	// if any. At most one exists per tenant.
	GetCurrentByTenant(ctx context.Context, tenantID string) (*Subscription, error)

	// ListDueForRenewal returns subscriptions whose next billing date has
	// elapsed, with auto renew on and status active. Crosses tenants: callers
	// are sweeps, not API handlers.
	ListDueForRenewal(ctx context.Context, asOf time.Time) ([]*Subscription, error)

	// ListElapsedCancellations returns subscriptions flagged
	// cancel_at_period_end whose current period has ended.
	ListElapsedCancellations(ctx context.Context, asOf time.Time) ([]*Subscription, error)

	// ListTrialsEndingBefore returns trial subscriptions whose trial end is
	// at or before the cutoff, elapsed trials included: the sweep activates
	// those and reminds the rest.
	ListTrialsEndingBefore(ctx context.Context, cutoff time.Time) ([]*Subscription, error)
}

// Filter defines query parameters for listing subscriptions
type Filter struct {
	QueryFilter *types.QueryFilter
	Statuses    []types.SubscriptionStatus
	PlanIDs     []string
}

func NewFilter() *Filter {
	return &Filter{QueryFilter: types.NewDefaultQueryFilter()}
}
