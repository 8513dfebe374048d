package plan

import (
	"context"

	"github.com/upbill/upbill/internal/types"
)

// Repository defines the interface for plan persistence operations
type Repository interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context, filter *Filter) ([]*Plan, error)
	// Archive retires a plan from the catalog; existing subscriptions keep
	// renewing on it.
	Archive(ctx context.Context, id string) error
}

// Filter defines query parameters for listing plans
type Filter struct {
	QueryFilter    *types.QueryFilter
	BillingPeriods []types.BillingPeriod
	ActiveOnly     bool
}

func NewFilter() *Filter {
	return &Filter{QueryFilter: types.NewDefaultQueryFilter()}
}

func (f *Filter) GetLimit() int {
	return f.QueryFilter.GetLimit()
}

func (f *Filter) GetOffset() int {
	return f.QueryFilter.GetOffset()
}
