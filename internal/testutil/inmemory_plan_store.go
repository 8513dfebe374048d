package testutil

import (
	"context"
	"time"

	"github.com/upbill/upbill/internal/domain/plan"
	"github.com/upbill/upbill/internal/types"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{InMemoryStore: NewInMemoryStore[*plan.Plan]()}
}

func copyPlan(p *plan.Plan) *plan.Plan {
	if p == nil {
		return nil
	}
	copied := *p
	if p.Limits != nil {
		copied.Limits = make(map[string]int64, len(p.Limits))
		for k, v := range p.Limits {
			copied.Limits[k] = v
		}
	}
	return &copied
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == types.StatusDeleted {
		return nil, notFoundErr("plan", id)
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) List(ctx context.Context, filter *plan.Filter) ([]*plan.Plan, error) {
	if filter == nil {
		filter = plan.NewFilter()
	}
	items := s.InMemoryStore.List(ctx, func(ctx context.Context, p *plan.Plan) bool {
		if p.Status == types.StatusDeleted {
			return false
		}
		if filter.ActiveOnly && p.Status != types.StatusPublished {
			return false
		}
		if len(filter.BillingPeriods) > 0 {
			found := false
			for _, bp := range filter.BillingPeriods {
				if p.BillingPeriod == bp {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	})
	out := make([]*plan.Plan, len(items))
	for i, p := range items {
		out[i] = copyPlan(p)
	}
	return out, nil
}

func (s *InMemoryPlanStore) Archive(ctx context.Context, id string) error {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return err
	}
	copied := copyPlan(p)
	copied.Status = types.StatusArchived
	copied.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, copied)
}
