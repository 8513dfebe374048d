package service

import (
	"context"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/plan"
)

// PlanService owns the immutable subscription plan catalog. Plans are
// versioned, never edited; retiring a plan archives it.
type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	ListPlans(ctx context.Context, filter *plan.Filter) (*dto.ListPlansResponse, error)
	ArchivePlan(ctx context.Context, id string) error
}

type planService struct {
	ServiceParams
}

func NewPlanService(params ServiceParams) PlanService {
	return &planService{ServiceParams: params}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToPlan(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "plan.created", "plan", p.ID, nil, map[string]interface{}{
		"name":           p.Name,
		"base_price":     p.BasePrice.String(),
		"billing_period": string(p.BillingPeriod),
	})

	return dto.NewPlanResponse(p), nil
}

// GetPlan serves from the catalog cache when possible; plans are immutable
// so a cached hit is never stale on price or period.
func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	if s.PlanCache != nil {
		if cached, ok := s.PlanCache.Get(id); ok {
			if p, ok := cached.(*plan.Plan); ok {
				return dto.NewPlanResponse(p), nil
			}
		}
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.PlanCache != nil {
		s.PlanCache.Set(id, p)
	}
	return dto.NewPlanResponse(p), nil
}

func (s *planService) ListPlans(ctx context.Context, filter *plan.Filter) (*dto.ListPlansResponse, error) {
	if filter == nil {
		filter = plan.NewFilter()
	}

	plans, err := s.PlanRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.PlanResponse, len(plans))
	for i, p := range plans {
		responses[i] = dto.NewPlanResponse(p)
	}

	resp := dto.ListPlansResponse{
		Items:  responses,
		Total:  len(responses),
		Limit:  filter.GetLimit(),
		Offset: filter.GetOffset(),
	}
	return &resp, nil
}

func (s *planService) ArchivePlan(ctx context.Context, id string) error {
	if err := s.PlanRepo.Archive(ctx, id); err != nil {
		return err
	}
	if s.PlanCache != nil {
		s.PlanCache.Delete(id)
	}
	s.logAudit(ctx, "plan.archived", "plan", id, nil, nil)
	return nil
}
