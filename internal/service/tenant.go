package service

import (
	"context"

	"github.com/upbill/upbill/internal/api/dto"
)

// TenantService owns billable customer accounts.
type TenantService interface {
	CreateTenant(ctx context.Context, req dto.CreateTenantRequest) (*dto.TenantResponse, error)
	GetTenant(ctx context.Context, id string) (*dto.TenantResponse, error)
}

type tenantService struct {
	ServiceParams
}

func NewTenantService(params ServiceParams) TenantService {
	return &tenantService{ServiceParams: params}
}

func (s *tenantService) CreateTenant(ctx context.Context, req dto.CreateTenantRequest) (*dto.TenantResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := req.ToTenant(ctx)
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.TenantRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "tenant.created", "tenant", t.ID, nil, map[string]interface{}{
		"name":  t.Name,
		"state": t.State,
	})

	return dto.NewTenantResponse(t), nil
}

func (s *tenantService) GetTenant(ctx context.Context, id string) (*dto.TenantResponse, error) {
	t, err := s.TenantRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewTenantResponse(t), nil
}
