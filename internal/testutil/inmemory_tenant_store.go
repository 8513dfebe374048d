package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/upbill/upbill/internal/domain/tenant"
)

// InMemoryTenantStore implements tenant.Repository
type InMemoryTenantStore struct {
	*InMemoryStore[*tenant.Tenant]
}

func NewInMemoryTenantStore() *InMemoryTenantStore {
	return &InMemoryTenantStore{InMemoryStore: NewInMemoryStore[*tenant.Tenant]()}
}

func copyTenant(t *tenant.Tenant) *tenant.Tenant {
	if t == nil {
		return nil
	}
	copied := *t
	copied.GSTIN = copyStringPtr(t.GSTIN)
	copied.PartnerID = copyStringPtr(t.PartnerID)
	copied.Metadata = lo.Assign(map[string]string{}, t.Metadata)
	return &copied
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (s *InMemoryTenantStore) Create(ctx context.Context, t *tenant.Tenant) error {
	return s.InMemoryStore.Create(ctx, t.ID, copyTenant(t))
}

func (s *InMemoryTenantStore) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyTenant(t), nil
}

func (s *InMemoryTenantStore) Update(ctx context.Context, t *tenant.Tenant) error {
	return s.InMemoryStore.Update(ctx, t.ID, copyTenant(t))
}
