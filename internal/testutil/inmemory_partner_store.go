package testutil

import (
	"context"
	"sort"

	"github.com/upbill/upbill/internal/domain/partner"
	"github.com/upbill/upbill/internal/types"
)

// InMemoryPartnerStore implements partner.Repository
type InMemoryPartnerStore struct {
	partners    *InMemoryStore[*partner.Partner]
	commissions *InMemoryStore[*partner.Commission]
}

func NewInMemoryPartnerStore() *InMemoryPartnerStore {
	return &InMemoryPartnerStore{
		partners:    NewInMemoryStore[*partner.Partner](),
		commissions: NewInMemoryStore[*partner.Commission](),
	}
}

func (s *InMemoryPartnerStore) CreatePartner(ctx context.Context, p *partner.Partner) error {
	copied := *p
	return s.partners.Create(ctx, p.ID, &copied)
}

func (s *InMemoryPartnerStore) GetPartner(ctx context.Context, id string) (*partner.Partner, error) {
	p, err := s.partners.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	copied := *p
	return &copied, nil
}

func (s *InMemoryPartnerStore) CreateCommission(ctx context.Context, c *partner.Commission) error {
	if exists, _ := s.CommissionExistsForPayment(ctx, c.PaymentID); exists {
		return alreadyExistsErr("commission", c.PaymentID)
	}
	copied := *c
	return s.commissions.Create(ctx, c.ID, &copied)
}

func (s *InMemoryPartnerStore) CommissionExistsForPayment(ctx context.Context, paymentID string) (bool, error) {
	count := s.commissions.Count(ctx, func(ctx context.Context, c *partner.Commission) bool {
		return c.PaymentID == paymentID && c.Status != types.StatusDeleted
	})
	return count > 0, nil
}

func (s *InMemoryPartnerStore) ListCommissionsByPartner(ctx context.Context, partnerID string) ([]*partner.Commission, error) {
	matches := s.commissions.List(ctx, func(ctx context.Context, c *partner.Commission) bool {
		return c.PartnerID == partnerID && c.Status != types.StatusDeleted
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	out := make([]*partner.Commission, len(matches))
	for i, c := range matches {
		copied := *c
		out[i] = &copied
	}
	return out, nil
}
