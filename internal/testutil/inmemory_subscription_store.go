package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/upbill/upbill/internal/domain/subscription"
	"github.com/upbill/upbill/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{InMemoryStore: NewInMemoryStore[*subscription.Subscription]()}
}

func copySubscription(s *subscription.Subscription) *subscription.Subscription {
	if s == nil {
		return nil
	}
	copied := *s
	copied.TrialStart = copyTimePtr(s.TrialStart)
	copied.TrialEnd = copyTimePtr(s.TrialEnd)
	copied.CancelledAt = copyTimePtr(s.CancelledAt)
	copied.Metadata = lo.Assign(map[string]string{}, s.Metadata)
	return &copied
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	return s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) GetCurrentByTenant(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	matches := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.TenantID == tenantID && sub.IsCurrent() && sub.Status != types.StatusDeleted
	})
	if len(matches) == 0 {
		return nil, notFoundErr("subscription", tenantID)
	}
	return copySubscription(matches[0]), nil
}

func (s *InMemorySubscriptionStore) ListDueForRenewal(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	matches := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.SubscriptionStatus == types.SubscriptionStatusActive &&
			sub.AutoRenew && !sub.CancelAtPeriodEnd &&
			!sub.NextBillingDate.After(asOf) &&
			sub.Status != types.StatusDeleted
	})
	return copySubscriptions(matches), nil
}

func (s *InMemorySubscriptionStore) ListElapsedCancellations(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	matches := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.IsCurrent() && sub.CancelAtPeriodEnd &&
			!sub.CurrentPeriodEnd.After(asOf) &&
			sub.Status != types.StatusDeleted
	})
	return copySubscriptions(matches), nil
}

func (s *InMemorySubscriptionStore) ListTrialsEndingBefore(ctx context.Context, cutoff time.Time) ([]*subscription.Subscription, error) {
	matches := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.SubscriptionStatus == types.SubscriptionStatusTrial &&
			sub.TrialEnd != nil && !sub.TrialEnd.After(cutoff) &&
			sub.Status != types.StatusDeleted
	})
	return copySubscriptions(matches), nil
}

func copySubscriptions(subs []*subscription.Subscription) []*subscription.Subscription {
	out := make([]*subscription.Subscription, len(subs))
	for i, sub := range subs {
		out[i] = copySubscription(sub)
	}
	return out
}
