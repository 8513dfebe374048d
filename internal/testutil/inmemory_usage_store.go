package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/domain/usage"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// InMemoryUsageStore implements usage.Repository
type InMemoryUsageStore struct {
	meters *InMemoryStore[*usage.Meter]
	events *InMemoryStore[*usage.Event]
}

func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{
		meters: NewInMemoryStore[*usage.Meter](),
		events: NewInMemoryStore[*usage.Event](),
	}
}

func copyMeter(m *usage.Meter) *usage.Meter {
	if m == nil {
		return nil
	}
	copied := *m
	if m.UnitPrice != nil {
		v := *m.UnitPrice
		copied.UnitPrice = &v
	}
	return &copied
}

func copyEvent(e *usage.Event) *usage.Event {
	if e == nil {
		return nil
	}
	copied := *e
	copied.BilledInInvoiceID = copyStringPtr(e.BilledInInvoiceID)
	copied.Metadata = lo.Assign(map[string]string{}, e.Metadata)
	return &copied
}

func (s *InMemoryUsageStore) GetOrCreateMeter(ctx context.Context, tenantID, meterType string) (*usage.Meter, error) {
	m, err := s.GetMeter(ctx, tenantID, meterType)
	if err == nil {
		return m, nil
	}

	now := time.Now().UTC()
	m = &usage.Meter{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_METER),
		MeterType:     meterType,
		IncludedUnits: decimal.Zero,
		BaseModel: types.BaseModel{
			TenantID:  tenantID,
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: types.GetUserID(ctx),
			UpdatedBy: types.GetUserID(ctx),
		},
	}
	if err := s.meters.Create(ctx, m.ID, copyMeter(m)); err != nil {
		return nil, err
	}
	return copyMeter(m), nil
}

func (s *InMemoryUsageStore) GetMeter(ctx context.Context, tenantID, meterType string) (*usage.Meter, error) {
	matches := s.meters.List(ctx, func(ctx context.Context, m *usage.Meter) bool {
		return m.TenantID == tenantID && m.MeterType == meterType && m.Status != types.StatusDeleted
	})
	if len(matches) == 0 {
		return nil, notFoundErr("meter", meterType)
	}
	return copyMeter(matches[0]), nil
}

func (s *InMemoryUsageStore) ListMeters(ctx context.Context, tenantID string) ([]*usage.Meter, error) {
	matches := s.meters.List(ctx, func(ctx context.Context, m *usage.Meter) bool {
		return m.TenantID == tenantID && m.Status != types.StatusDeleted
	})
	out := make([]*usage.Meter, len(matches))
	for i, m := range matches {
		out[i] = copyMeter(m)
	}
	return out, nil
}

func (s *InMemoryUsageStore) UpdateMeter(ctx context.Context, m *usage.Meter) error {
	return s.meters.Update(ctx, m.ID, copyMeter(m))
}

func (s *InMemoryUsageStore) CreateEvent(ctx context.Context, e *usage.Event) error {
	return s.events.Create(ctx, e.ID, copyEvent(e))
}

func (s *InMemoryUsageStore) ListUnbilledEvents(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]*usage.Event, error) {
	matches := s.events.List(ctx, func(ctx context.Context, e *usage.Event) bool {
		return e.TenantID == tenantID && !e.IsBilled &&
			!e.Timestamp.Before(periodStart) && e.Timestamp.Before(periodEnd) &&
			e.Status != types.StatusDeleted
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Timestamp.Before(matches[j].Timestamp)
	})
	out := make([]*usage.Event, len(matches))
	for i, e := range matches {
		out[i] = copyEvent(e)
	}
	return out, nil
}

func (s *InMemoryUsageStore) MarkEventsBilled(ctx context.Context, eventIDs []string, invoiceID string) error {
	for _, id := range eventIDs {
		e, err := s.events.Get(ctx, id)
		if err != nil {
			return err
		}
		if e.IsBilled {
			return ierr.NewError("usage events were already billed").
				WithReportableDetails(map[string]interface{}{
					"invoice_id": invoiceID,
					"event_id":   id,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		copied := copyEvent(e)
		copied.IsBilled = true
		copied.BilledInInvoiceID = &invoiceID
		copied.UpdatedAt = time.Now().UTC()
		if err := s.events.Update(ctx, id, copied); err != nil {
			return err
		}
	}
	return nil
}
