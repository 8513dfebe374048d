package usage

import (
	"context"
	"time"
)

// Repository defines the interface for usage meter and event persistence.
type Repository interface {
	// GetOrCreateMeter upserts the meter row keyed by (tenant, meter_type).
	// A meter created here has no unit price and is therefore unbillable
	// until configured.
	GetOrCreateMeter(ctx context.Context, tenantID, meterType string) (*Meter, error)

	GetMeter(ctx context.Context, tenantID, meterType string) (*Meter, error)
	ListMeters(ctx context.Context, tenantID string) ([]*Meter, error)
	UpdateMeter(ctx context.Context, m *Meter) error

	CreateEvent(ctx context.Context, e *Event) error

	// ListUnbilledEvents returns unbilled events for the tenant within
	// [periodStart, periodEnd).
	ListUnbilledEvents(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]*Event, error)

	// MarkEventsBilled stamps is_billed and the consuming invoice id on the
	// given events. Must run inside the invoice-generation transaction.
	// Returns ErrVersionConflict when any event was already billed, so the
	// transaction rolls back instead of billing it twice.
	MarkEventsBilled(ctx context.Context, eventIDs []string, invoiceID string) error
}
