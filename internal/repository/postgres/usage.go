package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/upbill/upbill/internal/domain/usage"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
)

type usageRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewUsageRepository(client postgres.IClient, log *logger.Logger) usage.Repository {
	return &usageRepository{client: client, log: log}
}

const meterColumns = `id, meter_type, unit_price, included_units,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const eventColumns = `id, meter_id, quantity, timestamp, is_billed, billed_in_invoice_id, metadata,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *usageRepository) GetOrCreateMeter(ctx context.Context, tenantID, meterType string) (*usage.Meter, error) {
	m, err := r.GetMeter(ctx, tenantID, meterType)
	if err == nil {
		return m, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	m = &usage.Meter{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_METER),
		MeterType: meterType,
		BaseModel: types.BaseModel{
			TenantID:  tenantID,
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: types.GetUserID(ctx),
			UpdatedBy: types.GetUserID(ctx),
		},
	}

	_, err = r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO usage_meters (`+meterColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, meter_type) DO NOTHING`,
		m.ID, m.MeterType, nil, m.IncludedUnits,
		m.TenantID, m.Status, m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.UpdatedBy,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to create usage meter")
	}

	// Re-read so a concurrent creator's row wins.
	return r.GetMeter(ctx, tenantID, meterType)
}

func (r *usageRepository) GetMeter(ctx context.Context, tenantID, meterType string) (*usage.Meter, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+meterColumns+`
		FROM usage_meters
		WHERE tenant_id = $1 AND meter_type = $2 AND status != $3`,
		tenantID, meterType, types.StatusDeleted,
	)
	return scanMeter(row)
}

func (r *usageRepository) ListMeters(ctx context.Context, tenantID string) ([]*usage.Meter, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+meterColumns+`
		FROM usage_meters
		WHERE tenant_id = $1 AND status != $2
		ORDER BY meter_type`,
		tenantID, types.StatusDeleted,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list usage meters")
	}
	defer rows.Close()

	var meters []*usage.Meter
	for rows.Next() {
		m, err := scanMeter(rows)
		if err != nil {
			return nil, err
		}
		meters = append(meters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "Failed to list usage meters")
	}
	return meters, nil
}

func (r *usageRepository) UpdateMeter(ctx context.Context, m *usage.Meter) error {
	m.UpdatedAt = time.Now().UTC()

	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE usage_meters SET
			unit_price = $2, included_units = $3, status = $4, updated_at = $5, updated_by = $6
		WHERE id = $1`,
		m.ID, m.UnitPrice, m.IncludedUnits, m.Status, m.UpdatedAt, m.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to update usage meter")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(errNoRows, "meter", m.ID)
	}
	return nil
}

func (r *usageRepository) CreateEvent(ctx context.Context, e *usage.Event) error {
	meta, err := marshalMetadata(e.Metadata)
	if err != nil {
		return err
	}

	_, err = r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO usage_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.MeterID, e.Quantity, e.Timestamp, e.IsBilled, e.BilledInInvoiceID, meta,
		e.TenantID, e.Status, e.CreatedAt, e.UpdatedAt, e.CreatedBy, e.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to create usage event")
	}
	return nil
}

func (r *usageRepository) ListUnbilledEvents(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]*usage.Event, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM usage_events
		WHERE tenant_id = $1
		  AND is_billed = false
		  AND timestamp >= $2 AND timestamp < $3
		  AND status != $4
		ORDER BY timestamp`,
		tenantID, periodStart, periodEnd, types.StatusDeleted,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list unbilled usage events")
	}
	defer rows.Close()

	var events []*usage.Event
	for rows.Next() {
		var e usage.Event
		var meta []byte
		err := rows.Scan(
			&e.ID, &e.MeterID, &e.Quantity, &e.Timestamp, &e.IsBilled, &e.BilledInInvoiceID, &meta,
			&e.TenantID, &e.Status, &e.CreatedAt, &e.UpdatedAt, &e.CreatedBy, &e.UpdatedBy,
		)
		if err != nil {
			return nil, dbErr(err, "Failed to scan usage event")
		}
		if e.Metadata, err = unmarshalMetadata(meta); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "Failed to list unbilled usage events")
	}
	return events, nil
}

func (r *usageRepository) MarkEventsBilled(ctx context.Context, eventIDs []string, invoiceID string) error {
	if len(eventIDs) == 0 {
		return nil
	}

	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE usage_events
		SET is_billed = true, billed_in_invoice_id = $2, updated_at = $3
		WHERE id = ANY($1) AND is_billed = false`,
		pq.Array(eventIDs), invoiceID, time.Now().UTC(),
	)
	if err != nil {
		return dbErr(err, "Failed to mark usage events billed")
	}
	// A shortfall means another invoice consumed some of these events after
	// the charges were computed; the caller must roll back and retry.
	if n, _ := res.RowsAffected(); n != int64(len(eventIDs)) {
		return ierr.NewError("usage events were already billed").
			WithReportableDetails(map[string]interface{}{
				"invoice_id": invoiceID,
				"expected":   len(eventIDs),
				"updated":    n,
			}).
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}

func scanMeter(row rowScanner) (*usage.Meter, error) {
	var m usage.Meter
	err := row.Scan(
		&m.ID, &m.MeterType, &m.UnitPrice, &m.IncludedUnits,
		&m.TenantID, &m.Status, &m.CreatedAt, &m.UpdatedAt, &m.CreatedBy, &m.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "meter", m.MeterType)
	}
	return &m, nil
}
