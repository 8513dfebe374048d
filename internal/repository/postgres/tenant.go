package postgres

import (
	"context"
	"time"

	"github.com/upbill/upbill/internal/domain/tenant"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
)

type tenantRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewTenantRepository(client postgres.IClient, log *logger.Logger) tenant.Repository {
	return &tenantRepository{client: client, log: log}
}

const tenantColumns = `id, name, billing_email, state, gstin, address, partner_id, metadata,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *tenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	meta, err := marshalMetadata(t.Metadata)
	if err != nil {
		return err
	}

	_, err = r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.Name, t.BillingEmail, t.State, t.GSTIN, t.Address, t.PartnerID, meta,
		t.TenantID, t.Status, t.CreatedAt, t.UpdatedAt, t.CreatedBy, t.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to create tenant")
	}
	return nil
}

func (r *tenantRepository) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanTenant(row)
}

func (r *tenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	meta, err := marshalMetadata(t.Metadata)
	if err != nil {
		return err
	}
	t.UpdatedAt = time.Now().UTC()

	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE tenants SET
			name = $2, billing_email = $3, state = $4, gstin = $5, address = $6,
			partner_id = $7, metadata = $8, status = $9, updated_at = $10, updated_by = $11
		WHERE id = $1`,
		t.ID, t.Name, t.BillingEmail, t.State, t.GSTIN, t.Address,
		t.PartnerID, meta, t.Status, t.UpdatedAt, t.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to update tenant")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(errNoRows, "tenant", t.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTenant(row rowScanner) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var meta []byte
	err := row.Scan(
		&t.ID, &t.Name, &t.BillingEmail, &t.State, &t.GSTIN, &t.Address, &t.PartnerID, &meta,
		&t.TenantID, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy, &t.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "tenant", t.ID)
	}
	if t.Metadata, err = unmarshalMetadata(meta); err != nil {
		return nil, err
	}
	return &t, nil
}
