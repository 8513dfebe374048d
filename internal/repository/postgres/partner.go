package postgres

import (
	"context"

	"github.com/upbill/upbill/internal/domain/partner"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
)

type partnerRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewPartnerRepository(client postgres.IClient, log *logger.Logger) partner.Repository {
	return &partnerRepository{client: client, log: log}
}

const partnerColumns = `id, name, email, commission_type, commission_value,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const commissionColumns = `id, partner_id, payment_id, base_amount, commission_rate, commission_amount,
	commission_status, tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *partnerRepository) CreatePartner(ctx context.Context, p *partner.Partner) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO partners (`+partnerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Email, p.CommissionType, p.CommissionValue,
		p.TenantID, p.Status, p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to create partner")
	}
	return nil
}

func (r *partnerRepository) GetPartner(ctx context.Context, id string) (*partner.Partner, error) {
	var p partner.Partner
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+partnerColumns+`
		FROM partners
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	).Scan(
		&p.ID, &p.Name, &p.Email, &p.CommissionType, &p.CommissionValue,
		&p.TenantID, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "partner", id)
	}
	return &p, nil
}

func (r *partnerRepository) CreateCommission(ctx context.Context, c *partner.Commission) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO commissions (`+commissionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.PartnerID, c.PaymentID, c.BaseAmount, c.CommissionRate, c.CommissionAmount,
		c.CommissionStatus, c.TenantID, c.Status, c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "commissions_payment_id_key") {
			return ierr.WithError(err).
				WithHint("A commission already exists for this payment").
				WithReportableDetails(map[string]interface{}{
					"payment_id": c.PaymentID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return dbErr(err, "Failed to create commission")
	}
	return nil
}

func (r *partnerRepository) CommissionExistsForPayment(ctx context.Context, paymentID string) (bool, error) {
	var exists bool
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM commissions WHERE payment_id = $1 AND status != $2
		)`,
		paymentID, types.StatusDeleted,
	).Scan(&exists)
	if err != nil {
		return false, dbErr(err, "Failed to check commission existence")
	}
	return exists, nil
}

func (r *partnerRepository) ListCommissionsByPartner(ctx context.Context, partnerID string) ([]*partner.Commission, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+commissionColumns+`
		FROM commissions
		WHERE partner_id = $1 AND status != $2
		ORDER BY created_at DESC`,
		partnerID, types.StatusDeleted,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list commissions")
	}
	defer rows.Close()

	var commissions []*partner.Commission
	for rows.Next() {
		var c partner.Commission
		err := rows.Scan(
			&c.ID, &c.PartnerID, &c.PaymentID, &c.BaseAmount, &c.CommissionRate, &c.CommissionAmount,
			&c.CommissionStatus, &c.TenantID, &c.Status, &c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy,
		)
		if err != nil {
			return nil, dbErr(err, "Failed to scan commission")
		}
		commissions = append(commissions, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "Failed to list commissions")
	}
	return commissions, nil
}
