package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/upbill/upbill/internal/domain/plan"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
)

type planRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewPlanRepository(client postgres.IClient, log *logger.Logger) plan.Repository {
	return &planRepository{client: client, log: log}
}

const planColumns = `id, name, lookup_key, description, base_price, currency, billing_period,
	trial_days, limits, tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	var limits interface{}
	if len(p.Limits) > 0 {
		b, err := json.Marshal(p.Limits)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to encode plan limits").
				Mark(ierr.ErrDatabase)
		}
		limits = b
	}

	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO subscription_plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.Name, p.LookupKey, p.Description, p.BasePrice, p.Currency, p.BillingPeriod,
		p.TrialDays, limits, p.TenantID, p.Status, p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to create plan")
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+planColumns+`
		FROM subscription_plans
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanPlan(row)
}

func (r *planRepository) List(ctx context.Context, filter *plan.Filter) ([]*plan.Plan, error) {
	if filter == nil {
		filter = plan.NewFilter()
	}

	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE status != $1`
	args := []interface{}{types.StatusDeleted}

	if filter.ActiveOnly {
		args = append(args, types.StatusPublished)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if len(filter.BillingPeriods) > 0 {
		placeholders := ""
		for i, bp := range filter.BillingPeriods {
			args = append(args, bp)
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", len(args))
		}
		query += " AND billing_period IN (" + placeholders + ")"
	}

	args = append(args, filter.GetLimit(), filter.GetOffset())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.client.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(err, "Failed to list plans")
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "Failed to list plans")
	}
	return plans, nil
}

func (r *planRepository) Archive(ctx context.Context, id string) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE subscription_plans
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4`,
		id, types.StatusArchived, time.Now().UTC(), types.StatusPublished,
	)
	if err != nil {
		return dbErr(err, "Failed to archive plan")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(errNoRows, "plan", id)
	}
	return nil
}

func scanPlan(row rowScanner) (*plan.Plan, error) {
	var p plan.Plan
	var limits []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.LookupKey, &p.Description, &p.BasePrice, &p.Currency, &p.BillingPeriod,
		&p.TrialDays, &limits, &p.TenantID, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "plan", p.ID)
	}
	if len(limits) > 0 {
		if err := json.Unmarshal(limits, &p.Limits); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to decode plan limits").
				Mark(ierr.ErrDatabase)
		}
	}
	return &p, nil
}
