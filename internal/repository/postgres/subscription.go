package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/upbill/upbill/internal/domain/subscription"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
)

type subscriptionRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, log *logger.Logger) subscription.Repository {
	return &subscriptionRepository{client: client, log: log}
}

const subscriptionColumns = `id, plan_id, billing_email, gateway, subscription_status, billing_period,
	current_period_start, current_period_end, trial_start, trial_end, next_billing_date,
	auto_renew, cancel_at_period_end, cancelled_at, metadata,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *subscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	meta, err := marshalMetadata(s.Metadata)
	if err != nil {
		return err
	}

	_, err = r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		s.ID, s.PlanID, s.BillingEmail, s.Gateway, s.SubscriptionStatus, s.BillingPeriod,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.TrialStart, s.TrialEnd, s.NextBillingDate,
		s.AutoRenew, s.CancelAtPeriodEnd, s.CancelledAt, meta,
		s.TenantID, s.Status, s.CreatedAt, s.UpdatedAt, s.CreatedBy, s.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to create subscription")
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanSubscription(row)
}

func (r *subscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	meta, err := marshalMetadata(s.Metadata)
	if err != nil {
		return err
	}
	s.UpdatedAt = time.Now().UTC()

	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE subscriptions SET
			subscription_status = $2, current_period_start = $3, current_period_end = $4,
			trial_start = $5, trial_end = $6, next_billing_date = $7,
			auto_renew = $8, cancel_at_period_end = $9, cancelled_at = $10,
			metadata = $11, status = $12, updated_at = $13, updated_by = $14
		WHERE id = $1`,
		s.ID, s.SubscriptionStatus, s.CurrentPeriodStart, s.CurrentPeriodEnd,
		s.TrialStart, s.TrialEnd, s.NextBillingDate,
		s.AutoRenew, s.CancelAtPeriodEnd, s.CancelledAt,
		meta, s.Status, s.UpdatedAt, s.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to update subscription")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(errNoRows, "subscription", s.ID)
	}
	return nil
}

func (r *subscriptionRepository) GetCurrentByTenant(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE tenant_id = $1
		  AND subscription_status IN ($2, $3)
		  AND status != $4
		ORDER BY created_at DESC
		LIMIT 1`,
		tenantID, types.SubscriptionStatusActive, types.SubscriptionStatusTrial, types.StatusDeleted,
	)
	return scanSubscription(row)
}

func (r *subscriptionRepository) ListDueForRenewal(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE subscription_status = $1
		  AND auto_renew = true
		  AND cancel_at_period_end = false
		  AND next_billing_date <= $2
		  AND status != $3
		ORDER BY next_billing_date`,
		types.SubscriptionStatusActive, asOf, types.StatusDeleted,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list subscriptions due for renewal")
	}
	return scanSubscriptions(rows)
}

func (r *subscriptionRepository) ListElapsedCancellations(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE subscription_status IN ($1, $2)
		  AND cancel_at_period_end = true
		  AND current_period_end <= $3
		  AND status != $4
		ORDER BY current_period_end`,
		types.SubscriptionStatusActive, types.SubscriptionStatusTrial, asOf, types.StatusDeleted,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list elapsed cancellations")
	}
	return scanSubscriptions(rows)
}

func (r *subscriptionRepository) ListTrialsEndingBefore(ctx context.Context, cutoff time.Time) ([]*subscription.Subscription, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE subscription_status = $1
		  AND trial_end IS NOT NULL
		  AND trial_end <= $2
		  AND status != $3
		ORDER BY trial_end`,
		types.SubscriptionStatusTrial, cutoff, types.StatusDeleted,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list trials ending")
	}
	return scanSubscriptions(rows)
}

func scanSubscription(row rowScanner) (*subscription.Subscription, error) {
	var s subscription.Subscription
	var meta []byte
	err := row.Scan(
		&s.ID, &s.PlanID, &s.BillingEmail, &s.Gateway, &s.SubscriptionStatus, &s.BillingPeriod,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.TrialStart, &s.TrialEnd, &s.NextBillingDate,
		&s.AutoRenew, &s.CancelAtPeriodEnd, &s.CancelledAt, &meta,
		&s.TenantID, &s.Status, &s.CreatedAt, &s.UpdatedAt, &s.CreatedBy, &s.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "subscription", s.ID)
	}
	if s.Metadata, err = unmarshalMetadata(meta); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSubscriptions(rows *sql.Rows) ([]*subscription.Subscription, error) {
	defer rows.Close()
	var subs []*subscription.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "Failed to scan subscriptions")
	}
	return subs, nil
}
