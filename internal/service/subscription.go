package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/invoice"
	"github.com/upbill/upbill/internal/domain/subscription"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/idempotency"
	"github.com/upbill/upbill/internal/types"
	webhookDto "github.com/upbill/upbill/internal/webhook/dto"
)

// SubscriptionService owns the subscription lifecycle: creation, trial and
// active state, cancellation, and the daily renewal/expiry sweep.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, id string, req dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error)

	// RenewSubscriptions is invoked by an external daily scheduler. It
	// renews due subscriptions, expires elapsed cancel-at-period-end ones,
	// activates finished trials and emits trial-ending reminders. Each
	// subscription is processed independently: one failure never aborts the
	// batch.
	RenewSubscriptions(ctx context.Context) (*dto.RenewalSweepResult, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)
	if _, err := s.TenantRepo.Get(ctx, tenantID); err != nil {
		return nil, err
	}

	planResp, err := NewPlanService(s.ServiceParams).GetPlan(ctx, req.PlanID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewError("plan not found").
				WithHint("The selected plan does not exist").
				WithReportableDetails(map[string]interface{}{
					"plan_id": req.PlanID,
				}).
				Mark(ierr.ErrValidation)
		}
		return nil, err
	}
	p := planResp.Plan
	if !p.IsActive() {
		return nil, ierr.NewError("plan is not active").
			WithHint("The selected plan is no longer available").
			WithReportableDetails(map[string]interface{}{
				"plan_id": p.ID,
			}).
			Mark(ierr.ErrValidation)
	}

	// One active/trial subscription per tenant.
	if existing, err := s.SubRepo.GetCurrentByTenant(ctx, tenantID); err == nil && existing != nil {
		return nil, ierr.NewError("tenant already has a current subscription").
			WithHint("Cancel the existing subscription before creating a new one").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": existing.ID,
			}).
			Mark(ierr.ErrValidation)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	periodEnd := types.NextBillingDate(now, p.BillingPeriod)

	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		PlanID:             p.ID,
		BillingEmail:       req.BillingEmail,
		Gateway:            req.Gateway,
		BillingPeriod:      p.BillingPeriod,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
		NextBillingDate:    periodEnd,
		AutoRenew:          lo.FromPtrOr(req.AutoRenew, true),
		Metadata:           req.Metadata,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}

	trialDays := p.TrialDays
	if req.TrialDaysOverride != nil {
		trialDays = *req.TrialDaysOverride
	}
	if trialDays > 0 {
		trialEnd := now.AddDate(0, 0, trialDays)
		sub.SubscriptionStatus = types.SubscriptionStatusTrial
		sub.TrialStart = &now
		sub.TrialEnd = &trialEnd
	} else {
		sub.SubscriptionStatus = types.SubscriptionStatusActive
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	// Paid subscriptions get their first invoice immediately; trials are
	// invoiced when the trial converts.
	if sub.SubscriptionStatus == types.SubscriptionStatusActive {
		invoiceSvc := NewInvoiceService(s.ServiceParams)
		if _, err := invoiceSvc.GenerateInvoice(ctx, dto.GenerateInvoiceRequest{
			SubscriptionID: sub.ID,
			BillingReason:  invoice.BillingReasonSubscriptionCreate,
			PeriodStart:    &sub.CurrentPeriodStart,
			PeriodEnd:      &sub.CurrentPeriodEnd,
		}); err != nil {
			return nil, err
		}
	}

	s.logAudit(ctx, "subscription.created", "subscription", sub.ID, nil, map[string]interface{}{
		"plan_id": sub.PlanID,
		"status":  string(sub.SubscriptionStatus),
	})
	s.publishWebhook(ctx, types.WebhookEventSubscriptionCreated, s.subscriptionEvent(types.WebhookEventSubscriptionCreated, sub))

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, id string, req dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sub.IsCurrent() {
		return nil, ierr.NewError("subscription is not active").
			WithHint("Only active or trial subscriptions can be cancelled").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"status":          string(sub.SubscriptionStatus),
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	oldStatus := sub.SubscriptionStatus
	now := time.Now().UTC()

	if req.AtPeriodEnd {
		// The renewal/expiry sweep flips the status once the period
		// naturally elapses.
		sub.CancelAtPeriodEnd = true
		sub.AutoRenew = false
	} else {
		sub.SubscriptionStatus = types.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		sub.AutoRenew = false
	}

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "subscription.cancelled", "subscription", sub.ID,
		map[string]interface{}{"status": string(oldStatus)},
		map[string]interface{}{
			"status":               string(sub.SubscriptionStatus),
			"cancel_at_period_end": sub.CancelAtPeriodEnd,
		})
	if !req.AtPeriodEnd {
		s.publishWebhook(ctx, types.WebhookEventSubscriptionCancelled, s.subscriptionEvent(types.WebhookEventSubscriptionCancelled, sub))
	}

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) RenewSubscriptions(ctx context.Context) (*dto.RenewalSweepResult, error) {
	now := time.Now().UTC()
	result := &dto.RenewalSweepResult{}

	due, err := s.SubRepo.ListDueForRenewal(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, sub := range due {
		tctx := types.SetTenantID(ctx, sub.TenantID)
		if err := s.renewOne(tctx, sub); err != nil {
			s.Logger.Errorw("subscription renewal failed",
				"subscription_id", sub.ID,
				"tenant_id", sub.TenantID,
				"error", err,
			)
			result.Failures = append(result.Failures, dto.RenewalFailure{
				SubscriptionID: sub.ID,
				TenantID:       sub.TenantID,
				Error:          err.Error(),
			})
			continue
		}
		result.RenewedCount++
	}

	elapsed, err := s.SubRepo.ListElapsedCancellations(ctx, now)
	if err != nil {
		return result, err
	}
	for _, sub := range elapsed {
		tctx := types.SetTenantID(ctx, sub.TenantID)
		sub.SubscriptionStatus = types.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		if err := s.SubRepo.Update(tctx, sub); err != nil {
			result.Failures = append(result.Failures, dto.RenewalFailure{
				SubscriptionID: sub.ID,
				TenantID:       sub.TenantID,
				Error:          err.Error(),
			})
			continue
		}
		result.ExpiredCount++
		s.publishWebhook(tctx, types.WebhookEventSubscriptionCancelled, s.subscriptionEvent(types.WebhookEventSubscriptionCancelled, sub))
	}

	reminderCutoff := now.AddDate(0, 0, s.Config.Billing.TrialEndingReminderDays)
	trials, err := s.SubRepo.ListTrialsEndingBefore(ctx, reminderCutoff)
	if err != nil {
		return result, err
	}
	for _, sub := range trials {
		tctx := types.SetTenantID(ctx, sub.TenantID)
		if sub.TrialEnd != nil && !sub.TrialEnd.After(now) {
			if err := s.activateTrial(tctx, sub); err != nil {
				result.Failures = append(result.Failures, dto.RenewalFailure{
					SubscriptionID: sub.ID,
					TenantID:       sub.TenantID,
					Error:          err.Error(),
				})
			}
			continue
		}
		// Trial still running but ending soon: remind. The dispatcher
		// dedupes repeated reminders.
		result.TrialEndingCount++
		s.publishWebhook(tctx, types.WebhookEventTrialEnding, s.subscriptionEvent(types.WebhookEventTrialEnding, sub))
	}

	s.Logger.Infow("renewal sweep completed",
		"renewed", result.RenewedCount,
		"expired", result.ExpiredCount,
		"trial_ending", result.TrialEndingCount,
		"failures", len(result.Failures),
	)
	return result, nil
}

// renewOne generates the renewal invoice and advances the billing anchor by
// exactly one cycle from the previous anchor, never from now, so a late
// sweep cannot drift the schedule.
func (s *subscriptionService) renewOne(ctx context.Context, sub *subscription.Subscription) error {
	prevAnchor := sub.NextBillingDate
	idemKey := idempotency.NewGenerator().GenerateKey(idempotency.ScopeRenewal, map[string]interface{}{
		"subscription_id": sub.ID,
		"period_start":    prevAnchor.Format(time.RFC3339),
	})

	invoiceSvc := NewInvoiceService(s.ServiceParams)
	if _, err := invoiceSvc.GenerateInvoice(ctx, dto.GenerateInvoiceRequest{
		SubscriptionID: sub.ID,
		IncludeUsage:   true,
		BillingReason:  invoice.BillingReasonSubscriptionCycle,
		PeriodStart:    &sub.CurrentPeriodStart,
		PeriodEnd:      &sub.CurrentPeriodEnd,
		IdempotencyKey: &idemKey,
	}); err != nil {
		return err
	}

	sub.CurrentPeriodStart = prevAnchor
	sub.CurrentPeriodEnd = types.NextBillingDate(prevAnchor, sub.BillingPeriod)
	sub.NextBillingDate = sub.CurrentPeriodEnd
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.publishWebhook(ctx, types.WebhookEventSubscriptionRenewed, s.subscriptionEvent(types.WebhookEventSubscriptionRenewed, sub))
	return nil
}

// activateTrial converts a finished trial into an active subscription and
// issues its first invoice.
func (s *subscriptionService) activateTrial(ctx context.Context, sub *subscription.Subscription) error {
	sub.SubscriptionStatus = types.SubscriptionStatusActive
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	invoiceSvc := NewInvoiceService(s.ServiceParams)
	_, err := invoiceSvc.GenerateInvoice(ctx, dto.GenerateInvoiceRequest{
		SubscriptionID: sub.ID,
		BillingReason:  invoice.BillingReasonSubscriptionCreate,
		PeriodStart:    &sub.CurrentPeriodStart,
		PeriodEnd:      &sub.CurrentPeriodEnd,
	})
	return err
}

func (s *subscriptionService) subscriptionEvent(eventType string, sub *subscription.Subscription) webhookDto.InternalSubscriptionEvent {
	return webhookDto.InternalSubscriptionEvent{
		EventType:          eventType,
		TenantID:           sub.TenantID,
		SubscriptionID:     sub.ID,
		PlanID:             sub.PlanID,
		SubscriptionStatus: string(sub.SubscriptionStatus),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		TrialEnd:           sub.TrialEnd,
		NextBillingDate:    sub.NextBillingDate,
	}
}
