package subscription

import (
	"time"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// Subscription ties a tenant to a plan across billing periods. Period
// boundaries and the next billing anchor advance by calendar months, never
// fixed day counts.
type Subscription struct {
	ID                 string                   `json:"id"`
	PlanID             string                   `json:"plan_id"`
	BillingEmail       string                   `json:"billing_email"`
	Gateway            types.PaymentGateway     `json:"gateway"`
	SubscriptionStatus types.SubscriptionStatus `json:"subscription_status"`
	BillingPeriod      types.BillingPeriod      `json:"billing_period"`
	CurrentPeriodStart time.Time                `json:"current_period_start"`
	CurrentPeriodEnd   time.Time                `json:"current_period_end"`
	TrialStart         *time.Time               `json:"trial_start,omitempty"`
	TrialEnd           *time.Time               `json:"trial_end,omitempty"`
	NextBillingDate    time.Time                `json:"next_billing_date"`
	AutoRenew          bool                     `json:"auto_renew"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	CancelledAt        *time.Time               `json:"cancelled_at,omitempty"`
	Metadata           types.Metadata           `json:"metadata,omitempty"`
	types.BaseModel
}

// IsBillable reports whether the subscription participates in renewal
// invoicing.
func (s *Subscription) IsBillable() bool {
	return s.SubscriptionStatus == types.SubscriptionStatusActive
}

// IsCurrent reports whether the subscription occupies the tenant's single
// active/trial slot.
func (s *Subscription) IsCurrent() bool {
	return s.SubscriptionStatus == types.SubscriptionStatusActive ||
		s.SubscriptionStatus == types.SubscriptionStatusTrial
}

func (s *Subscription) Validate() error {
	if s.PlanID == "" {
		return ierr.NewError("plan_id is required").Mark(ierr.ErrValidation)
	}
	if err := s.SubscriptionStatus.Validate(); err != nil {
		return err
	}
	if err := s.BillingPeriod.Validate(); err != nil {
		return err
	}
	if s.CurrentPeriodEnd.Before(s.CurrentPeriodStart) {
		return ierr.NewError("current_period_end must be after current_period_start").
			Mark(ierr.ErrValidation)
	}
	if s.TrialStart != nil && s.TrialEnd != nil && s.TrialEnd.Before(*s.TrialStart) {
		return ierr.NewError("trial_end must be after trial_start").
			Mark(ierr.ErrValidation)
	}
	return nil
}
