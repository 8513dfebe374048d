package dto

import (
	"github.com/upbill/upbill/internal/domain/subscription"
	"github.com/upbill/upbill/internal/types"
	"github.com/upbill/upbill/internal/validator"
)

type CreateSubscriptionRequest struct {
	PlanID       string               `json:"plan_id" validate:"required"`
	BillingEmail string               `json:"billing_email" validate:"required,email"`
	Gateway      types.PaymentGateway `json:"gateway" validate:"required"`

	// TrialDaysOverride replaces the plan's trial days when set. Zero forces
	// an immediate active subscription.
	TrialDaysOverride *int `json:"trial_days_override,omitempty" validate:"omitempty,gte=0"`

	AutoRenew *bool          `json:"auto_renew,omitempty"`
	Metadata  types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Gateway.Validate()
}

type CancelSubscriptionRequest struct {
	// AtPeriodEnd defers the cancellation to the natural end of the current
	// period instead of cancelling immediately.
	AtPeriodEnd bool `json:"at_period_end"`
}

type SubscriptionResponse struct {
	*subscription.Subscription
}

func NewSubscriptionResponse(s *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{Subscription: s}
}

// RenewalFailure records one subscription the sweep could not renew. The
// sweep reports failures instead of aborting the batch.
type RenewalFailure struct {
	SubscriptionID string `json:"subscription_id"`
	TenantID       string `json:"tenant_id"`
	Error          string `json:"error"`
}

// RenewalSweepResult summarizes one run of the daily renewal/expiry sweep.
type RenewalSweepResult struct {
	RenewedCount     int              `json:"renewed_count"`
	ExpiredCount     int              `json:"expired_count"`
	TrialEndingCount int              `json:"trial_ending_count"`
	Failures         []RenewalFailure `json:"failures,omitempty"`
}
