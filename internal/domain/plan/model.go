package plan

import (
	"github.com/shopspring/decimal"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// Plan is an immutable catalog entry. Plans are versioned, never edited:
// price or period changes are new rows and the old row is archived.
type Plan struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	LookupKey     string              `json:"lookup_key,omitempty"`
	Description   string              `json:"description,omitempty"`
	BasePrice     decimal.Decimal     `json:"base_price"`
	Currency      string              `json:"currency"`
	BillingPeriod types.BillingPeriod `json:"billing_period"`
	TrialDays     int                 `json:"trial_days"`
	Limits        map[string]int64    `json:"limits,omitempty"`
	types.BaseModel
}

// IsActive reports whether the plan can be subscribed to.
func (p *Plan) IsActive() bool {
	return p.Status == types.StatusPublished
}

func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("plan name is required").
			WithHint("Plan name is required").
			Mark(ierr.ErrValidation)
	}
	if p.BasePrice.IsNegative() {
		return ierr.NewError("plan base price must be non-negative").
			WithHint("Base price cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if p.TrialDays < 0 {
		return ierr.NewError("plan trial days must be non-negative").
			Mark(ierr.ErrValidation)
	}
	return p.BillingPeriod.Validate()
}
