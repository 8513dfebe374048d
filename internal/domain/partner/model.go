package partner

import (
	"github.com/shopspring/decimal"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// Partner refers tenants and earns a cut of their successful payments.
type Partner struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Email           string               `json:"email,omitempty"`
	CommissionType  types.CommissionType `json:"commission_type"`
	CommissionValue decimal.Decimal      `json:"commission_value"`
	types.BaseModel
}

// IsActive reports whether the partner currently earns commission.
func (p *Partner) IsActive() bool {
	return p.Status == types.StatusPublished
}

func (p *Partner) Validate() error {
	if p.Name == "" {
		return ierr.NewError("partner name is required").Mark(ierr.ErrValidation)
	}
	if p.CommissionValue.IsNegative() {
		return ierr.NewError("commission value must be non-negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Commission is one partner's cut of one successful payment. Exactly one row
// exists per (partner, payment) pair.
type Commission struct {
	ID               string                 `json:"id"`
	PartnerID        string                 `json:"partner_id"`
	PaymentID        string                 `json:"payment_id"`
	BaseAmount       decimal.Decimal        `json:"base_amount"`
	CommissionRate   decimal.Decimal        `json:"commission_rate"`
	CommissionAmount decimal.Decimal        `json:"commission_amount"`
	CommissionStatus types.CommissionStatus `json:"commission_status"`
	types.BaseModel
}
