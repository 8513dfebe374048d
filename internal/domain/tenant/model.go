package tenant

import (
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// Tenant is a billable customer account. State drives the GST jurisdiction
// comparison against the supplier; PartnerID links a referred tenant to the
// partner earning commission on its payments.
type Tenant struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	BillingEmail string         `json:"billing_email"`
	State        string         `json:"state"`
	GSTIN        *string        `json:"gstin,omitempty"`
	Address      string         `json:"address,omitempty"`
	PartnerID    *string        `json:"partner_id,omitempty"`
	Metadata     types.Metadata `json:"metadata,omitempty"`
	types.BaseModel
}

func (t *Tenant) Validate() error {
	if t.Name == "" {
		return ierr.NewError("tenant name is required").
			WithHint("Tenant name is required").
			Mark(ierr.ErrValidation)
	}
	if t.State == "" {
		return ierr.NewError("tenant state is required").
			WithHint("Tenant state is required for tax jurisdiction").
			Mark(ierr.ErrValidation)
	}
	return nil
}
