package dto

import (
	"context"

	"github.com/upbill/upbill/internal/domain/tax"
	"github.com/upbill/upbill/internal/domain/tenant"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
	"github.com/upbill/upbill/internal/validator"
)

type CreateTenantRequest struct {
	Name         string         `json:"name" validate:"required"`
	BillingEmail string         `json:"billing_email" validate:"required,email"`
	State        string         `json:"state" validate:"required,len=2"`
	GSTIN        *string        `json:"gstin,omitempty"`
	Address      string         `json:"address"`
	PartnerID    *string        `json:"partner_id,omitempty"`
	Metadata     types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateTenantRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.GSTIN != nil && !tax.ValidateGSTIN(*r.GSTIN) {
		return ierr.NewError("invalid GSTIN").
			WithHint("GSTIN does not match the statutory format").
			WithReportableDetails(map[string]interface{}{
				"gstin": *r.GSTIN,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreateTenantRequest) ToTenant(ctx context.Context) *tenant.Tenant {
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TENANT)
	base := types.GetDefaultBaseModel(ctx)
	// A tenant row is its own tenant scope.
	base.TenantID = id
	return &tenant.Tenant{
		ID:           id,
		Name:         r.Name,
		BillingEmail: r.BillingEmail,
		State:        r.State,
		GSTIN:        r.GSTIN,
		Address:      r.Address,
		PartnerID:    r.PartnerID,
		Metadata:     r.Metadata,
		BaseModel:    base,
	}
}

type TenantResponse struct {
	*tenant.Tenant
}

func NewTenantResponse(t *tenant.Tenant) *TenantResponse {
	return &TenantResponse{Tenant: t}
}
