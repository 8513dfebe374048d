package dto

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/domain/partner"
	"github.com/upbill/upbill/internal/types"
	"github.com/upbill/upbill/internal/validator"
)

type CreatePartnerRequest struct {
	Name            string               `json:"name" validate:"required"`
	Email           string               `json:"email" validate:"omitempty,email"`
	CommissionType  types.CommissionType `json:"commission_type" validate:"required,oneof=percentage flat"`
	CommissionValue decimal.Decimal      `json:"commission_value" validate:"required"`
}

func (r *CreatePartnerRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreatePartnerRequest) ToPartner(ctx context.Context) *partner.Partner {
	return &partner.Partner{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PARTNER),
		Name:            r.Name,
		Email:           r.Email,
		CommissionType:  r.CommissionType,
		CommissionValue: r.CommissionValue,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

type PartnerResponse struct {
	*partner.Partner
}

func NewPartnerResponse(p *partner.Partner) *PartnerResponse {
	return &PartnerResponse{Partner: p}
}

type CommissionResponse struct {
	*partner.Commission
}

func NewCommissionResponse(c *partner.Commission) *CommissionResponse {
	return &CommissionResponse{Commission: c}
}

// CommissionSweepResult summarizes one run of the commission calculator over
// successful payments lacking a commission row.
type CommissionSweepResult struct {
	ProcessedCount int      `json:"processed_count"`
	SkippedCount   int      `json:"skipped_count"`
	Errors         []string `json:"errors,omitempty"`
}
