package dto

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/domain/plan"
	"github.com/upbill/upbill/internal/types"
	"github.com/upbill/upbill/internal/validator"
)

type CreatePlanRequest struct {
	Name          string              `json:"name" validate:"required"`
	LookupKey     string              `json:"lookup_key"`
	Description   string              `json:"description"`
	BasePrice     decimal.Decimal     `json:"base_price" validate:"required"`
	Currency      string              `json:"currency"`
	BillingPeriod types.BillingPeriod `json:"billing_period" validate:"required"`
	TrialDays     int                 `json:"trial_days" validate:"gte=0"`
	Limits        map[string]int64    `json:"limits,omitempty"`
}

func (r *CreatePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.BillingPeriod.Validate()
}

func (r *CreatePlanRequest) ToPlan(ctx context.Context) *plan.Plan {
	currency := r.Currency
	if currency == "" {
		currency = "INR"
	}
	return &plan.Plan{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:          r.Name,
		LookupKey:     r.LookupKey,
		Description:   r.Description,
		BasePrice:     r.BasePrice,
		Currency:      currency,
		BillingPeriod: r.BillingPeriod,
		TrialDays:     r.TrialDays,
		Limits:        r.Limits,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
}

type PlanResponse struct {
	*plan.Plan
}

func NewPlanResponse(p *plan.Plan) *PlanResponse {
	return &PlanResponse{Plan: p}
}

type ListPlansResponse = types.ListResponse[*PlanResponse]
