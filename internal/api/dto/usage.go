package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/domain/usage"
	"github.com/upbill/upbill/internal/types"
	"github.com/upbill/upbill/internal/validator"
)

type RecordUsageRequest struct {
	MeterType string          `json:"meter_type" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Metadata  types.Metadata  `json:"metadata,omitempty"`
}

func (r *RecordUsageRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type ConfigureMeterRequest struct {
	MeterType     string           `json:"meter_type" validate:"required"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	IncludedUnits decimal.Decimal  `json:"included_units"`
}

func (r *ConfigureMeterRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type UsageEventResponse struct {
	*usage.Event
}

func NewUsageEventResponse(e *usage.Event) *UsageEventResponse {
	return &UsageEventResponse{Event: e}
}

type MeterResponse struct {
	*usage.Meter
}

func NewMeterResponse(m *usage.Meter) *MeterResponse {
	return &MeterResponse{Meter: m}
}
