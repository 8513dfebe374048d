package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/usage"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// UsageService records metered usage events and turns a period's unbilled
// overage into charges for invoice generation.
type UsageService interface {
	RecordUsage(ctx context.Context, req dto.RecordUsageRequest) (*dto.UsageEventResponse, error)
	ConfigureMeter(ctx context.Context, req dto.ConfigureMeterRequest) (*dto.MeterResponse, error)
	GetMeter(ctx context.Context, meterType string) (*dto.MeterResponse, error)
	CalculateUsageCharges(ctx context.Context, periodStart, periodEnd time.Time) (*dto.UsageChargesResponse, error)

	// calculateCharges is the internal form used by invoice generation; it
	// keeps the consumed event ids so they can be marked billed in the same
	// transaction.
	calculateCharges(ctx context.Context, periodStart, periodEnd time.Time) ([]*usage.MeterCharge, error)
}

type usageService struct {
	ServiceParams
}

func NewUsageService(params ServiceParams) UsageService {
	return &usageService{ServiceParams: params}
}

func (s *usageService) RecordUsage(ctx context.Context, req dto.RecordUsageRequest) (*dto.UsageEventResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)
	meter, err := s.UsageRepo.GetOrCreateMeter(ctx, tenantID, req.MeterType)
	if err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}

	event := &usage.Event{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_EVENT),
		MeterID:   meter.ID,
		Quantity:  req.Quantity,
		Timestamp: ts,
		Metadata:  req.Metadata,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := s.UsageRepo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return dto.NewUsageEventResponse(event), nil
}

func (s *usageService) ConfigureMeter(ctx context.Context, req dto.ConfigureMeterRequest) (*dto.MeterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)
	meter, err := s.UsageRepo.GetOrCreateMeter(ctx, tenantID, req.MeterType)
	if err != nil {
		return nil, err
	}

	meter.UnitPrice = req.UnitPrice
	meter.IncludedUnits = req.IncludedUnits
	if err := meter.Validate(); err != nil {
		return nil, err
	}
	if err := s.UsageRepo.UpdateMeter(ctx, meter); err != nil {
		return nil, err
	}
	return dto.NewMeterResponse(meter), nil
}

func (s *usageService) GetMeter(ctx context.Context, meterType string) (*dto.MeterResponse, error) {
	meter, err := s.UsageRepo.GetMeter(ctx, types.GetTenantID(ctx), meterType)
	if err != nil {
		return nil, err
	}
	return dto.NewMeterResponse(meter), nil
}

func (s *usageService) CalculateUsageCharges(ctx context.Context, periodStart, periodEnd time.Time) (*dto.UsageChargesResponse, error) {
	charges, err := s.calculateCharges(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	resp := &dto.UsageChargesResponse{TotalAmount: decimal.Zero}
	for _, c := range charges {
		resp.TotalAmount = resp.TotalAmount.Add(c.Amount)
		resp.Charges = append(resp.Charges, dto.UsageMeterCharge{
			MeterID:       c.Meter.ID,
			MeterType:     c.Meter.MeterType,
			TotalQuantity: c.TotalQuantity,
			IncludedUnits: c.Meter.IncludedUnits,
			BilledUnits:   c.BilledUnits,
			UnitPrice:     *c.Meter.UnitPrice,
			Amount:        c.Amount,
		})
	}
	return resp, nil
}

// calculateCharges aggregates the tenant's unbilled events per meter and
// prices the overage beyond each meter's included units. Meters without a
// configured unit price contribute nothing and their events stay unbilled.
func (s *usageService) calculateCharges(ctx context.Context, periodStart, periodEnd time.Time) ([]*usage.MeterCharge, error) {
	tenantID := types.GetTenantID(ctx)

	events, err := s.UsageRepo.ListUnbilledEvents(ctx, tenantID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	meters, err := s.UsageRepo.ListMeters(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	metersByID := make(map[string]*usage.Meter, len(meters))
	for _, m := range meters {
		metersByID[m.ID] = m
	}

	byMeter := make(map[string]*usage.MeterCharge)
	order := make([]string, 0)
	for _, e := range events {
		meter, ok := metersByID[e.MeterID]
		if !ok {
			return nil, ierr.NewError("usage event references unknown meter").
				WithReportableDetails(map[string]interface{}{
					"event_id": e.ID,
					"meter_id": e.MeterID,
				}).
				Mark(ierr.ErrInternal)
		}
		if !meter.IsBillable() {
			continue
		}

		charge, ok := byMeter[meter.ID]
		if !ok {
			charge = &usage.MeterCharge{Meter: meter}
			byMeter[meter.ID] = charge
			order = append(order, meter.ID)
		}
		charge.TotalQuantity = charge.TotalQuantity.Add(e.Quantity)
		charge.EventIDs = append(charge.EventIDs, e.ID)
	}

	charges := make([]*usage.MeterCharge, 0, len(order))
	for _, meterID := range order {
		charge := byMeter[meterID]
		billed := charge.TotalQuantity.Sub(charge.Meter.IncludedUnits)
		if billed.IsNegative() {
			billed = decimal.Zero
		}
		charge.BilledUnits = billed
		charge.Amount = billed.Mul(*charge.Meter.UnitPrice).Round(2)
		// A zero-amount charge is still returned so invoice generation marks
		// its events billed and they never resurface in a later period.
		charges = append(charges, charge)
	}
	return charges, nil
}
