package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/partner"
	"github.com/upbill/upbill/internal/domain/payment"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// CommissionService computes partner commissions on successful payments.
// Exactly one commission row exists per payment; a sweep backfills payments
// the inline calculation missed.
type CommissionService interface {
	CreatePartner(ctx context.Context, req dto.CreatePartnerRequest) (*dto.PartnerResponse, error)
	GetPartner(ctx context.Context, id string) (*dto.PartnerResponse, error)
	ListCommissionsByPartner(ctx context.Context, partnerID string) ([]*dto.CommissionResponse, error)

	// CalculateForPayment creates the commission row for one successful
	// payment. Returns nil without error when the tenant has no partner.
	CalculateForPayment(ctx context.Context, txn *payment.Transaction) (*dto.CommissionResponse, error)

	// ProcessPendingCommissions backfills commissions for successful payments
	// that have none, across tenants.
	ProcessPendingCommissions(ctx context.Context, limit int) (*dto.CommissionSweepResult, error)
}

type commissionService struct {
	ServiceParams
}

func NewCommissionService(params ServiceParams) CommissionService {
	return &commissionService{ServiceParams: params}
}

func (s *commissionService) CreatePartner(ctx context.Context, req dto.CreatePartnerRequest) (*dto.PartnerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToPartner(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.CommissionType == types.CommissionTypePercentage && p.CommissionValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ierr.NewError("percentage commission cannot exceed 100").
			WithReportableDetails(map[string]interface{}{
				"commission_value": p.CommissionValue.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if err := s.PartnerRepo.CreatePartner(ctx, p); err != nil {
		return nil, err
	}
	return dto.NewPartnerResponse(p), nil
}

func (s *commissionService) GetPartner(ctx context.Context, id string) (*dto.PartnerResponse, error) {
	p, err := s.PartnerRepo.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPartnerResponse(p), nil
}

func (s *commissionService) ListCommissionsByPartner(ctx context.Context, partnerID string) ([]*dto.CommissionResponse, error) {
	commissions, err := s.PartnerRepo.ListCommissionsByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	resp := make([]*dto.CommissionResponse, len(commissions))
	for i, c := range commissions {
		resp[i] = dto.NewCommissionResponse(c)
	}
	return resp, nil
}

func (s *commissionService) CalculateForPayment(ctx context.Context, txn *payment.Transaction) (*dto.CommissionResponse, error) {
	if !txn.IsSuccess() {
		return nil, ierr.NewError("commission applies only to successful payments").
			WithReportableDetails(map[string]interface{}{
				"payment_id": txn.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	exists, err := s.PartnerRepo.CommissionExistsForPayment(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	tenant, err := s.TenantRepo.Get(ctx, txn.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.PartnerID == nil {
		return nil, nil
	}

	p, err := s.PartnerRepo.GetPartner(ctx, *tenant.PartnerID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, nil
	}

	commission := s.computeCommission(p, txn)
	if err := s.PartnerRepo.CreateCommission(ctx, commission); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "commission.created", "commission", commission.ID, nil, map[string]interface{}{
		"partner_id":        commission.PartnerID,
		"payment_id":        commission.PaymentID,
		"commission_amount": commission.CommissionAmount.String(),
	})
	return dto.NewCommissionResponse(commission), nil
}

// computeCommission prices the partner's cut of one payment. Percentage
// partners earn value% of the amount; flat partners earn the value itself,
// with the equivalent rate recorded for reporting.
func (s *commissionService) computeCommission(p *partner.Partner, txn *payment.Transaction) *partner.Commission {
	var rate, amount decimal.Decimal
	switch p.CommissionType {
	case types.CommissionTypePercentage:
		rate = p.CommissionValue
		amount = txn.Amount.Mul(p.CommissionValue).Div(decimal.NewFromInt(100)).Round(2)
	case types.CommissionTypeFlat:
		amount = p.CommissionValue.Round(2)
		if amount.GreaterThan(txn.Amount) {
			amount = txn.Amount
		}
		if txn.Amount.IsPositive() {
			rate = amount.Mul(decimal.NewFromInt(100)).Div(txn.Amount).Round(2)
		}
	}

	return &partner.Commission{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COMMISSION),
		PartnerID:        p.ID,
		PaymentID:        txn.ID,
		BaseAmount:       txn.Amount,
		CommissionRate:   rate,
		CommissionAmount: amount,
		CommissionStatus: types.CommissionStatusPending,
		BaseModel: types.BaseModel{
			TenantID:  txn.TenantID,
			Status:    types.StatusPublished,
			CreatedAt: txn.CreatedAt,
			UpdatedAt: txn.CreatedAt,
			CreatedBy: "system",
			UpdatedBy: "system",
		},
	}
}

func (s *commissionService) ProcessPendingCommissions(ctx context.Context, limit int) (*dto.CommissionSweepResult, error) {
	payments, err := s.PaymentRepo.ListSuccessfulWithoutCommission(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &dto.CommissionSweepResult{}
	for _, txn := range payments {
		tctx := types.SetTenantID(ctx, txn.TenantID)
		resp, err := s.CalculateForPayment(tctx, txn)
		if err != nil {
			s.Logger.Errorw("commission backfill failed",
				"payment_id", txn.ID,
				"error", err,
			)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if resp == nil {
			result.SkippedCount++
			continue
		}
		result.ProcessedCount++
	}
	return result, nil
}
