package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/invoice"
	"github.com/upbill/upbill/internal/domain/tax"
	"github.com/upbill/upbill/internal/domain/usage"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
	webhookDto "github.com/upbill/upbill/internal/webhook/dto"
)

// InvoiceService generates GST-compliant invoices for subscription periods.
// Invoice numbers form one gapless sequence per year across all tenants,
// allocated under a global advisory lock.
type InvoiceService interface {
	GenerateInvoice(ctx context.Context, req dto.GenerateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *invoice.Filter) (*dto.ListInvoicesResponse, error)

	// MarkOverdueInvoices flips pending invoices past their due date to
	// overdue. Invoked by the daily scheduler alongside the renewal sweep.
	MarkOverdueInvoices(ctx context.Context) (int, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{ServiceParams: params}
}

func (s *invoiceService) GenerateInvoice(ctx context.Context, req dto.GenerateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// A replayed renewal for the same period returns the existing invoice
	// instead of double-billing.
	if req.IdempotencyKey != nil {
		existing, err := s.InvoiceRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
		if err == nil && existing != nil {
			return dto.NewInvoiceResponse(existing), nil
		}
		if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.TenantRepo.Get(ctx, sub.TenantID)
	if err != nil {
		return nil, err
	}
	planResp, err := NewPlanService(s.ServiceParams).GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	p := planResp.Plan

	periodStart := sub.CurrentPeriodStart
	periodEnd := sub.CurrentPeriodEnd
	if req.PeriodStart != nil {
		periodStart = *req.PeriodStart
	}
	if req.PeriodEnd != nil {
		periodEnd = *req.PeriodEnd
	}

	billingReason := req.BillingReason
	if billingReason == "" {
		billingReason = invoice.BillingReasonManual
	}

	now := time.Now().UTC()
	lineItems := []*invoice.LineItem{
		{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			Description: fmt.Sprintf("%s (%s)", p.Name, sub.BillingPeriod),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   p.BasePrice,
			Amount:      p.BasePrice,
			SACCode:     tax.DefaultSACCode,
			PeriodStart: &periodStart,
			PeriodEnd:   &periodEnd,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		},
	}
	subtotal := p.BasePrice

	var usageCharges []*usage.MeterCharge
	if req.IncludeUsage {
		usageCharges, err = NewUsageService(s.ServiceParams).calculateCharges(ctx, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		for _, c := range usageCharges {
			meterID := c.Meter.ID
			lineItems = append(lineItems, &invoice.LineItem{
				ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
				Description: fmt.Sprintf("%s usage (%s over %s included)", c.Meter.MeterType, c.BilledUnits, c.Meter.IncludedUnits),
				Quantity:    c.BilledUnits,
				UnitPrice:   *c.Meter.UnitPrice,
				Amount:      c.Amount,
				MeterID:     &meterID,
				SACCode:     tax.DefaultSACCode,
				PeriodStart: &periodStart,
				PeriodEnd:   &periodEnd,
				BaseModel:   types.GetDefaultBaseModel(ctx),
			})
			subtotal = subtotal.Add(c.Amount)
		}
	}

	gst := tax.CalculateGST(subtotal, s.Config.Billing.SupplierState, tenant.State, decimal.NewFromInt(int64(s.Config.Billing.GSTRatePercent)))

	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		SubscriptionID: sub.ID,
		IdempotencyKey: req.IdempotencyKey,
		InvoiceDate:    now,
		DueDate:        now.AddDate(0, 0, s.Config.Billing.InvoiceDueDays),
		PeriodStart:    &periodStart,
		PeriodEnd:      &periodEnd,
		Subtotal:       subtotal,
		DiscountAmount: decimal.Zero,
		CGSTAmount:     gst.CGST,
		SGSTAmount:     gst.SGST,
		IGSTAmount:     gst.IGST,
		TotalAmount:    gst.Total,
		AmountPaid:     decimal.Zero,
		Currency:       p.Currency,
		PaymentStatus:  types.InvoicePaymentStatusUnpaid,
		InvoiceStatus:  types.InvoiceStatusPending,
		BillingReason:  billingReason,
		LineItems:      lineItems,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		// The number sequence is global across tenants, so the lock key
		// carries only the series year.
		lockKey := types.GenerateGlobalLockKey(types.LockScopeInvoiceNumber, map[string]interface{}{
			"year": now.Year(),
		})
		if err := s.DB.LockKey(txCtx, postgres.LockRequest{Key: lockKey}); err != nil {
			return err
		}

		number, err := s.nextInvoiceNumber(txCtx, now)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		for _, li := range inv.LineItems {
			li.InvoiceID = inv.ID
		}

		if err := inv.Validate(); err != nil {
			return err
		}
		if err := s.InvoiceRepo.CreateWithLineItems(txCtx, inv); err != nil {
			return err
		}

		// Consumed usage is stamped in the same transaction, so an invoice
		// either exists with its events billed or neither happened.
		for _, c := range usageCharges {
			if err := s.UsageRepo.MarkEventsBilled(txCtx, c.EventIDs, inv.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "invoice.created", "invoice", inv.ID, nil, map[string]interface{}{
		"invoice_number": inv.InvoiceNumber,
		"total_amount":   inv.TotalAmount.String(),
		"billing_reason": inv.BillingReason,
	})
	s.publishWebhook(ctx, types.WebhookEventInvoiceCreated, webhookDto.InternalInvoiceEvent{
		EventType:      types.WebhookEventInvoiceCreated,
		TenantID:       inv.TenantID,
		InvoiceID:      inv.ID,
		SubscriptionID: inv.SubscriptionID,
		InvoiceNumber:  inv.InvoiceNumber,
		TotalAmount:    inv.TotalAmount,
		AmountDue:      inv.AmountDue(),
		Currency:       inv.Currency,
		DueDate:        inv.DueDate,
	})

	return dto.NewInvoiceResponse(inv), nil
}

// nextInvoiceNumber allocates the next number in the PREFIX-YYYY-NNNNNN
// series. The sequence resets each calendar year. Callers must already hold
// the invoice-number advisory lock.
func (s *invoiceService) nextInvoiceNumber(ctx context.Context, at time.Time) (string, error) {
	prefix := s.Config.Billing.InvoiceNumberPrefix
	max, err := s.InvoiceRepo.MaxInvoiceNumber(ctx, prefix)
	if err != nil {
		return "", err
	}

	year := at.Year()
	seq := 1
	if max != "" {
		var maxYear, maxSeq int
		if _, err := fmt.Sscanf(max, prefix+"-%d-%d", &maxYear, &maxSeq); err != nil {
			return "", ierr.NewError("existing invoice number is malformed").
				WithReportableDetails(map[string]interface{}{
					"invoice_number": max,
				}).
				Mark(ierr.ErrInternal)
		}
		if maxYear == year {
			seq = maxSeq + 1
		}
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *invoice.Filter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = invoice.NewFilter()
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = dto.NewInvoiceResponse(inv)
	}
	resp := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *invoiceService) MarkOverdueInvoices(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	overdue, err := s.InvoiceRepo.ListOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, inv := range overdue {
		tctx := types.SetTenantID(ctx, inv.TenantID)
		inv.InvoiceStatus = types.InvoiceStatusOverdue
		if err := s.InvoiceRepo.Update(tctx, inv); err != nil {
			s.Logger.Errorw("failed to mark invoice overdue",
				"invoice_id", inv.ID,
				"error", err,
			)
			continue
		}
		count++
	}
	return count, nil
}
