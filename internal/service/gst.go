package service

import (
	"context"
	"time"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/gstreceipt"
	"github.com/upbill/upbill/internal/domain/tax"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// GSTService renders the statutory view of an invoice, issues placeholder
// e-invoice acknowledgments and freezes per-payment GST receipts.
type GSTService interface {
	GenerateGSTInvoice(ctx context.Context, invoiceID string) (*dto.GSTInvoiceResponse, error)

	// GenerateEInvoice assigns the deterministic IRN/acknowledgment block to
	// an invoice, exactly once. Regeneration returns the stored block.
	GenerateEInvoice(ctx context.Context, invoiceID string) (*dto.EInvoiceResponse, error)

	// CreateReceiptForPayment freezes the statutory receipt for one
	// successful payment. Idempotent per payment.
	CreateReceiptForPayment(ctx context.Context, paymentID string) (*gstreceipt.Receipt, error)
}

type gstService struct {
	ServiceParams
}

func NewGSTService(params ServiceParams) GSTService {
	return &gstService{ServiceParams: params}
}

func (s *gstService) GenerateGSTInvoice(ctx context.Context, invoiceID string) (*dto.GSTInvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.TenantRepo.Get(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}

	billing := s.Config.Billing
	supplierGSTIN := billing.SupplierGSTIN

	lineItems := make([]dto.GSTLineItem, len(inv.LineItems))
	for i, li := range inv.LineItems {
		sac := li.SACCode
		if sac == "" {
			sac = tax.DefaultSACCode
		}
		lineItems[i] = dto.GSTLineItem{
			Description: li.Description,
			SACCode:     sac,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Amount:      li.Amount,
		}
	}

	resp := &dto.GSTInvoiceResponse{
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		Supplier: dto.GSTPartyBlock{
			Name:    billing.SupplierName,
			GSTIN:   &supplierGSTIN,
			State:   billing.SupplierState,
			Address: billing.SupplierAddress,
		},
		Recipient: dto.GSTPartyBlock{
			Name:    tenant.Name,
			GSTIN:   tenant.GSTIN,
			State:   tenant.State,
			Address: tenant.Address,
		},
		LineItems:      lineItems,
		Subtotal:       inv.Subtotal,
		DiscountAmount: inv.DiscountAmount,
		CGSTAmount:     inv.CGSTAmount,
		SGSTAmount:     inv.SGSTAmount,
		IGSTAmount:     inv.IGSTAmount,
		TotalAmount:    inv.TotalAmount,
		QRPayload: tax.QRPayload(
			supplierGSTIN, inv.InvoiceNumber, inv.InvoiceDate,
			inv.TotalAmount, inv.CGSTAmount, inv.SGSTAmount, inv.IGSTAmount,
		),
		AmountInWords: tax.NumberToWords(inv.TotalAmount),
		IRN:           inv.IRN,
		AckNumber:     inv.AckNumber,
		AckDate:       inv.AckDate,
	}
	return resp, nil
}

func (s *gstService) GenerateEInvoice(ctx context.Context, invoiceID string) (*dto.EInvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if inv.IRN != nil {
		return &dto.EInvoiceResponse{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			IRN:           *inv.IRN,
			AckNumber:     *inv.AckNumber,
			AckDate:       *inv.AckDate,
		}, nil
	}

	irn := tax.GenerateIRN(inv.InvoiceNumber, inv.InvoiceDate, inv.TotalAmount)
	ack := tax.GenerateAckNumber(irn)
	now := time.Now().UTC()

	inv.IRN = &irn
	inv.AckNumber = &ack
	inv.AckDate = &now
	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "invoice.einvoice_generated", "invoice", inv.ID, nil, map[string]interface{}{
		"invoice_number": inv.InvoiceNumber,
		"irn":            irn,
	})

	return &dto.EInvoiceResponse{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		IRN:           irn,
		AckNumber:     ack,
		AckDate:       now,
	}, nil
}

func (s *gstService) CreateReceiptForPayment(ctx context.Context, paymentID string) (*gstreceipt.Receipt, error) {
	if existing, err := s.GSTReceiptRepo.GetByPaymentID(ctx, paymentID); err == nil && existing != nil {
		return existing, nil
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	txn, err := s.PaymentRepo.GetTransaction(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !txn.IsSuccess() {
		return nil, ierr.NewError("receipts are issued only for successful payments").
			WithReportableDetails(map[string]interface{}{
				"payment_id":     txn.ID,
				"payment_status": string(txn.PaymentStatus),
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	inv, err := s.InvoiceRepo.Get(ctx, txn.InvoiceID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.TenantRepo.Get(ctx, inv.TenantID)
	if err != nil {
		return nil, err
	}

	billing := s.Config.Billing
	receipt := &gstreceipt.Receipt{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_GST_RECEIPT),
		InvoiceID:      inv.ID,
		PaymentID:      txn.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		SupplierGSTIN:  billing.SupplierGSTIN,
		RecipientGSTIN: tenant.GSTIN,
		TaxableAmount:  inv.Subtotal.Sub(inv.DiscountAmount),
		CGSTAmount:     inv.CGSTAmount,
		SGSTAmount:     inv.SGSTAmount,
		IGSTAmount:     inv.IGSTAmount,
		TotalAmount:    inv.TotalAmount,
		QRPayload: tax.QRPayload(
			billing.SupplierGSTIN, inv.InvoiceNumber, inv.InvoiceDate,
			inv.TotalAmount, inv.CGSTAmount, inv.SGSTAmount, inv.IGSTAmount,
		),
		AmountInWords: tax.NumberToWords(inv.TotalAmount),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if err := receipt.Validate(); err != nil {
		return nil, err
	}
	if err := s.GSTReceiptRepo.Create(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}
