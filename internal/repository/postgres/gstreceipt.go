package postgres

import (
	"context"

	"github.com/upbill/upbill/internal/domain/gstreceipt"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
)

type gstReceiptRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewGSTReceiptRepository(client postgres.IClient, log *logger.Logger) gstreceipt.Repository {
	return &gstReceiptRepository{client: client, log: log}
}

const receiptColumns = `id, invoice_id, payment_id, invoice_number, supplier_gstin, recipient_gstin,
	taxable_amount, cgst_amount, sgst_amount, igst_amount, total_amount,
	qr_payload, amount_in_words, tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *gstReceiptRepository) Create(ctx context.Context, rec *gstreceipt.Receipt) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO gst_receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		rec.ID, rec.InvoiceID, rec.PaymentID, rec.InvoiceNumber, rec.SupplierGSTIN, rec.RecipientGSTIN,
		rec.TaxableAmount, rec.CGSTAmount, rec.SGSTAmount, rec.IGSTAmount, rec.TotalAmount,
		rec.QRPayload, rec.AmountInWords,
		rec.TenantID, rec.Status, rec.CreatedAt, rec.UpdatedAt, rec.CreatedBy, rec.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "gst_receipts_payment_id_key") {
			return ierr.WithError(err).
				WithHint("A receipt already exists for this payment").
				WithReportableDetails(map[string]interface{}{
					"payment_id": rec.PaymentID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return dbErr(err, "Failed to create gst receipt")
	}
	return nil
}

func (r *gstReceiptRepository) GetByPaymentID(ctx context.Context, paymentID string) (*gstreceipt.Receipt, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+receiptColumns+`
		FROM gst_receipts
		WHERE payment_id = $1 AND status != $2`,
		paymentID, types.StatusDeleted,
	)
	return scanReceipt(row)
}

func (r *gstReceiptRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*gstreceipt.Receipt, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+receiptColumns+`
		FROM gst_receipts
		WHERE invoice_id = $1 AND status != $2
		ORDER BY created_at`,
		invoiceID, types.StatusDeleted,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list gst receipts")
	}
	defer rows.Close()

	var receipts []*gstreceipt.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "Failed to list gst receipts")
	}
	return receipts, nil
}

func scanReceipt(row rowScanner) (*gstreceipt.Receipt, error) {
	var rec gstreceipt.Receipt
	err := row.Scan(
		&rec.ID, &rec.InvoiceID, &rec.PaymentID, &rec.InvoiceNumber, &rec.SupplierGSTIN, &rec.RecipientGSTIN,
		&rec.TaxableAmount, &rec.CGSTAmount, &rec.SGSTAmount, &rec.IGSTAmount, &rec.TotalAmount,
		&rec.QRPayload, &rec.AmountInWords,
		&rec.TenantID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt, &rec.CreatedBy, &rec.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "gst receipt", rec.PaymentID)
	}
	return &rec, nil
}
