package postgres

import (
	"context"
	"database/sql"

	"github.com/upbill/upbill/internal/domain/payment"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
)

type paymentRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewPaymentRepository(client postgres.IClient, log *logger.Logger) payment.Repository {
	return &paymentRepository{client: client, log: log}
}

const transactionColumns = `id, invoice_id, gateway, gateway_order_id, gateway_transaction_id,
	gateway_signature, amount, currency, payment_method, payment_status, failure_reason,
	completed_at, metadata, tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *paymentRepository) CreateTransaction(ctx context.Context, t *payment.Transaction) error {
	meta, err := marshalMetadata(t.Metadata)
	if err != nil {
		return err
	}

	_, err = r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO payment_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		t.ID, t.InvoiceID, t.Gateway, t.GatewayOrderID, t.GatewayTransactionID,
		t.GatewaySignature, t.Amount, t.Currency, t.PaymentMethod, t.PaymentStatus, t.FailureReason,
		t.CompletedAt, meta, t.TenantID, t.Status, t.CreatedAt, t.UpdatedAt, t.CreatedBy, t.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "payment_transactions_gateway_transaction_id_key") {
			return ierr.WithError(err).
				WithHint("This gateway transaction has already been recorded").
				WithReportableDetails(map[string]interface{}{
					"gateway_transaction_id": t.GatewayTransactionID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return dbErr(err, "Failed to create payment transaction")
	}
	return nil
}

func (r *paymentRepository) GetTransaction(ctx context.Context, id string) (*payment.Transaction, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM payment_transactions
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanTransaction(row)
}

func (r *paymentRepository) GetByGatewayTransactionID(ctx context.Context, gatewayTxnID string) (*payment.Transaction, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM payment_transactions
		WHERE gateway_transaction_id = $1 AND status != $2`,
		gatewayTxnID, types.StatusDeleted,
	)
	return scanTransaction(row)
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.Transaction, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM payment_transactions
		WHERE invoice_id = $1 AND status != $2
		ORDER BY created_at`,
		invoiceID, types.StatusDeleted,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list payments for invoice")
	}
	return scanTransactions(rows)
}

func (r *paymentRepository) ListSuccessfulWithoutCommission(ctx context.Context, limit int) ([]*payment.Transaction, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM payment_transactions pt
		WHERE pt.payment_status = $1
		  AND pt.status != $2
		  AND NOT EXISTS (
			SELECT 1 FROM commissions c WHERE c.payment_id = pt.id AND c.status != $2
		  )
		ORDER BY pt.created_at
		LIMIT $3`,
		types.PaymentStatusSuccess, types.StatusDeleted, limit,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list payments without commission")
	}
	return scanTransactions(rows)
}

const refundColumns = `id, transaction_id, amount, refund_type, reason, refund_status,
	requested_by, gateway_refund_id, tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *paymentRepository) CreateRefund(ctx context.Context, ref *payment.Refund) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO refunds (`+refundColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		ref.ID, ref.TransactionID, ref.Amount, ref.RefundType, ref.Reason, ref.RefundStatus,
		ref.RequestedBy, ref.GatewayRefundID,
		ref.TenantID, ref.Status, ref.CreatedAt, ref.UpdatedAt, ref.CreatedBy, ref.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to create refund")
	}
	return nil
}

func (r *paymentRepository) GetRefund(ctx context.Context, id string) (*payment.Refund, error) {
	var ref payment.Refund
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+refundColumns+`
		FROM refunds
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	).Scan(
		&ref.ID, &ref.TransactionID, &ref.Amount, &ref.RefundType, &ref.Reason, &ref.RefundStatus,
		&ref.RequestedBy, &ref.GatewayRefundID,
		&ref.TenantID, &ref.Status, &ref.CreatedAt, &ref.UpdatedAt, &ref.CreatedBy, &ref.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "refund", id)
	}
	return &ref, nil
}

func scanTransaction(row rowScanner) (*payment.Transaction, error) {
	var t payment.Transaction
	var meta []byte
	err := row.Scan(
		&t.ID, &t.InvoiceID, &t.Gateway, &t.GatewayOrderID, &t.GatewayTransactionID,
		&t.GatewaySignature, &t.Amount, &t.Currency, &t.PaymentMethod, &t.PaymentStatus, &t.FailureReason,
		&t.CompletedAt, &meta, &t.TenantID, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy, &t.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "payment", t.ID)
	}
	if t.Metadata, err = unmarshalMetadata(meta); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTransactions(rows *sql.Rows) ([]*payment.Transaction, error) {
	defer rows.Close()
	var txns []*payment.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "Failed to scan payment transactions")
	}
	return txns, nil
}
