package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/upbill/upbill/internal/domain/invoice"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/postgres"
	"github.com/upbill/upbill/internal/types"
)

type invoiceRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewInvoiceRepository(client postgres.IClient, log *logger.Logger) invoice.Repository {
	return &invoiceRepository{client: client, log: log}
}

const invoiceColumns = `id, subscription_id, invoice_number, idempotency_key,
	invoice_date, due_date, period_start, period_end,
	subtotal, discount_amount, cgst_amount, sgst_amount, igst_amount, total_amount, amount_paid, currency,
	payment_status, invoice_status, paid_at, billing_reason, irn, ack_number, ack_date, metadata,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const lineItemColumns = `id, invoice_id, description, quantity, unit_price, amount,
	meter_id, sac_code, period_start, period_end, metadata,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *invoiceRepository) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	meta, err := marshalMetadata(inv.Metadata)
	if err != nil {
		return err
	}

	q := r.client.Querier(ctx)
	_, err = q.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`,
		inv.ID, inv.SubscriptionID, inv.InvoiceNumber, inv.IdempotencyKey,
		inv.InvoiceDate, inv.DueDate, inv.PeriodStart, inv.PeriodEnd,
		inv.Subtotal, inv.DiscountAmount, inv.CGSTAmount, inv.SGSTAmount, inv.IGSTAmount,
		inv.TotalAmount, inv.AmountPaid, inv.Currency,
		inv.PaymentStatus, inv.InvoiceStatus, inv.PaidAt, inv.BillingReason,
		inv.IRN, inv.AckNumber, inv.AckDate, meta,
		inv.TenantID, inv.Status, inv.CreatedAt, inv.UpdatedAt, inv.CreatedBy, inv.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "invoices_invoice_number_key") {
			return ierr.WithError(err).
				WithHint("Invoice number was already allocated").
				WithReportableDetails(map[string]interface{}{
					"invoice_number": inv.InvoiceNumber,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		return dbErr(err, "Failed to create invoice")
	}

	for _, li := range inv.LineItems {
		liMeta, err := marshalMetadata(li.Metadata)
		if err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO invoice_line_items (`+lineItemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			li.ID, li.InvoiceID, li.Description, li.Quantity, li.UnitPrice, li.Amount,
			li.MeterID, li.SACCode, li.PeriodStart, li.PeriodEnd, liMeta,
			li.TenantID, li.Status, li.CreatedAt, li.UpdatedAt, li.CreatedBy, li.UpdatedBy,
		)
		if err != nil {
			return dbErr(err, "Failed to create invoice line item")
		}
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadLineItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	if r.client.TxFromContext(ctx) == nil {
		return nil, ierr.NewError("GetForUpdate must run inside a transaction").
			Mark(ierr.ErrInternal)
	}

	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1 AND status != $2
		FOR UPDATE`,
		id, types.StatusDeleted,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadLineItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepository) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE idempotency_key = $1 AND status != $2`,
		key, types.StatusDeleted,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadLineItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	meta, err := marshalMetadata(inv.Metadata)
	if err != nil {
		return err
	}
	inv.UpdatedAt = time.Now().UTC()

	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE invoices SET
			discount_amount = $2, total_amount = $3, amount_paid = $4,
			payment_status = $5, invoice_status = $6, paid_at = $7,
			irn = $8, ack_number = $9, ack_date = $10,
			metadata = $11, status = $12, updated_at = $13, updated_by = $14
		WHERE id = $1`,
		inv.ID, inv.DiscountAmount, inv.TotalAmount, inv.AmountPaid,
		inv.PaymentStatus, inv.InvoiceStatus, inv.PaidAt,
		inv.IRN, inv.AckNumber, inv.AckDate,
		meta, inv.Status, inv.UpdatedAt, inv.UpdatedBy,
	)
	if err != nil {
		return dbErr(err, "Failed to update invoice")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(errNoRows, "invoice", inv.ID)
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *invoice.Filter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = invoice.NewFilter()
	}

	query, args := r.buildListQuery(ctx, `SELECT `+invoiceColumns+` FROM invoices`, filter)
	args = append(args, filter.GetLimit(), filter.GetOffset())
	query += fmt.Sprintf(" ORDER BY invoice_date DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.client.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(err, "Failed to list invoices")
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "Failed to list invoices")
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *invoice.Filter) (int, error) {
	if filter == nil {
		filter = invoice.NewFilter()
	}

	query, args := r.buildListQuery(ctx, `SELECT COUNT(*) FROM invoices`, filter)
	var count int
	if err := r.client.Querier(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, dbErr(err, "Failed to count invoices")
	}
	return count, nil
}

func (r *invoiceRepository) buildListQuery(ctx context.Context, base string, filter *invoice.Filter) (string, []interface{}) {
	query := base + ` WHERE tenant_id = $1 AND status != $2`
	args := []interface{}{types.GetTenantID(ctx), types.StatusDeleted}

	appendIn := func(column string, values []interface{}) {
		placeholders := ""
		for i, v := range values {
			args = append(args, v)
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", len(args))
		}
		query += " AND " + column + " IN (" + placeholders + ")"
	}

	if len(filter.SubscriptionIDs) > 0 {
		vals := make([]interface{}, len(filter.SubscriptionIDs))
		for i, v := range filter.SubscriptionIDs {
			vals[i] = v
		}
		appendIn("subscription_id", vals)
	}
	if len(filter.InvoiceStatuses) > 0 {
		vals := make([]interface{}, len(filter.InvoiceStatuses))
		for i, v := range filter.InvoiceStatuses {
			vals[i] = v
		}
		appendIn("invoice_status", vals)
	}
	if len(filter.PaymentStatuses) > 0 {
		vals := make([]interface{}, len(filter.PaymentStatuses))
		for i, v := range filter.PaymentStatuses {
			vals[i] = v
		}
		appendIn("payment_status", vals)
	}
	return query, args
}

func (r *invoiceRepository) MaxInvoiceNumber(ctx context.Context, prefix string) (string, error) {
	var number sql.NullString
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT MAX(invoice_number)
		FROM invoices
		WHERE invoice_number LIKE $1 || '-%'`,
		prefix,
	).Scan(&number)
	if err != nil {
		return "", dbErr(err, "Failed to read max invoice number")
	}
	return number.String, nil
}

func (r *invoiceRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*invoice.Invoice, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE invoice_status = $1
		  AND payment_status IN ($2, $3)
		  AND due_date < $4
		  AND status != $5
		ORDER BY due_date`,
		types.InvoiceStatusPending,
		types.InvoicePaymentStatusUnpaid, types.InvoicePaymentStatusPartial,
		asOf, types.StatusDeleted,
	)
	if err != nil {
		return nil, dbErr(err, "Failed to list overdue invoices")
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "Failed to list overdue invoices")
	}
	return invoices, nil
}

func (r *invoiceRepository) loadLineItems(ctx context.Context, inv *invoice.Invoice) error {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+lineItemColumns+`
		FROM invoice_line_items
		WHERE invoice_id = $1 AND status != $2
		ORDER BY created_at`,
		inv.ID, types.StatusDeleted,
	)
	if err != nil {
		return dbErr(err, "Failed to load invoice line items")
	}
	defer rows.Close()

	for rows.Next() {
		var li invoice.LineItem
		var meta []byte
		err := rows.Scan(
			&li.ID, &li.InvoiceID, &li.Description, &li.Quantity, &li.UnitPrice, &li.Amount,
			&li.MeterID, &li.SACCode, &li.PeriodStart, &li.PeriodEnd, &meta,
			&li.TenantID, &li.Status, &li.CreatedAt, &li.UpdatedAt, &li.CreatedBy, &li.UpdatedBy,
		)
		if err != nil {
			return dbErr(err, "Failed to scan invoice line item")
		}
		if li.Metadata, err = unmarshalMetadata(meta); err != nil {
			return err
		}
		inv.LineItems = append(inv.LineItems, &li)
	}
	return rows.Err()
}

func scanInvoice(row rowScanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	var meta []byte
	err := row.Scan(
		&inv.ID, &inv.SubscriptionID, &inv.InvoiceNumber, &inv.IdempotencyKey,
		&inv.InvoiceDate, &inv.DueDate, &inv.PeriodStart, &inv.PeriodEnd,
		&inv.Subtotal, &inv.DiscountAmount, &inv.CGSTAmount, &inv.SGSTAmount, &inv.IGSTAmount,
		&inv.TotalAmount, &inv.AmountPaid, &inv.Currency,
		&inv.PaymentStatus, &inv.InvoiceStatus, &inv.PaidAt, &inv.BillingReason,
		&inv.IRN, &inv.AckNumber, &inv.AckDate, &meta,
		&inv.TenantID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt, &inv.CreatedBy, &inv.UpdatedBy,
	)
	if err != nil {
		return nil, notFound(err, "invoice", inv.ID)
	}
	if inv.Metadata, err = unmarshalMetadata(meta); err != nil {
		return nil, err
	}
	return &inv, nil
}
