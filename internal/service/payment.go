package service

import (
	"context"
	"time"

	"github.com/upbill/upbill/internal/api/dto"
	"github.com/upbill/upbill/internal/domain/invoice"
	"github.com/upbill/upbill/internal/domain/payment"
	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
	webhookDto "github.com/upbill/upbill/internal/webhook/dto"
)

// PaymentService reconciles gateway payment outcomes against invoices and
// handles refund requests. Reconciliation is idempotent on the gateway
// transaction id: replaying a callback never double-counts amount_paid.
type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, req dto.CreatePaymentOrderRequest) (*dto.PaymentOrderResponse, error)
	ProcessPayment(ctx context.Context, req dto.ProcessPaymentRequest) (*dto.PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
	RequestRefund(ctx context.Context, req dto.RequestRefundRequest) (*dto.RefundResponse, error)
}

type paymentService struct {
	ServiceParams
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{ServiceParams: params}
}

func (s *paymentService) CreatePaymentOrder(ctx context.Context, req dto.CreatePaymentOrderRequest) (*dto.PaymentOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	amountDue := inv.AmountDue()
	if !amountDue.IsPositive() {
		return nil, ierr.NewError("invoice has no outstanding balance").
			WithHint("The invoice is already fully paid").
			WithReportableDetails(map[string]interface{}{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	order, err := s.Gateway.CreateOrder(ctx, amountDue, inv.Currency, inv.InvoiceNumber)
	if err != nil {
		return nil, err
	}

	return &dto.PaymentOrderResponse{
		OrderID:   order.OrderID,
		InvoiceID: inv.ID,
		Amount:    amountDue,
		Currency:  inv.Currency,
	}, nil
}

func (s *paymentService) ProcessPayment(ctx context.Context, req dto.ProcessPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Idempotency pre-check; the unique constraint on the gateway
	// transaction id is the authoritative guard under concurrency.
	if req.GatewayTransactionID != nil {
		if existing, err := s.PaymentRepo.GetByGatewayTransactionID(ctx, *req.GatewayTransactionID); err == nil && existing != nil {
			return nil, ierr.NewError("payment already processed").
				WithHint("This gateway transaction has already been reconciled").
				WithReportableDetails(map[string]interface{}{
					"gateway_transaction_id": *req.GatewayTransactionID,
					"payment_id":             existing.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		} else if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	inv, err := s.InvoiceRepo.Get(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	if req.PaymentStatus == types.PaymentStatusSuccess &&
		req.GatewayOrderID != nil && req.GatewayTransactionID != nil && req.GatewaySignature != nil {
		if !s.Gateway.VerifySignature(*req.GatewayOrderID, *req.GatewayTransactionID, *req.GatewaySignature) {
			return nil, ierr.NewError("gateway signature verification failed").
				WithHint("The payment callback could not be authenticated").
				WithReportableDetails(map[string]interface{}{
					"gateway_order_id": *req.GatewayOrderID,
				}).
				Mark(ierr.ErrPermissionDenied)
		}
	}

	now := time.Now().UTC()
	txn := &payment.Transaction{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_TRANSACTION),
		InvoiceID:            inv.ID,
		Gateway:              req.Gateway,
		GatewayOrderID:       req.GatewayOrderID,
		GatewayTransactionID: req.GatewayTransactionID,
		GatewaySignature:     req.GatewaySignature,
		Amount:               req.Amount,
		Currency:             inv.Currency,
		PaymentMethod:        req.PaymentMethod,
		PaymentStatus:        req.PaymentStatus,
		FailureReason:        req.FailureReason,
		Metadata:             req.Metadata,
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}
	if txn.IsSuccess() {
		txn.CompletedAt = &now
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	// Failed attempts are recorded too; only successes mutate the invoice.
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.PaymentRepo.CreateTransaction(txCtx, txn); err != nil {
			return err
		}
		if txn.IsSuccess() {
			// Re-read under a row lock: the pre-transaction read may be
			// stale when two payments reconcile concurrently.
			locked, err := s.InvoiceRepo.GetForUpdate(txCtx, inv.ID)
			if err != nil {
				return err
			}
			locked.RecordPayment(txn.Amount, now)
			if err := locked.Validate(); err != nil {
				return err
			}
			if err := s.InvoiceRepo.Update(txCtx, locked); err != nil {
				return err
			}
			inv = locked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterReconciliation(ctx, txn, inv)

	resp := dto.NewPaymentResponse(txn)
	resp.Invoice = dto.NewInvoiceResponse(inv)
	return resp, nil
}

// afterReconciliation runs the side effects of a reconciled payment. All of
// them are best-effort: the financial transaction has already committed and
// is never rolled back for a failed notification, receipt or commission.
func (s *paymentService) afterReconciliation(ctx context.Context, txn *payment.Transaction, inv *invoice.Invoice) {
	event := webhookDto.InternalPaymentEvent{
		TenantID:   txn.TenantID,
		InvoiceID:  inv.ID,
		PaymentID:  txn.ID,
		Amount:     txn.Amount,
		Currency:   txn.Currency,
		Gateway:    string(txn.Gateway),
		OccurredAt: time.Now().UTC(),
	}

	if !txn.IsSuccess() {
		event.EventType = types.WebhookEventPaymentFailed
		if txn.FailureReason != nil {
			event.FailureReason = *txn.FailureReason
		}
		s.publishWebhook(ctx, types.WebhookEventPaymentFailed, event)
		return
	}

	event.EventType = types.WebhookEventPaymentSuccess
	s.publishWebhook(ctx, types.WebhookEventPaymentSuccess, event)

	s.logAudit(ctx, "payment.reconciled", "payment", txn.ID, nil, map[string]interface{}{
		"invoice_id":     inv.ID,
		"amount":         txn.Amount.String(),
		"payment_status": string(inv.PaymentStatus),
	})

	if _, err := NewCommissionService(s.ServiceParams).CalculateForPayment(ctx, txn); err != nil {
		s.Logger.Errorw("commission calculation failed after payment",
			"payment_id", txn.ID,
			"error", err,
		)
	}
	if _, err := NewGSTService(s.ServiceParams).CreateReceiptForPayment(ctx, txn.ID); err != nil {
		s.Logger.Errorw("gst receipt generation failed after payment",
			"payment_id", txn.ID,
			"error", err,
		)
	}
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	txn, err := s.PaymentRepo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentResponse(txn), nil
}

func (s *paymentService) RequestRefund(ctx context.Context, req dto.RequestRefundRequest) (*dto.RefundResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	txn, err := s.PaymentRepo.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if !txn.IsSuccess() {
		return nil, ierr.NewError("only successful payments can be refunded").
			WithReportableDetails(map[string]interface{}{
				"transaction_id": txn.ID,
				"payment_status": string(txn.PaymentStatus),
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if req.Amount.GreaterThan(txn.Amount) {
		return nil, ierr.NewError("refund amount exceeds the payment amount").
			WithReportableDetails(map[string]interface{}{
				"refund_amount":  req.Amount.String(),
				"payment_amount": txn.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	refundType := types.RefundTypePartial
	if req.Amount.Equal(txn.Amount) {
		refundType = types.RefundTypeFull
	}

	refund := &payment.Refund{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REFUND),
		TransactionID: txn.ID,
		Amount:        req.Amount,
		RefundType:    refundType,
		Reason:        req.Reason,
		RefundStatus:  types.RefundStatusRequested,
		RequestedBy:   types.GetUserID(ctx),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if err := refund.Validate(); err != nil {
		return nil, err
	}
	if err := s.PaymentRepo.CreateRefund(ctx, refund); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "refund.requested", "refund", refund.ID, nil, map[string]interface{}{
		"transaction_id": txn.ID,
		"amount":         refund.Amount.String(),
		"refund_type":    string(refund.RefundType),
	})
	return dto.NewRefundResponse(refund), nil
}
