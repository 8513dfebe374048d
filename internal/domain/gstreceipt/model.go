package gstreceipt

import (
	"github.com/shopspring/decimal"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// Receipt is the append-only statutory record generated once per successful
// payment. It freezes the tax split and QR payload as they stood at payment
// time, independent of later invoice mutations.
type Receipt struct {
	ID             string  `json:"id"`
	InvoiceID      string  `json:"invoice_id"`
	PaymentID      string  `json:"payment_id"`
	InvoiceNumber  string  `json:"invoice_number"`
	SupplierGSTIN  string  `json:"supplier_gstin"`
	RecipientGSTIN *string `json:"recipient_gstin,omitempty"`

	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	CGSTAmount    decimal.Decimal `json:"cgst_amount"`
	SGSTAmount    decimal.Decimal `json:"sgst_amount"`
	IGSTAmount    decimal.Decimal `json:"igst_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`

	QRPayload     string `json:"qr_payload"`
	AmountInWords string `json:"amount_in_words"`
	types.BaseModel
}

func (r *Receipt) Validate() error {
	if r.InvoiceID == "" || r.PaymentID == "" {
		return ierr.NewError("invoice_id and payment_id are required").
			Mark(ierr.ErrValidation)
	}
	if r.SupplierGSTIN == "" {
		return ierr.NewError("supplier_gstin is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}
