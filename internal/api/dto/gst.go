package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// GSTPartyBlock is the supplier or recipient block on a statutory invoice.
type GSTPartyBlock struct {
	Name    string  `json:"name"`
	GSTIN   *string `json:"gstin,omitempty"`
	State   string  `json:"state"`
	Address string  `json:"address,omitempty"`
}

// GSTLineItem is a statutory invoice line with its HSN/SAC code.
type GSTLineItem struct {
	Description string          `json:"description"`
	SACCode     string          `json:"sac_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// GSTInvoiceResponse is the read-only statutory view of a finalized invoice.
type GSTInvoiceResponse struct {
	InvoiceNumber string        `json:"invoice_number"`
	InvoiceDate   time.Time     `json:"invoice_date"`
	Supplier      GSTPartyBlock `json:"supplier"`
	Recipient     GSTPartyBlock `json:"recipient"`
	LineItems     []GSTLineItem `json:"line_items"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CGSTAmount     decimal.Decimal `json:"cgst_amount"`
	SGSTAmount     decimal.Decimal `json:"sgst_amount"`
	IGSTAmount     decimal.Decimal `json:"igst_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`

	QRPayload     string `json:"qr_payload"`
	AmountInWords string `json:"amount_in_words"`

	// E-invoice block, present once generated.
	IRN       *string    `json:"irn,omitempty"`
	AckNumber *string    `json:"ack_number,omitempty"`
	AckDate   *time.Time `json:"ack_date,omitempty"`
}

// EInvoiceResponse is the deterministic placeholder e-invoice acknowledgment.
type EInvoiceResponse struct {
	InvoiceID     string    `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	IRN           string    `json:"irn"`
	AckNumber     string    `json:"ack_number"`
	AckDate       time.Time `json:"ack_date"`
}
