package usage

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/types"
)

// Meter is a per-tenant named usage counter. A meter is created lazily on
// first use with no unit price; until a price is configured its usage is
// never billed.
type Meter struct {
	ID            string           `json:"id"`
	MeterType     string           `json:"meter_type"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	IncludedUnits decimal.Decimal  `json:"included_units"`
	types.BaseModel
}

// IsBillable reports whether the meter has a configured unit price.
func (m *Meter) IsBillable() bool {
	return m.UnitPrice != nil && m.UnitPrice.IsPositive()
}

func (m *Meter) Validate() error {
	if m.MeterType == "" {
		return ierr.NewError("meter_type is required").Mark(ierr.ErrValidation)
	}
	if m.UnitPrice != nil && m.UnitPrice.IsNegative() {
		return ierr.NewError("unit_price must be non-negative").Mark(ierr.ErrValidation)
	}
	if m.IncludedUnits.IsNegative() {
		return ierr.NewError("included_units must be non-negative").Mark(ierr.ErrValidation)
	}
	return nil
}

// Event is an immutable usage record. IsBilled and BilledInInvoiceID are set
// exactly once, inside the invoice-generation transaction.
type Event struct {
	ID                string          `json:"id"`
	MeterID           string          `json:"meter_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	Timestamp         time.Time       `json:"timestamp"`
	IsBilled          bool            `json:"is_billed"`
	BilledInInvoiceID *string         `json:"billed_in_invoice_id,omitempty"`
	Metadata          types.Metadata  `json:"metadata,omitempty"`
	types.BaseModel
}

func (e *Event) Validate() error {
	if e.MeterID == "" {
		return ierr.NewError("meter_id is required").Mark(ierr.ErrValidation)
	}
	if !e.Quantity.IsPositive() {
		return ierr.NewError("quantity must be positive").
			WithHint("Usage quantity must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// MeterCharge is one meter's contribution to an invoice: the overage after
// subtracting included units, priced at the meter's unit price.
type MeterCharge struct {
	Meter         *Meter          `json:"meter"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	BilledUnits   decimal.Decimal `json:"billed_units"`
	Amount        decimal.Decimal `json:"amount"`
	EventIDs      []string        `json:"event_ids"`
}
