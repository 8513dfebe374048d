package tax

import (
	"github.com/shopspring/decimal"
)

// DefaultGSTRatePercent is the standard rate for software services.
const DefaultGSTRatePercent = 18

// DefaultSACCode is the services accounting code for software and
// subscription services.
const DefaultSACCode = "998314"

var hundred = decimal.NewFromInt(100)

// GSTBreakup is the statutory tax split of a taxable amount. Exactly one of
// (CGST+SGST) or IGST is nonzero, never both: intra-state supply splits the
// rate into central and state halves, inter-state supply levies integrated
// tax at the full rate.
type GSTBreakup struct {
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	CGST          decimal.Decimal `json:"cgst"`
	SGST          decimal.Decimal `json:"sgst"`
	IGST          decimal.Decimal `json:"igst"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	Total         decimal.Decimal `json:"total"`
}

// IsInterState reports whether the split is an inter-state supply.
func (b GSTBreakup) IsInterState() bool {
	return b.IGST.IsPositive()
}

// CalculateGST computes the GST split for a taxable amount. supplierState and
// recipientState are two-letter state codes; equal states mean intra-state
// supply. All amounts are rounded to currency precision (2 places) at the
// source so downstream sums stay money-conserving.
func CalculateGST(amount decimal.Decimal, supplierState, recipientState string, ratePercent decimal.Decimal) GSTBreakup {
	b := GSTBreakup{
		TaxableAmount: amount.Round(2),
		CGST:          decimal.Zero,
		SGST:          decimal.Zero,
		IGST:          decimal.Zero,
	}

	if supplierState == recipientState {
		half := amount.Mul(ratePercent).Div(decimal.NewFromInt(2)).Div(hundred).Round(2)
		b.CGST = half
		b.SGST = half
	} else {
		b.IGST = amount.Mul(ratePercent).Div(hundred).Round(2)
	}

	b.TotalTax = b.CGST.Add(b.SGST).Add(b.IGST)
	b.Total = b.TaxableAmount.Add(b.TotalTax)
	return b
}
