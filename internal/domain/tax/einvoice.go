package tax

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// gstinPattern is the structural shape of a GSTIN: 2-digit state code, the
// PAN (5 letters, 4 digits, 1 letter), an entity code character, a literal Z
// and a checksum character.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// ValidateGSTIN performs the structural check on a GSTIN. It does not verify
// the checksum digit against the registry.
func ValidateGSTIN(gstin string) bool {
	return gstinPattern.MatchString(strings.ToUpper(strings.TrimSpace(gstin)))
}

// StateCodeFromGSTIN extracts the two-digit state code prefix.
func StateCodeFromGSTIN(gstin string) string {
	if len(gstin) < 2 {
		return ""
	}
	return gstin[:2]
}

// QRPayload builds the tilde-delimited payload embedded in the invoice QR
// code: GSTIN~invoiceNumber~invoiceDate~totalAmount~cgst~sgst~igst, with
// amounts rendered to two decimals.
func QRPayload(gstin, invoiceNumber string, invoiceDate time.Time, total, cgst, sgst, igst decimal.Decimal) string {
	return strings.Join([]string{
		gstin,
		invoiceNumber,
		invoiceDate.Format("2006-01-02"),
		total.StringFixed(2),
		cgst.StringFixed(2),
		sgst.StringFixed(2),
		igst.StringFixed(2),
	}, "~")
}

// GenerateIRN produces the deterministic placeholder invoice reference
// number: a sha256 over invoice number, date and total. Real IRP submission
// is out of scope; only this contract is reproduced.
func GenerateIRN(invoiceNumber string, invoiceDate time.Time, total decimal.Decimal) string {
	seed := fmt.Sprintf("%s|%s|%s", invoiceNumber, invoiceDate.Format("2006-01-02"), total.StringFixed(2))
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// GenerateAckNumber derives the acknowledgment number for a placeholder IRN.
// It is the first 15 hex chars of the IRN reinterpreted as digits, which
// keeps it deterministic for a given invoice.
func GenerateAckNumber(irn string) string {
	digits := make([]byte, 0, 15)
	for i := 0; i < len(irn) && len(digits) < 15; i++ {
		c := irn[i]
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		} else {
			digits = append(digits, '0'+(c-'a')%10)
		}
	}
	return string(digits)
}
