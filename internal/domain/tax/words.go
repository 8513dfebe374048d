package tax

import (
	"strings"

	"github.com/shopspring/decimal"
)

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// twoDigitWords renders 0..99.
func twoDigitWords(n int64) string {
	if n < 20 {
		return onesWords[n]
	}
	word := tensWords[n/10]
	if n%10 > 0 {
		word += " " + onesWords[n%10]
	}
	return word
}

// threeDigitWords renders 0..999.
func threeDigitWords(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, onesWords[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, twoDigitWords(n))
	}
	return strings.Join(parts, " ")
}

// integerToWords renders a non-negative integer in the Indian numbering
// system: crore (10^7), lakh (10^5), thousand, hundred, then ones.
func integerToWords(n int64) string {
	if n == 0 {
		return "Zero"
	}

	var parts []string
	if n >= 1_00_00_000 {
		parts = append(parts, integerToWords(n/1_00_00_000)+" Crore")
		n %= 1_00_00_000
	}
	if n >= 1_00_000 {
		parts = append(parts, twoDigitWords(n/1_00_000)+" Lakh")
		n %= 1_00_000
	}
	if n >= 1_000 {
		parts = append(parts, twoDigitWords(n/1_000)+" Thousand")
		n %= 1_000
	}
	if n > 0 {
		parts = append(parts, threeDigitWords(n))
	}
	return strings.Join(parts, " ")
}

// NumberToWords renders a rupee amount as the statutory amount-in-words
// phrase, e.g. "One Thousand One Hundred Seventy Eight Rupees and Eighty Two
// Paise Only". The paise clause is omitted when zero.
func NumberToWords(amount decimal.Decimal) string {
	if amount.IsNegative() {
		amount = amount.Abs()
	}

	rupees := amount.IntPart()
	paise := amount.Sub(decimal.NewFromInt(rupees)).Mul(hundred).Round(0).IntPart()
	if paise >= 100 {
		rupees++
		paise -= 100
	}

	words := integerToWords(rupees) + " Rupees"
	if paise > 0 {
		words += " and " + integerToWords(paise) + " Paise"
	}
	return words + " Only"
}
