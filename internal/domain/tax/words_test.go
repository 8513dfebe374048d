package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNumberToWords(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"Zero", "0", "Zero Rupees Only"},
		{"SingleDigit", "7", "Seven Rupees Only"},
		{"Teens", "18", "Eighteen Rupees Only"},
		{"Hundreds", "999", "Nine Hundred Ninety Nine Rupees Only"},
		{"Thousands", "1178.82", "One Thousand One Hundred Seventy Eight Rupees and Eighty Two Paise Only"},
		{"Lakhs", "250000", "Two Lakh Fifty Thousand Rupees Only"},
		{"Crores", "12345678", "One Crore Twenty Three Lakh Forty Five Thousand Six Hundred Seventy Eight Rupees Only"},
		{"PaiseOnly", "0.50", "Zero Rupees and Fifty Paise Only"},
		{"SinglePaisa", "1.01", "One Rupees and One Paise Only"},
		{"NegativeTreatedAsAbsolute", "-25", "Twenty Five Rupees Only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.want, NumberToWords(amount))
		})
	}
}
