package tax

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateGSTIN(t *testing.T) {
	valid := []string{
		"27AAAAA0000A1Z5",
		"29AABCU9603R1ZM",
		"  29aabcu9603r1zm  ", // case and whitespace normalized
	}
	for _, g := range valid {
		assert.True(t, ValidateGSTIN(g), g)
	}

	invalid := []string{
		"",
		"27AAAAA0000A1Y5",   // missing the literal Z
		"2AAAAAA0000A1Z5",   // state code too short
		"27AAAAA000A1Z5",    // PAN digits short
		"27AAAAA0000A1Z5X",  // too long
		"27AAAA10000A1Z5",   // digit inside the PAN letters
	}
	for _, g := range invalid {
		assert.False(t, ValidateGSTIN(g), g)
	}
}

func TestStateCodeFromGSTIN(t *testing.T) {
	assert.Equal(t, "29", StateCodeFromGSTIN("29AABCU9603R1ZM"))
	assert.Equal(t, "", StateCodeFromGSTIN("2"))
}

func TestQRPayload(t *testing.T) {
	date := time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC)
	payload := QRPayload(
		"29AABCU9603R1ZM", "INV-2026-000042", date,
		decimal.RequireFromString("1178.82"),
		decimal.RequireFromString("89.91"),
		decimal.RequireFromString("89.91"),
		decimal.Zero,
	)
	assert.Equal(t, "29AABCU9603R1ZM~INV-2026-000042~2026-04-01~1178.82~89.91~89.91~0.00", payload)
}

func TestGenerateIRN(t *testing.T) {
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	total := decimal.RequireFromString("1178.82")

	first := GenerateIRN("INV-2026-000042", date, total)
	second := GenerateIRN("INV-2026-000042", date, total)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	other := GenerateIRN("INV-2026-000043", date, total)
	assert.NotEqual(t, first, other)
}

func TestGenerateAckNumber(t *testing.T) {
	irn := GenerateIRN("INV-2026-000042", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(100))

	ack := GenerateAckNumber(irn)
	assert.Len(t, ack, 15)
	for _, c := range ack {
		assert.True(t, c >= '0' && c <= '9')
	}
	assert.Equal(t, ack, GenerateAckNumber(irn))
}
