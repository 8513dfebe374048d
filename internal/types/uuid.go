package types

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entity id prefixes. Every row id is a prefixed ULID so ids are sortable by
// creation time and self-describing in logs.
const (
	UUID_PREFIX_TENANT              = "tenant"
	UUID_PREFIX_PLAN                = "plan"
	UUID_PREFIX_SUBSCRIPTION        = "subs"
	UUID_PREFIX_INVOICE             = "inv"
	UUID_PREFIX_INVOICE_LINE_ITEM   = "inv_line"
	UUID_PREFIX_USAGE_METER         = "meter"
	UUID_PREFIX_USAGE_EVENT         = "usage"
	UUID_PREFIX_COUPON              = "coupon"
	UUID_PREFIX_COUPON_REDEMPTION   = "redemption"
	UUID_PREFIX_PAYMENT_TRANSACTION = "payment"
	UUID_PREFIX_REFUND              = "refund"
	UUID_PREFIX_PARTNER             = "partner"
	UUID_PREFIX_COMMISSION          = "comm"
	UUID_PREFIX_GST_RECEIPT         = "gstr"
	UUID_PREFIX_WEBHOOK_EVENT       = "webhook"
	UUID_PREFIX_AUDIT_EVENT         = "audit"
)

// GenerateUUID returns a lowercase ULID.
func GenerateUUID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

// GenerateUUIDWithPrefix returns a prefixed ULID, e.g. "inv_01H...".
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
