package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope namespaces idempotency keys per operation kind.
type Scope string

const (
	// ScopeRenewal dedupes renewal invoices on (subscription_id, period_start).
	ScopeRenewal Scope = "renewal"
	// ScopePayment dedupes reconciliation on the gateway transaction id.
	ScopePayment Scope = "payment"
)

// Generator produces deterministic idempotency keys from structured data.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey builds a sha256 key from the scope and sorted key data. The
// same inputs always yield the same key, which is what makes retries safe.
func (g *Generator) GenerateKey(scope Scope, data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, data[k]))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
