package types

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// LockScope identifies the contended resource a database advisory lock
// protects.
type LockScope string

const (
	// LockScopeInvoiceNumber serializes invoice number allocation. Numbers
	// form a single sequence across tenants, so this lock is global.
	LockScopeInvoiceNumber LockScope = "invoice_number"
)

// GenerateLockKey builds a deterministic lock key from a scope and parameters.
// The tenant id from context is always part of the key so locks never contend
// across tenants. Postgres hashes the string internally (hashtext).
func GenerateLockKey(ctx context.Context, scope LockScope, params map[string]interface{}) string {
	merged := make(map[string]interface{}, len(params)+1)
	if tenantID := GetTenantID(ctx); tenantID != "" {
		merged["tenant_id"] = tenantID
	}
	for k, v := range params {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, merged[k]))
	}
	return b.String()
}

// GenerateGlobalLockKey builds a lock key without the tenant id, for
// resources shared across tenants such as the invoice number sequence.
func GenerateGlobalLockKey(scope LockScope, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}
	return b.String()
}
