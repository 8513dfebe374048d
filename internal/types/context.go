package types

import "context"

type ContextKey string

const (
	CtxTenantID  ContextKey = "ctx_tenant_id"
	CtxUserID    ContextKey = "ctx_user_id"
	CtxRequestID ContextKey = "ctx_request_id"

	// DefaultUserID is recorded as the acting user for system-initiated
	// operations such as the renewal sweep.
	DefaultUserID = "system"
)

// SetTenantID returns a context carrying the tenant id.
func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, CtxTenantID, tenantID)
}

// SetUserID returns a context carrying the acting user id.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// GetTenantID extracts the tenant id from context, or "" when absent.
func GetTenantID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxTenantID).(string); ok {
		return v
	}
	return ""
}

// GetUserID extracts the acting user id from context, defaulting to system.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxUserID).(string); ok && v != "" {
		return v
	}
	return DefaultUserID
}

// GetRequestID extracts the request id from context, or "" when absent.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxRequestID).(string); ok {
		return v
	}
	return ""
}
