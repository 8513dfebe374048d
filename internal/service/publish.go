package service

import (
	"context"
)

// publishWebhook emits a domain event after the primary transaction has
// committed. Failures are logged and never escalate: notification delivery
// is not part of the financial invariant.
func (p ServiceParams) publishWebhook(ctx context.Context, eventName string, payload interface{}) {
	if p.WebhookPublisher == nil {
		return
	}
	if err := p.WebhookPublisher.PublishWebhook(ctx, eventName, payload); err != nil {
		p.Logger.Warnw("failed to publish webhook event",
			"event_name", eventName,
			"error", err,
		)
	}
}

// logAudit records an audit event, fire-and-forget.
func (p ServiceParams) logAudit(ctx context.Context, action, resourceType, resourceID string, oldValues, newValues map[string]interface{}) {
	if p.AuditLogger == nil {
		return
	}
	p.AuditLogger.LogAuditEvent(ctx, action, resourceType, resourceID, oldValues, newValues)
}
