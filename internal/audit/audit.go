package audit

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/types"
)

// Event is the audit trail record emitted on every state-changing operation.
// Persistence of these events is an external collaborator; this package only
// hands them off.
type Event struct {
	ID           string                 `json:"id"`
	TenantID     string                 `json:"tenant_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	OldValues    map[string]interface{} `json:"old_values,omitempty"`
	NewValues    map[string]interface{} `json:"new_values,omitempty"`
	ActorID      string                 `json:"actor_id"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Logger is the audit collaborator contract. LogAuditEvent is fire-and-
// forget: it must never block or fail the calling transaction.
type Logger interface {
	LogAuditEvent(ctx context.Context, action, resourceType, resourceID string, oldValues, newValues map[string]interface{})
}

// Sink receives audit events for persistence elsewhere.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

type auditLogger struct {
	sink   Sink
	logger *logger.Logger
}

// NewLogger builds the default audit logger delivering to the given sink
// with bounded retries in the background.
func NewLogger(sink Sink, log *logger.Logger) Logger {
	return &auditLogger{sink: sink, logger: log}
}

func (a *auditLogger) LogAuditEvent(ctx context.Context, action, resourceType, resourceID string, oldValues, newValues map[string]interface{}) {
	e := Event{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUDIT_EVENT),
		TenantID:     types.GetTenantID(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    oldValues,
		NewValues:    newValues,
		ActorID:      types.GetUserID(ctx),
		Timestamp:    time.Now().UTC(),
	}

	// Delivery runs detached from the caller's context so a committed
	// transaction is never rolled back or delayed by audit failures.
	go func() {
		bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		err := backoff.Retry(func() error {
			return a.sink.Deliver(context.Background(), e)
		}, bo)
		if err != nil {
			a.logger.Warnw("audit event delivery failed",
				"action", e.Action,
				"resource_type", e.ResourceType,
				"resource_id", e.ResourceID,
				"error", err,
			)
		}
	}()
}

// LogSink writes audit events to the application log. It stands in for the
// real audit store in tests and local runs.
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Deliver(_ context.Context, e Event) error {
	s.logger.Infow("audit event",
		"tenant_id", e.TenantID,
		"action", e.Action,
		"resource_type", e.ResourceType,
		"resource_id", e.ResourceID,
		"actor_id", e.ActorID,
	)
	return nil
}
