package webhook

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	ierr "github.com/upbill/upbill/internal/errors"
	"github.com/upbill/upbill/internal/logger"
	"github.com/upbill/upbill/internal/pubsub"
	"github.com/upbill/upbill/internal/types"
)

// Publisher emits domain events for the notification dispatcher. Publishing
// happens after the primary transaction commits; a publish failure is logged
// by the caller and never escalates into the financial write.
type Publisher interface {
	PublishWebhook(ctx context.Context, eventName string, payload interface{}) error
	Close() error
}

type publisher struct {
	pubSub pubsub.Publisher
	logger *logger.Logger
}

func NewPublisher(pubSub pubsub.Publisher, log *logger.Logger) Publisher {
	return &publisher{pubSub: pubSub, logger: log}
}

func (p *publisher) PublishWebhook(ctx context.Context, eventName string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal webhook payload").
			Mark(ierr.ErrInternal)
	}

	msg := message.NewMessage(types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT), body)
	msg.Metadata.Set("event_name", eventName)
	msg.Metadata.Set("tenant_id", types.GetTenantID(ctx))

	if err := p.pubSub.Publish(ctx, eventName, msg); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to publish webhook event").
			WithReportableDetails(map[string]interface{}{
				"event_name": eventName,
			}).
			Mark(ierr.ErrInternal)
	}

	p.logger.Debugw("published webhook event", "event_name", eventName)
	return nil
}

func (p *publisher) Close() error {
	return p.pubSub.Close()
}
