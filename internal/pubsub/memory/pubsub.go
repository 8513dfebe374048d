package memory

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/upbill/upbill/internal/logger"
)

// PubSub is an in-process watermill transport. It backs the post-commit
// event emission in tests and single-node deployments.
type PubSub struct {
	channel *gochannel.GoChannel
}

func NewPubSub(log *logger.Logger) *PubSub {
	return &PubSub{
		channel: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            128,
				Persistent:                     true,
				BlockPublishUntilSubscriberAck: false,
			},
			watermill.NopLogger{},
		),
	}
}

func (p *PubSub) Publish(_ context.Context, topic string, msg *message.Message) error {
	return p.channel.Publish(topic, msg)
}

func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.channel.Subscribe(ctx, topic)
}

func (p *PubSub) Close() error {
	return p.channel.Close()
}
