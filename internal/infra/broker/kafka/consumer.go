package kafka

import (
	"context"
	"log/slog"

	"github.com/IBM/sarama"
)

// MessageHandler processes a single consumed record. Returning an error
// leaves the message unmarked so the group redelivers it.
type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer runs a sarama consumer group around a MessageHandler.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: group, handler: handler, logger: logger}, nil
}

// Run consumes until the context is cancelled. Rebalances restart the
// Consume loop, which is why it spins.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	runner := groupRunner{handler: c.handler, logger: c.logger}
	for {
		if err := c.group.Consume(ctx, topics, runner); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupRunner struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (r groupRunner) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (r groupRunner) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (r groupRunner) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := r.handler.Handle(sess.Context(), message); err != nil {
			if r.logger != nil {
				r.logger.Error("message handling failed",
					"topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
			}
			continue
		}
		sess.MarkMessage(message, "")
	}
	return nil
}
