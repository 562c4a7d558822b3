package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"

	"meytle/internal/infra/broker/kafka"
	"meytle/internal/infra/config"
	"meytle/internal/infra/obs"
)

// The notifier consumes booking and companion events and logs the
// notifications it would deliver. Real channels (email, push) plug in behind
// the same handler.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("dev").Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS is required for the notifier")
		os.Exit(1)
	}

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, "meytle-notifier", nil, notificationHandler{logger: logger}, logger)
	if err != nil {
		logger.Error("kafka consumer init failed", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	topics := []string{
		cfg.KafkaTopicPrefix + "booking.events.v1",
		cfg.KafkaTopicPrefix + "companion.events.v1",
	}
	logger.Info("notifier starting", "topics", topics)
	if err := consumer.Run(ctx, topics); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("notifier stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}

type notificationHandler struct {
	logger *slog.Logger
}

type cloudEvent struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Source string          `json:"source"`
	Time   string          `json:"time"`
	Data   json.RawMessage `json:"data"`
}

func (h notificationHandler) Handle(_ context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.logger.Warn("skipping malformed event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	h.logger.Info("notification",
		"type", evt.Type,
		"event_id", evt.ID,
		"aggregate", string(msg.Key),
		"occurred_at", evt.Time,
	)
	return nil
}
