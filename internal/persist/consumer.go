// Package persist drains the live entry topic into the durable store.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/internal/repository"
	"github.com/RiceCakess/holoclips/pkg/log"
)

// Consumer reads entry messages from Kafka and persists them.
type Consumer struct {
	consumer *kafka.Consumer
	topic    string
	groupID  string
	repo     repository.MessageRepository
}

func NewConsumer(cfg config.KafkaConfig, repo repository.MessageRepository) (*Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       cfg.Brokers,
		"group.id":                cfg.GroupID,
		"auto.offset.reset":       cfg.AutoOffsetReset,
		"enable.auto.commit":      true,
		"auto.commit.interval.ms": 5000,
		"max.poll.interval.ms":    cfg.MaxPollIntervalMs,
		"session.timeout.ms":      cfg.SessionTimeoutMs,
		"heartbeat.interval.ms":   cfg.HeartbeatIntervalMs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &Consumer{
		consumer: c,
		topic:    cfg.Topic,
		groupID:  cfg.GroupID,
		repo:     repo,
	}, nil
}

// Run polls the topic until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.consumer.Subscribe(c.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.topic, err)
	}

	l := log.L()
	l.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("persist consumer started")

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("persist consumer stopping")
			return nil
		default:
		}

		ev := c.consumer.Poll(500)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if err := c.handleMessage(ctx, e.Value); err != nil {
				l.Error().Err(err).
					Int32("partition", e.TopicPartition.Partition).
					Str("offset", e.TopicPartition.Offset.String()).
					Msg("failed to handle message")
			}
		case kafka.Error:
			l.Error().Err(e).Bool("fatal", e.IsFatal()).Msg("kafka error")
			if e.IsFatal() {
				return fmt.Errorf("fatal kafka error: %w", e)
			}
		case kafka.OffsetsCommitted:
			// Normal auto-commit acknowledgement
		default:
			// Ignore other events (rebalance, etc.)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, value []byte) error {
	var msg domain.EntryMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal entry message: %w", err)
	}

	room, err := domain.ParseRoom(msg.Room)
	if err != nil {
		return err
	}

	if err := c.repo.SaveEntry(ctx, room, msg.Entry); err != nil {
		return fmt.Errorf("failed to persist entry: %w", err)
	}

	l := log.L()
	l.Debug().Str(log.FieldRoom, msg.Room).Str(log.FieldEntryKey, msg.Entry.Key).Msg("entry persisted")

	return nil
}

func (c *Consumer) Close() error {
	return c.consumer.Close()
}
