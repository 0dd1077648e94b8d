package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/types"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes each row as a JSON message keyed by the article URL.
type Kafka struct {
	writer MessageWriter
	topic  string
	logger *zap.Logger
}

// NewKafka creates a synchronous producer for the topic.
func NewKafka(brokers []string, topic string, logger *zap.Logger) (*Kafka, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("%w: kafka requires brokers and topic", config.ErrSinkConfigMissing)
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return NewKafkaWithWriter(writer, topic, logger), nil
}

// NewKafkaWithWriter creates the sink over an existing writer.
func NewKafkaWithWriter(writer MessageWriter, topic string, logger *zap.Logger) *Kafka {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Kafka{writer: writer, topic: topic, logger: logger}
}

// Name implements Sink.
func (k *Kafka) Name() string {
	return "kafka"
}

// Write implements Sink. A topic is an append-only log, so only append is accepted.
func (k *Kafka) Write(ctx context.Context, rows []types.ScoredArticle, mode WriteMode) (int, error) {
	if mode != ModeAppend {
		return 0, fmt.Errorf("%w: kafka only supports %q, got %q", ErrUnsupportedMode, ModeAppend, mode)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	now := time.Now()
	msgs := make([]kafka.Message, len(rows))
	for i, row := range rows {
		value, err := json.Marshal(row.Record())
		if err != nil {
			return 0, fmt.Errorf("failed to marshal row %d: %w", i, err)
		}
		msgs[i] = kafka.Message{Key: []byte(row.URL), Value: value, Time: now}
	}

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		var writeErrs kafka.WriteErrors
		if errors.As(err, &writeErrs) {
			failed := writeErrs.Count()
			return len(rows) - failed, fmt.Errorf("failed to write %d of %d messages to kafka: %w", failed, len(rows), err)
		}
		return 0, fmt.Errorf("failed to write messages to kafka: %w", err)
	}

	k.logger.Info("produced articles", zap.String("topic", k.topic), zap.Int("messages", len(msgs)))
	return len(msgs), nil
}

// Close implements Sink.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
