package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/rainfall-outlook/internal/config"
	"github.com/couchcryptid/rainfall-outlook/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher emits every terminal search outcome to a Kafka topic. It is a
// read-only observer of the controller: publishing never affects state.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates an asynchronous producer for the configured outlook topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Warn("publish outcome failed", "error", err, "messages", len(msgs))
			}
		},
	}
	return &Publisher{writer: w, logger: logger}
}

// Observe publishes s when it is Ready or Failed. Other phases are ignored.
// The write is queued and never blocks the caller.
func (p *Publisher) Observe(s domain.RequestState) {
	if !s.Phase().Terminal() {
		return
	}
	msg, err := serializeToMessage(s)
	if err != nil {
		p.logger.Error("serialize outcome", "error", err, "query", s.Query())
		return
	}
	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		p.logger.Warn("queue outcome failed", "error", err, "query", s.Query())
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a RequestState into a Kafka message keyed by query.
func serializeToMessage(s domain.RequestState) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize request state: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Query()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "phase", Value: []byte(s.Phase())},
			{Key: "updated_at", Value: []byte(s.UpdatedAt().Format(time.RFC3339))},
		},
	}, nil
}
