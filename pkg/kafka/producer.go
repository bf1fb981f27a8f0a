package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Observer is notified after every publish attempt.
type Observer interface {
	ObservePublish(topic string, messages int, bytes int64, took time.Duration, err error)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is one keyed payload.
type Message struct {
	Key   []byte
	Value []byte
}

// Producer writes keyed messages synchronously to one topic. Messages with
// the same key land on the same partition.
type Producer struct {
	writer   messageWriter
	topic    string
	observer Observer
}

// NewProducer creates a synchronous Kafka producer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "snappy",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    1000,
		BatchBytes:   1048576,
		BatchTimeout: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		BatchTimeout: cfg.BatchTimeout,
	}
	return &Producer{writer: writer, topic: cfg.Topic, observer: cfg.Observer}, nil
}

// Topic returns the destination topic.
func (p *Producer) Topic() string { return p.topic }

// PublishBatch writes all messages in one call. It returns once the
// configured acks are received or the write fails.
func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	now := start.UTC()
	msgs := make([]kafka.Message, 0, len(messages))
	var totalBytes int64
	for _, m := range messages {
		msgs = append(msgs, kafka.Message{Key: m.Key, Value: m.Value, Time: now})
		totalBytes += int64(len(m.Value))
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	if p.observer != nil {
		p.observer.ObservePublish(p.topic, len(msgs), totalBytes, time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("kafka publish %d messages: %w", len(msgs), err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
