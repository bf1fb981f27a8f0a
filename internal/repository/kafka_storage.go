package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"StockPull/internal/domain/models"
	domrepo "StockPull/internal/domain/repository"
	pkgkafka "StockPull/pkg/kafka"
)

type publisher interface {
	PublishBatch(ctx context.Context, messages []pkgkafka.Message) error
	Close() error
}

// barMessage is the wire form of a bar on the topic.
type barMessage struct {
	Ticker string      `json:"ticker"`
	Time   int64       `json:"time"`
	High   float64     `json:"high"`
	Low    float64     `json:"low"`
	Avg    float64     `json:"avg"`
	Sale   float64     `json:"sale"`
	Meta   models.Meta `json:"meta,omitempty"`
}

// KafkaStorage publishes bars keyed by ticker, so one ticker stays on one
// partition.
type KafkaStorage struct {
	pub publisher
}

func NewKafkaStorage(p *pkgkafka.Producer) *KafkaStorage {
	return &KafkaStorage{pub: p}
}

func (s *KafkaStorage) Name() string { return "kafka" }

func (s *KafkaStorage) Init(context.Context) error { return nil }

func (s *KafkaStorage) Open(context.Context) (domrepo.Session, error) {
	return &kafkaSession{pub: s.pub}, nil
}

func (s *KafkaStorage) Health(context.Context) error { return nil }

func (s *KafkaStorage) Close() error { return s.pub.Close() }

type kafkaSession struct {
	pub     publisher
	pending []pkgkafka.Message
	closed  bool
}

func (ss *kafkaSession) Add(_ context.Context, bar models.Bar) error {
	if ss.closed {
		return errSessionClosed
	}
	value, err := json.Marshal(barMessage{
		Ticker: bar.Ticker,
		Time:   bar.Time,
		High:   bar.High,
		Low:    bar.Low,
		Avg:    bar.Avg,
		Sale:   bar.Sale,
		Meta:   bar.Meta,
	})
	if err != nil {
		return fmt.Errorf("encode bar: %w", err)
	}
	ss.pending = append(ss.pending, pkgkafka.Message{Key: []byte(bar.Ticker), Value: value})
	return nil
}

func (ss *kafkaSession) Commit(ctx context.Context) error {
	if ss.closed {
		return errSessionClosed
	}
	if len(ss.pending) == 0 {
		return nil
	}
	if err := ss.pub.PublishBatch(ctx, ss.pending); err != nil {
		return err
	}
	ss.pending = ss.pending[:0]
	return nil
}

func (ss *kafkaSession) Rollback(context.Context) error {
	ss.pending = nil
	return nil
}

func (ss *kafkaSession) Close() error {
	ss.pending = nil
	ss.closed = true
	return nil
}
