package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	calls [][]kafka.Message
	err   error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls = append(f.calls, msgs)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

type observed struct {
	messages int
	bytes    int64
	err      error
}

type fakeObserver struct{ got []observed }

func (o *fakeObserver) ObservePublish(_ string, messages int, bytes int64, _ time.Duration, err error) {
	o.got = append(o.got, observed{messages, bytes, err})
}

func TestPublishBatchSingleWrite(t *testing.T) {
	w := &fakeWriter{}
	obs := &fakeObserver{}
	p := &Producer{writer: w, topic: "bars", observer: obs}

	err := p.PublishBatch(context.Background(), []Message{
		{Key: []byte("AAPL"), Value: []byte("abc")},
		{Key: []byte("MSFT"), Value: []byte("de")},
	})
	require.NoError(t, err)
	require.Len(t, w.calls, 1)
	assert.Len(t, w.calls[0], 2)
	assert.Equal(t, []byte("AAPL"), w.calls[0][0].Key)
	assert.Equal(t, []observed{{messages: 2, bytes: 5}}, obs.got)
}

func TestPublishBatchEmptyIsNoop(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "bars"}
	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Empty(t, w.calls)
}

func TestPublishBatchError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}, topic: "bars"}
	err := p.PublishBatch(context.Background(), []Message{{Value: []byte("x")}})
	assert.ErrorIs(t, err, boom)
}

func TestNewProducerValidation(t *testing.T) {
	_, err := NewProducer(WithTopic("bars"))
	assert.ErrorContains(t, err, "brokers")

	_, err = NewProducer(WithBrokers([]string{"localhost:9092"}))
	assert.ErrorContains(t, err, "topic")

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithTopic("bars"), WithCompression("zstd"))
	require.NoError(t, err)
	assert.Equal(t, "bars", p.Topic())
	require.NoError(t, p.Close())
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Gzip, parseCompression("gzip"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Compression(0), parseCompression("none"))
}
