package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPull/internal/domain/models"
	pkgkafka "StockPull/pkg/kafka"
	pkgpg "StockPull/pkg/postgres"
)

func sampleBar(ticker string, ts int64) models.Bar {
	return models.Bar{
		Ticker: ticker, Time: ts, High: 2, Low: 1, Avg: 1.5, Sale: 1.75,
		Meta: models.Meta{"open": models.Float(1.25)},
	}
}

type fakeBatch struct {
	rows    [][]any
	sent    bool
	aborted bool
}

func (b *fakeBatch) Append(_ context.Context, args ...any) error {
	b.rows = append(b.rows, args)
	return nil
}
func (b *fakeBatch) Send() error  { b.sent = true; return nil }
func (b *fakeBatch) Abort() error { b.aborted = true; return nil }

func TestClickHouseSessionBatches(t *testing.T) {
	var batches []*fakeBatch
	ss := &chSession{
		query: "INSERT",
		begin: func(context.Context, string) (chBatch, error) {
			b := &fakeBatch{}
			batches = append(batches, b)
			return b, nil
		},
	}
	ctx := context.Background()

	require.NoError(t, ss.Commit(ctx), "commit without rows is a no-op")
	assert.Empty(t, batches)

	require.NoError(t, ss.Add(ctx, sampleBar("AAPL", 1)))
	require.NoError(t, ss.Add(ctx, sampleBar("AAPL", 2)))
	require.NoError(t, ss.Commit(ctx))
	require.NoError(t, ss.Add(ctx, sampleBar("MSFT", 3)))
	require.NoError(t, ss.Rollback(ctx))
	require.NoError(t, ss.Close())

	require.Len(t, batches, 2)
	assert.True(t, batches[0].sent)
	assert.Len(t, batches[0].rows, 2)
	assert.Equal(t, `{"open":1.25}`, batches[0].rows[0][6])
	assert.True(t, batches[1].aborted)
	assert.False(t, batches[1].sent)

	assert.ErrorIs(t, ss.Add(ctx, sampleBar("X", 1)), errSessionClosed)
}

func TestClickHouseSessionNullMeta(t *testing.T) {
	b := &fakeBatch{}
	ss := &chSession{begin: func(context.Context, string) (chBatch, error) { return b, nil }}
	bar := sampleBar("AAPL", 1)
	bar.Meta = nil
	require.NoError(t, ss.Add(context.Background(), bar))
	assert.Nil(t, b.rows[0][6])
}

func TestClickHouseSessionCloseAbortsOpenBlock(t *testing.T) {
	b := &fakeBatch{}
	ss := &chSession{begin: func(context.Context, string) (chBatch, error) { return b, nil }}
	require.NoError(t, ss.Add(context.Background(), sampleBar("AAPL", 1)))
	require.NoError(t, ss.Close())
	assert.True(t, b.aborted)
}

type fakePublisher struct {
	batches [][]pkgkafka.Message
	err     error
}

func (p *fakePublisher) PublishBatch(_ context.Context, msgs []pkgkafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, append([]pkgkafka.Message(nil), msgs...))
	return nil
}
func (p *fakePublisher) Close() error { return nil }

func TestKafkaSession(t *testing.T) {
	pub := &fakePublisher{}
	s := &KafkaStorage{pub: pub}
	ss, err := s.Open(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ss.Add(ctx, sampleBar("AAPL", 1)))
	require.NoError(t, ss.Add(ctx, sampleBar("MSFT", 2)))
	require.NoError(t, ss.Commit(ctx))
	require.NoError(t, ss.Add(ctx, sampleBar("NVDA", 3)))
	require.NoError(t, ss.Rollback(ctx))
	require.NoError(t, ss.Commit(ctx))

	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 2)
	assert.Equal(t, "MSFT", string(pub.batches[0][1].Key))

	var msg barMessage
	require.NoError(t, json.Unmarshal(pub.batches[0][0].Value, &msg))
	assert.Equal(t, "AAPL", msg.Ticker)
	assert.Equal(t, 1.75, msg.Sale)
	v, _ := msg.Meta["open"].Float64()
	assert.Equal(t, 1.25, v)
}

func TestKafkaSessionCommitError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	ss, _ := (&KafkaStorage{pub: pub}).Open(context.Background())
	require.NoError(t, ss.Add(context.Background(), sampleBar("AAPL", 1)))
	assert.ErrorContains(t, ss.Commit(context.Background()), "broker down")
}

func TestWhereClause(t *testing.T) {
	assert.Equal(t, "", whereClause(""))
	assert.Equal(t, " WHERE ticker = 'AAPL'", whereClause("ticker = 'AAPL'"))
}

// TestPostgresStorage runs against a live database when STOCKPULL_PG_DSN is set.
func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("STOCKPULL_PG_DSN")
	if dsn == "" {
		t.Skip("STOCKPULL_PG_DSN not set")
	}
	client, err := pkgpg.NewClient(pkgpg.WithDSN(dsn))
	require.NoError(t, err)
	s := NewPostgresStorage(client, 2, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, client.DB().Exec("DELETE FROM stocks WHERE ticker = 'ZZTEST'").Error)

	ss, err := s.Open(ctx)
	require.NoError(t, err)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, ss.Add(ctx, sampleBar("ZZTEST", i)))
	}
	require.NoError(t, ss.Commit(ctx))
	require.NoError(t, ss.Add(ctx, sampleBar("ZZTEST", 4)))
	require.NoError(t, ss.Rollback(ctx))
	require.NoError(t, ss.Close())

	n, err := s.Count(ctx, "ticker = 'ZZTEST'")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	var times []int64
	require.NoError(t, s.Each(ctx, "ticker = 'ZZTEST'", func(r models.StockRecord) error {
		times = append(times, r.Time)
		return nil
	}))
	assert.Equal(t, []int64{1, 2, 3}, times)
}
