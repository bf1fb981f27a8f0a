package repository

import (
	"context"
	"iter"
	"time"

	"StockPull/internal/domain/models"
)

// BarSource produces canonical bars for one ticker request. Each call
// issues a new provider request; the sequence is not restartable.
type BarSource interface {
	Bars(ctx context.Context, ticker string) iter.Seq2[models.Bar, error]
}

// SnapshotSource produces bars stamped with a caller-chosen instant, so
// one run shares a single timestamp across tickers.
type SnapshotSource interface {
	BarsAt(ctx context.Context, ticker string, at time.Time) iter.Seq2[models.Bar, error]
}

// AggregateProvider lists raw historical aggregates, following pagination
// lazily.
type AggregateProvider interface {
	ListAggs(ctx context.Context, req models.AggsRequest) iter.Seq2[models.Aggregate, error]
}

// SnapshotProvider returns today's minute series and quote info for a ticker.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, ticker string) (*models.Snapshot, error)
}

// Session is one exclusively owned unit of work against a storage backend.
// Added bars become durable only on Commit.
type Session interface {
	Add(ctx context.Context, bar models.Bar) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close() error
}

// Storage is a bar sink. Name labels metrics and logs.
type Storage interface {
	Name() string
	Init(ctx context.Context) error // ensure tables
	Open(ctx context.Context) (Session, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// RowSource streams persisted rows ordered by storage identity.
// where is an optional raw SQL filter clause.
type RowSource interface {
	Count(ctx context.Context, where string) (int64, error)
	Each(ctx context.Context, where string, fn func(models.StockRecord) error) error
}

// Calendar returns the trading sessions whose dates fall in [from, to].
type Calendar interface {
	Schedule(ctx context.Context, from, to time.Time) ([]models.Schedule, error)
}

// HolidaySource lists holidays and early closes whose dates fall in [from, to].
type HolidaySource interface {
	Holidays(ctx context.Context, from, to time.Time) ([]models.MarketHoliday, error)
}

// Archiver keeps a copy of raw provider aggregates.
type Archiver interface {
	Archive(ctx context.Context, req models.AggsRequest, aggs []models.Aggregate) (string, error)
}

type Metrics interface {
	RecordBarsWritten(backend string, n int)
	RecordCommit(backend string)
	RecordRollback(backend string)
	RecordError(kind string)
	RecordTicker(source, result string)
	RecordLastPrice(ticker string, price float64)
	RecordLatency(op string, seconds float64)
}
