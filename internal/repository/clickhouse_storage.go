package repository

import (
	"context"
	"database/sql"
	"fmt"

	"StockPull/internal/domain/models"
	domrepo "StockPull/internal/domain/repository"
	pkgch "StockPull/pkg/clickhouse"
	applogger "StockPull/pkg/logger"
)

type chBatch interface {
	Append(ctx context.Context, args ...any) error
	Send() error
	Abort() error
}

type chBeginFunc func(ctx context.Context, query string) (chBatch, error)

// ClickHouseStorage implements Storage and RowSource on a MergeTree table.
// Rows have no identity column, so inserted_at orders exports.
type ClickHouseStorage struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	begin  chBeginFunc
	l      *applogger.Logger
}

func NewClickHouseStorage(client *pkgch.Client, table string, l *applogger.Logger) *ClickHouseStorage {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseStorage{
		client: client,
		db:     client.DB(),
		table:  fmt.Sprintf("%s.%s", client.Database(), table),
		begin: func(ctx context.Context, q string) (chBatch, error) {
			b, err := client.BeginBatch(ctx, q)
			if err != nil {
				return nil, err
			}
			return b, nil
		},
		l: l,
	}
}

func (s *ClickHouseStorage) Name() string { return "clickhouse" }

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, s.client.Database()),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ticker      LowCardinality(String),
            time        Int64,
            high        Float64,
            low         Float64,
            avg         Float64,
            sale        Float64,
            meta        Nullable(String),
            inserted_at DateTime64(3) DEFAULT now64(3)
        ) ENGINE = MergeTree
        ORDER BY (ticker, time)
    `, s.table),
	})
}

func (s *ClickHouseStorage) Open(_ context.Context) (domrepo.Session, error) {
	return &chSession{
		begin: s.begin,
		query: fmt.Sprintf("INSERT INTO %s (ticker, time, high, low, avg, sale, meta) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table),
	}, nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error { return s.client.Health(ctx) }

func (s *ClickHouseStorage) Close() error { return s.client.Close() }

func (s *ClickHouseStorage) Count(ctx context.Context, where string) (int64, error) {
	var n uint64
	q := fmt.Sprintf("SELECT count() FROM %s%s", s.table, whereClause(where))
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stocks: %w", err)
	}
	return int64(n), nil
}

// Each numbers rows from 1 in (inserted_at, ticker, time) order.
func (s *ClickHouseStorage) Each(ctx context.Context, where string, fn func(models.StockRecord) error) error {
	q := fmt.Sprintf(`SELECT ticker, time, high, low, avg, sale, meta FROM %s%s ORDER BY inserted_at, ticker, time`,
		s.table, whereClause(where))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse export query error", applogger.String("table", s.table), applogger.Error(err))
		return fmt.Errorf("read stocks: %w", err)
	}
	defer rows.Close()

	var id int64
	for rows.Next() {
		var (
			r    models.StockRecord
			meta sql.NullString
		)
		if err := rows.Scan(&r.Ticker, &r.Time, &r.High, &r.Low, &r.Avg, &r.Sale, &meta); err != nil {
			return fmt.Errorf("scan stock: %w", err)
		}
		if meta.Valid {
			if err := r.Meta.Scan(meta.String); err != nil {
				return fmt.Errorf("scan meta: %w", err)
			}
		}
		id++
		r.ID = id
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}

func whereClause(where string) string {
	if where == "" {
		return ""
	}
	return " WHERE " + where
}

// chSession keeps one open block; a new one starts on the first Add after
// each Commit.
type chSession struct {
	begin  chBeginFunc
	query  string
	batch  chBatch
	closed bool
}

func (ss *chSession) Add(ctx context.Context, bar models.Bar) error {
	if ss.closed {
		return errSessionClosed
	}
	if ss.batch == nil {
		b, err := ss.begin(ctx, ss.query)
		if err != nil {
			return err
		}
		ss.batch = b
	}
	meta, err := bar.Meta.Value()
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return ss.batch.Append(ctx, bar.Ticker, bar.Time, bar.High, bar.Low, bar.Avg, bar.Sale, meta)
}

func (ss *chSession) Commit(_ context.Context) error {
	if ss.closed {
		return errSessionClosed
	}
	if ss.batch == nil {
		return nil
	}
	b := ss.batch
	ss.batch = nil
	return b.Send()
}

func (ss *chSession) Rollback(_ context.Context) error {
	if ss.batch == nil {
		return nil
	}
	b := ss.batch
	ss.batch = nil
	return b.Abort()
}

func (ss *chSession) Close() error {
	ss.closed = true
	if ss.batch == nil {
		return nil
	}
	b := ss.batch
	ss.batch = nil
	return b.Abort()
}
