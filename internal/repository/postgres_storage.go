package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"StockPull/internal/domain/models"
	domrepo "StockPull/internal/domain/repository"
	pkgpg "StockPull/pkg/postgres"
	applogger "StockPull/pkg/logger"
)

var errSessionClosed = errors.New("session closed")

// PostgresStorage implements Storage and RowSource on the stocks table via
// gorm.
type PostgresStorage struct {
	client    *pkgpg.Client
	db        *gorm.DB
	batchSize int
	l         *applogger.Logger
}

func NewPostgresStorage(client *pkgpg.Client, batchSize int, l *applogger.Logger) *PostgresStorage {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &PostgresStorage{client: client, db: client.DB(), batchSize: batchSize, l: l}
}

func (s *PostgresStorage) Name() string { return "postgres" }

// Init creates the stocks table and its indexes when missing.
func (s *PostgresStorage) Init(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.StockRecord{}); err != nil {
		return fmt.Errorf("migrate stocks: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Open(_ context.Context) (domrepo.Session, error) {
	return &pgSession{db: s.db, batchSize: s.batchSize}, nil
}

func (s *PostgresStorage) Health(ctx context.Context) error { return s.client.Health(ctx) }

func (s *PostgresStorage) Close() error { return s.client.Close() }

func (s *PostgresStorage) Count(ctx context.Context, where string) (int64, error) {
	var n int64
	if err := s.scope(ctx, where).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count stocks: %w", err)
	}
	return n, nil
}

// Each streams rows ordered by id, batchSize rows per query.
func (s *PostgresStorage) Each(ctx context.Context, where string, fn func(models.StockRecord) error) error {
	var batch []models.StockRecord
	res := s.scope(ctx, where).Order("id").FindInBatches(&batch, s.batchSize, func(_ *gorm.DB, n int) error {
		s.l.Debug("postgres export batch", applogger.Int("batch", n), applogger.Int("rows", len(batch)))
		for _, r := range batch {
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	})
	if res.Error != nil {
		return fmt.Errorf("read stocks: %w", res.Error)
	}
	return nil
}

func (s *PostgresStorage) scope(ctx context.Context, where string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.StockRecord{})
	if where != "" {
		q = q.Where(where)
	}
	return q
}

// pgSession buffers records and writes them in one transaction per Commit.
type pgSession struct {
	db        *gorm.DB
	batchSize int
	pending   []models.StockRecord
	closed    bool
}

func (ss *pgSession) Add(_ context.Context, bar models.Bar) error {
	if ss.closed {
		return errSessionClosed
	}
	ss.pending = append(ss.pending, models.NewStockRecord(bar))
	return nil
}

func (ss *pgSession) Commit(ctx context.Context) error {
	if ss.closed {
		return errSessionClosed
	}
	if len(ss.pending) == 0 {
		return nil
	}
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&ss.pending, ss.batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("insert %d stocks: %w", len(ss.pending), err)
	}
	ss.pending = ss.pending[:0]
	return nil
}

func (ss *pgSession) Rollback(_ context.Context) error {
	ss.pending = nil
	return nil
}

func (ss *pgSession) Close() error {
	ss.pending = nil
	ss.closed = true
	return nil
}
