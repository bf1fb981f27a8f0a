package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"StockPull/internal/domain/models"
	drepo "StockPull/internal/domain/repository"
	"StockPull/pkg/logger"
	"StockPull/pkg/util"
)

// DefaultCommitThreshold is the batch size used when none is configured.
const DefaultCommitThreshold = 1000

// BarWriter persists a bar sequence through one storage session,
// committing every threshold bars and once more at the end.
type BarWriter struct {
	storage   drepo.Storage
	threshold int
	l         *logger.Logger
	metrics   drepo.Metrics
}

func NewBarWriter(storage drepo.Storage, threshold int, l *logger.Logger, m drepo.Metrics) *BarWriter {
	if threshold <= 0 {
		threshold = DefaultCommitThreshold
	}
	if l == nil {
		l = logger.Nop()
	}
	return &BarWriter{storage: storage, threshold: threshold, l: l, metrics: orNop(m)}
}

// Write drains bars into storage and returns how many were committed.
//
// On a sequence, add or commit error the uncommitted bars are rolled back
// and the error is returned together with the count committed before it.
// Earlier commits stay durable. The session is closed on every path.
func (w *BarWriter) Write(ctx context.Context, bars iter.Seq2[models.Bar, error]) (int, error) {
	backend := w.storage.Name()
	start := time.Now()
	defer func() { w.metrics.RecordLatency("write", time.Since(start).Seconds()) }()

	session, err := w.storage.Open(ctx)
	if err != nil {
		w.metrics.RecordError("persistence")
		return 0, &models.PersistenceError{Op: "open", Err: err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			w.l.Warn("Closing session failed", logger.Error(err))
		}
		w.l.Debug("Database session closed")
	}()

	var count, committed int
	fail := func(cause error) (int, error) {
		w.metrics.RecordError(errorKind(cause))
		w.metrics.RecordRollback(backend)
		if rerr := session.Rollback(context.WithoutCancel(ctx)); rerr != nil {
			cause = errors.Join(cause, &models.PersistenceError{Op: "rollback", Err: rerr})
		}
		w.l.Error("Write failed, uncommitted bars rolled back",
			logger.Int("committed", committed),
			logger.Int("discarded", count-committed),
			logger.Error(cause))
		return committed, cause
	}
	commit := func() error {
		if err := session.Commit(ctx); err != nil {
			return &models.PersistenceError{Op: "commit", Err: err}
		}
		w.metrics.RecordCommit(backend)
		w.metrics.RecordBarsWritten(backend, count-committed)
		committed = count
		return nil
	}

	for bar, err := range bars {
		if err != nil {
			return fail(err)
		}
		if err := session.Add(ctx, bar); err != nil {
			return fail(&models.PersistenceError{Op: "add", Err: err})
		}
		count++

		if count%w.threshold == 0 {
			if err := commit(); err != nil {
				return fail(err)
			}
			w.l.Info(fmt.Sprintf("Saved %s records...", util.Thousands(int64(count))))
			w.l.Debug("Batch committed to database")
		}
	}

	if err := commit(); err != nil {
		return fail(err)
	}
	return count, nil
}

func errorKind(err error) string {
	var pe *models.ProviderError
	if errors.As(err, &pe) {
		return "provider"
	}
	return "persistence"
}
