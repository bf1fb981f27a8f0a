package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockPull/internal/domain/models"
	drepo "StockPull/internal/domain/repository"
	"StockPull/pkg/logger"
	"StockPull/pkg/util"
)

// SnapshotResult summarizes one snapshot run.
type SnapshotResult struct {
	Saved  int
	OK     int
	Empty  int
	Failed int
}

// SnapshotRunner fetches tickers one after another and writes every bar
// through a single writer run. A failing ticker is logged and skipped.
type SnapshotRunner struct {
	source  drepo.SnapshotSource
	name    string
	writer  *BarWriter
	l       *logger.Logger
	metrics drepo.Metrics
	now     func() time.Time
}

func NewSnapshotRunner(source drepo.SnapshotSource, name string, writer *BarWriter, l *logger.Logger, m drepo.Metrics) *SnapshotRunner {
	if l == nil {
		l = logger.Nop()
	}
	return &SnapshotRunner{source: source, name: name, writer: writer, l: l, metrics: orNop(m), now: time.Now}
}

// Run uppercases and de-duplicates tickers and stamps every bar with the
// instant the run started. It returns an error only when
// persistence fails or ctx is cancelled.
func (r *SnapshotRunner) Run(ctx context.Context, tickers []string) (SnapshotResult, error) {
	var res SnapshotResult
	at := r.now()
	tickers = util.NormalizeTickers(tickers)
	r.l.Info(fmt.Sprintf("Fetching data for %d ticker(s): %s", len(tickers), strings.Join(tickers, ", ")))

	bars := func(yield func(models.Bar, error) bool) {
		for _, ticker := range tickers {
			if err := ctx.Err(); err != nil {
				yield(models.Bar{}, err)
				return
			}
			r.l.Debug("Processing " + ticker)

			produced, failed := 0, false
			for bar, err := range r.source.BarsAt(ctx, ticker, at) {
				if err != nil {
					r.l.Error("Error processing "+ticker, logger.Error(err))
					r.metrics.RecordError("provider")
					failed = true
					break
				}
				produced++
				r.metrics.RecordLastPrice(bar.Ticker, bar.Sale)
				if !yield(bar, nil) {
					return
				}
			}

			switch {
			case failed:
				res.Failed++
				r.metrics.RecordTicker(r.name, "failed")
			case produced == 0:
				res.Empty++
				r.metrics.RecordTicker(r.name, "empty")
			default:
				res.OK++
				r.metrics.RecordTicker(r.name, "ok")
			}
		}
	}

	n, err := r.writer.Write(ctx, bars)
	res.Saved = n
	if err != nil {
		return res, err
	}
	r.l.Info(fmt.Sprintf("Saved %d snapshot records (ok=%d, empty=%d, failed=%d)", n, res.OK, res.Empty, res.Failed))
	return res, nil
}
