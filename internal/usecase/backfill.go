package usecase

import (
	"context"
	"fmt"
	"strings"

	drepo "StockPull/internal/domain/repository"
	"StockPull/pkg/logger"
	"StockPull/pkg/util"
)

// Backfill loads one ticker's history from a historical source into
// storage.
type Backfill struct {
	source  drepo.BarSource
	name    string
	writer  *BarWriter
	l       *logger.Logger
	metrics drepo.Metrics
}

func NewBackfill(source drepo.BarSource, name string, writer *BarWriter, l *logger.Logger, m drepo.Metrics) *Backfill {
	if l == nil {
		l = logger.Nop()
	}
	return &Backfill{source: source, name: name, writer: writer, l: l, metrics: orNop(m)}
}

// Run returns the committed count. Zero bars is not an error.
func (b *Backfill) Run(ctx context.Context, ticker string) (int, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return 0, fmt.Errorf("ticker is required")
	}
	b.l.Info("Fetching data for " + ticker)

	n, err := b.writer.Write(ctx, b.source.Bars(ctx, ticker))
	if err != nil {
		b.metrics.RecordTicker(b.name, "failed")
		return n, err
	}
	if n == 0 {
		b.metrics.RecordTicker(b.name, "empty")
		b.l.Warn("No data found for " + ticker)
		return 0, nil
	}
	b.metrics.RecordTicker(b.name, "ok")
	b.l.Info(fmt.Sprintf("Successfully saved %s records for %s", util.Thousands(int64(n)), ticker))
	return n, nil
}
