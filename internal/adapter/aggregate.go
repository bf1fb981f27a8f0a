package adapter

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"StockPull/internal/domain/models"
	"StockPull/internal/domain/repository"
	"StockPull/pkg/logger"
	"StockPull/pkg/util"
)

// PageLimit caps one aggregates request.
const PageLimit = 50000

// AggregateQuery selects the lookback window and bar size of a backfill.
type AggregateQuery struct {
	Days       int
	Interval   models.Interval
	Multiplier int
}

// AggregateAdapter turns a historical provider's aggregates into canonical
// bars.
type AggregateAdapter struct {
	provider repository.AggregateProvider
	name     string
	query    AggregateQuery
	archiver repository.Archiver
	logger   *logger.Logger
	now      func() time.Time
}

type AggregateOption func(*AggregateAdapter)

// WithArchiver keeps the raw aggregates of every fully read sequence.
func WithArchiver(a repository.Archiver) AggregateOption {
	return func(ad *AggregateAdapter) { ad.archiver = a }
}

func WithProviderName(name string) AggregateOption {
	return func(ad *AggregateAdapter) { ad.name = name }
}

func WithClock(now func() time.Time) AggregateOption {
	return func(ad *AggregateAdapter) { ad.now = now }
}

func NewAggregateAdapter(p repository.AggregateProvider, q AggregateQuery, l *logger.Logger, opts ...AggregateOption) *AggregateAdapter {
	if q.Interval == "" {
		q.Interval = models.DefaultInterval()
	}
	if q.Multiplier <= 0 {
		q.Multiplier = 1
	}
	if l == nil {
		l = logger.Nop()
	}
	a := &AggregateAdapter{provider: p, name: "polygon", query: q, logger: l, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Request builds the provider request covering [now - days, now].
func (a *AggregateAdapter) Request(ticker string) models.AggsRequest {
	from, to := util.LookbackWindow(a.now(), a.query.Days)
	return models.AggsRequest{
		Ticker:     strings.ToUpper(ticker),
		Multiplier: a.query.Multiplier,
		Interval:   a.query.Interval,
		From:       from,
		To:         to,
		Limit:      PageLimit,
	}
}

// Bars yields one canonical bar per provider aggregate. Aggregates that
// break the bar invariants are logged and skipped. A provider failure ends
// the sequence with a *models.ProviderError.
func (a *AggregateAdapter) Bars(ctx context.Context, ticker string) iter.Seq2[models.Bar, error] {
	req := a.Request(ticker)
	return func(yield func(models.Bar, error) bool) {
		a.logger.Info("Fetching aggregates",
			logger.String("ticker", req.Ticker),
			logger.Int("multiplier", req.Multiplier),
			logger.String("interval", string(req.Interval)),
			logger.String("from", req.From),
			logger.String("to", req.To))

		var raw []models.Aggregate
		for agg, err := range a.provider.ListAggs(ctx, req) {
			if err != nil {
				var pe *models.ProviderError
				if !errors.As(err, &pe) {
					err = &models.ProviderError{Provider: a.name, Ticker: req.Ticker, Err: err}
				}
				yield(models.Bar{}, err)
				return
			}
			if a.archiver != nil {
				raw = append(raw, agg)
			}

			bar := ConvertAggregate(req.Ticker, agg)
			if err := bar.Validate(); err != nil {
				a.logger.Warn("Skipping aggregate", logger.Error(err))
				continue
			}
			a.logger.Debug("Processing bar",
				logger.Time("time", time.Unix(bar.Time, 0)),
				logger.Float64("open", agg.Open),
				logger.Float64("high", agg.High),
				logger.Float64("low", agg.Low),
				logger.Float64("close", agg.Close),
				logger.Float64("volume", agg.Volume))
			if !yield(bar, nil) {
				return
			}
		}

		if a.archiver != nil && len(raw) > 0 {
			path, err := a.archiver.Archive(ctx, req, raw)
			if err != nil {
				a.logger.Warn("Archive failed", logger.String("ticker", req.Ticker), logger.Error(err))
				return
			}
			a.logger.Info("Archived raw aggregates", logger.String("path", path), logger.Int("count", len(raw)))
		}
	}
}

// ConvertAggregate maps one provider aggregate to a canonical bar. Avg is
// the vwap when present and non-zero, otherwise the high/low midpoint.
func ConvertAggregate(ticker string, agg models.Aggregate) models.Bar {
	avg := models.Midpoint(agg.High, agg.Low)
	if agg.VWAP != nil && *agg.VWAP != 0 {
		avg = *agg.VWAP
	}
	return models.Bar{
		Ticker: ticker,
		Time:   agg.Timestamp / 1000,
		High:   agg.High,
		Low:    agg.Low,
		Avg:    avg,
		Sale:   agg.Close,
		Meta: models.Meta{
			"open":         models.Float(agg.Open),
			"volume":       models.Float(agg.Volume),
			"transactions": models.OptInt(agg.Transactions),
			"vwap":         models.OptFloat(agg.VWAP),
		},
	}
}
