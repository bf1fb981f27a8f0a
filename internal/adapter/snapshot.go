package adapter

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"StockPull/internal/domain/models"
	"StockPull/internal/domain/repository"
	"StockPull/pkg/logger"
	"StockPull/pkg/util"
)

// volumeLookback is how many of the newest minutes are searched for a
// non-zero volume.
const volumeLookback = 5

// SnapshotAdapter derives one bar per ticker from a live intraday
// snapshot.
type SnapshotAdapter struct {
	provider repository.SnapshotProvider
	name     string
	logger   *logger.Logger
	now      func() time.Time
}

func NewSnapshotAdapter(p repository.SnapshotProvider, l *logger.Logger) *SnapshotAdapter {
	if l == nil {
		l = logger.Nop()
	}
	return &SnapshotAdapter{provider: p, name: "yahoo", logger: l, now: time.Now}
}

func (a *SnapshotAdapter) Bars(ctx context.Context, ticker string) iter.Seq2[models.Bar, error] {
	return a.BarsAt(ctx, ticker, a.now())
}

// BarsAt yields at most one bar stamped at. An empty minute series or an
// invalid bar yields nothing and logs a warning.
func (a *SnapshotAdapter) BarsAt(ctx context.Context, ticker string, at time.Time) iter.Seq2[models.Bar, error] {
	ticker = strings.ToUpper(ticker)
	return func(yield func(models.Bar, error) bool) {
		snap, err := a.provider.Snapshot(ctx, ticker)
		if err != nil {
			yield(models.Bar{}, &models.ProviderError{Provider: a.name, Ticker: ticker, Err: err})
			return
		}

		bar, lag, err := BuildSnapshotBar(ticker, snap, at)
		if errors.Is(err, models.ErrNoData) {
			a.logger.Warn(fmt.Sprintf("No 1-minute data available for %s", ticker))
			return
		}
		if err != nil {
			yield(models.Bar{}, err)
			return
		}
		if err := bar.Validate(); err != nil {
			a.logger.Warn("Skipping snapshot", logger.Error(err))
			return
		}

		vol, _ := bar.Meta["volume"].Int64()
		switch {
		case lag > 0:
			a.logger.Debug(fmt.Sprintf("Using volume from %d minute(s) ago: %s", lag+1, util.Thousands(vol)))
		case lag < 0:
			a.logger.Debug("No volume found in last 5 minutes")
		}
		a.logger.Info(fmt.Sprintf("%s: Price=$%.2f, High=$%.2f, Low=$%.2f, Volume=%s",
			ticker, bar.Sale, bar.High, bar.Low, util.Thousands(vol)))

		yield(bar, nil)
	}
}

// BuildSnapshotBar reduces a snapshot to one bar stamped at the request
// instant. It returns the volume lag from ResolveVolume, or ErrNoData for
// an empty series.
func BuildSnapshotBar(ticker string, snap *models.Snapshot, at time.Time) (models.Bar, int, error) {
	if snap == nil || len(snap.Minutes) == 0 {
		return models.Bar{}, -1, models.ErrNoData
	}

	latest := snap.Minutes[len(snap.Minutes)-1]
	high, low := latest.High, latest.Low
	for _, m := range snap.Minutes {
		high = max(high, m.High)
		low = min(low, m.Low)
	}
	vol, lag := ResolveVolume(snap.Minutes)

	info := snap.Info
	bar := models.Bar{
		Ticker: ticker,
		Time:   at.Unix(),
		High:   high,
		Low:    low,
		Avg:    models.Midpoint(high, low),
		Sale:   latest.Close,
		Meta: models.Meta{
			"source":         models.Str("yahoo"),
			"volume":         models.Int(vol),
			"open":           models.Float(latest.Open),
			"close":          models.Float(latest.Close),
			"day_high":       models.Float(valueOr(info.DayHigh, high)),
			"day_low":        models.Float(valueOr(info.DayLow, low)),
			"previous_close": models.Float(valueOr(info.PreviousClose, 0)),
			"market_cap":     models.OptFloat(info.MarketCap),
			"pe_ratio":       models.OptFloat(info.TrailingPE),
			"timestamp":      models.Str(at.Format(time.RFC3339)),
		},
	}
	return bar, lag, nil
}

// ResolveVolume scans the newest five minutes, newest first, and returns
// the first non-zero volume with its lag (0 is the newest minute). When
// all are zero it returns (0, -1).
func ResolveVolume(minutes []models.MinuteBar) (int64, int) {
	for lag := 0; lag < volumeLookback && lag < len(minutes); lag++ {
		if v := minutes[len(minutes)-1-lag].Volume; v > 0 {
			return v, lag
		}
	}
	return 0, -1
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
