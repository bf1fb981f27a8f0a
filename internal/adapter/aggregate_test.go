package adapter

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPull/internal/domain/models"
)

type fakeAggs struct {
	aggs []models.Aggregate
	err  error
	got  models.AggsRequest
}

func (f *fakeAggs) ListAggs(_ context.Context, req models.AggsRequest) iter.Seq2[models.Aggregate, error] {
	f.got = req
	return func(yield func(models.Aggregate, error) bool) {
		for _, a := range f.aggs {
			if !yield(a, nil) {
				return
			}
		}
		if f.err != nil {
			yield(models.Aggregate{}, f.err)
		}
	}
}

type fakeArchiver struct {
	calls int
	n     int
}

func (f *fakeArchiver) Archive(_ context.Context, _ models.AggsRequest, aggs []models.Aggregate) (string, error) {
	f.calls++
	f.n = len(aggs)
	return "/tmp/x.parquet", nil
}

func ptr[T any](v T) *T { return &v }

func TestConvertAggregateAvgRule(t *testing.T) {
	tests := []struct {
		name string
		vwap *float64
		want float64
	}{
		{"vwap present", ptr(10.4), 10.4},
		{"vwap absent", nil, 10.25},
		{"vwap zero", ptr(0.0), 10.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := ConvertAggregate("AAPL", models.Aggregate{
				Timestamp: 1700000000123, Open: 10, High: 10.5, Low: 10, Close: 10.3, Volume: 100, VWAP: tt.vwap,
			})
			assert.Equal(t, tt.want, bar.Avg)
			assert.Equal(t, int64(1700000000), bar.Time)
			assert.Equal(t, 10.3, bar.Sale)
			assert.GreaterOrEqual(t, bar.High, bar.Low)
			assert.True(t, bar.Meta["transactions"].IsNull())
		})
	}
}

func TestConvertAggregateMeta(t *testing.T) {
	bar := ConvertAggregate("AAPL", models.Aggregate{Open: 1, High: 2, Low: 1, Close: 2, Volume: 300, VWAP: ptr(1.5), Transactions: ptr(int64(9))})
	b, err := bar.Meta.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"open":1,"volume":300,"transactions":9,"vwap":1.5}`, string(b))
}

func TestAggregateAdapterRequestWindow(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)
	p := &fakeAggs{}
	a := NewAggregateAdapter(p, AggregateQuery{Days: 90}, nil, WithClock(func() time.Time { return now }))

	for range a.Bars(context.Background(), "msft") {
	}
	assert.Equal(t, models.AggsRequest{
		Ticker: "MSFT", Multiplier: 1, Interval: models.IntervalMinute,
		From: "2024-01-01", To: "2024-03-31", Limit: PageLimit,
	}, p.got)
}

func TestAggregateAdapterWrapsProviderError(t *testing.T) {
	p := &fakeAggs{
		aggs: []models.Aggregate{{Timestamp: 1000, High: 2, Low: 1, Close: 1.5}},
		err:  errors.New("boom"),
	}
	arch := &fakeArchiver{}
	a := NewAggregateAdapter(p, AggregateQuery{Days: 1}, nil, WithArchiver(arch))

	var bars int
	var gotErr error
	for _, err := range a.Bars(context.Background(), "AAPL") {
		if err != nil {
			gotErr = err
			continue
		}
		bars++
	}
	assert.Equal(t, 1, bars)
	var pe *models.ProviderError
	require.ErrorAs(t, gotErr, &pe)
	assert.Equal(t, "polygon", pe.Provider)
	assert.Equal(t, "AAPL", pe.Ticker)
	assert.Zero(t, arch.calls, "partial sequences are not archived")
}

func TestAggregateAdapterArchivesAndSkipsInvalid(t *testing.T) {
	p := &fakeAggs{aggs: []models.Aggregate{
		{Timestamp: 1000, High: 2, Low: 1, Close: 1.5},
		{Timestamp: 2000, High: 1, Low: 2, Close: 1.5},
		{Timestamp: 3000, High: 3, Low: 3, Close: 3},
	}}
	arch := &fakeArchiver{}
	a := NewAggregateAdapter(p, AggregateQuery{Days: 1}, nil, WithArchiver(arch))

	var times []int64
	for bar, err := range a.Bars(context.Background(), "AAPL") {
		require.NoError(t, err)
		times = append(times, bar.Time)
	}
	assert.Equal(t, []int64{1, 3}, times)
	assert.Equal(t, 1, arch.calls)
	assert.Equal(t, 3, arch.n)
}
