package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"StockPull/internal/domain/models"
	phttp "StockPull/pkg/http"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches intraday charts. It implements
// repository.SnapshotProvider.
type Client struct {
	baseURL string
	http    *phttp.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *phttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(opts ...Option) *Client {
	c := &Client{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = phttp.NewClient(phttp.WithUserAgent("Mozilla/5.0"))
	}
	return c
}

// Snapshot returns today's 1-minute bars including pre and post market,
// with the chart's day summary. Minutes with no close are skipped.
func (c *Client) Snapshot(ctx context.Context, ticker string) (*models.Snapshot, error) {
	q := url.Values{}
	q.Set("range", "1d")
	q.Set("interval", "1m")
	q.Set("includePrePost", "true")

	var resp chartResponse
	err := c.http.SendAndParse(ctx, &phttp.RequestOptions{
		URL:         fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(strings.ToUpper(ticker))),
		QueryParams: q,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("chart %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return &models.Snapshot{}, nil
	}

	res := resp.Chart.Result[0]
	snap := &models.Snapshot{
		Info: models.QuoteInfo{
			DayHigh:       res.Meta.DayHigh,
			DayLow:        res.Meta.DayLow,
			PreviousClose: firstNonNil(res.Meta.PreviousClose, res.Meta.ChartPreviousClose),
			MarketCap:     res.Meta.MarketCap,
			TrailingPE:    res.Meta.TrailingPE,
		},
	}
	if len(res.Indicators.Quote) == 0 {
		return snap, nil
	}

	quote := res.Indicators.Quote[0]
	for i, ts := range res.Timestamp {
		closePx := at(quote.Close, i)
		if closePx == nil {
			continue
		}
		bar := models.MinuteBar{
			Time:  time.Unix(ts, 0).UTC(),
			Close: *closePx,
			Open:  valueOr(at(quote.Open, i), *closePx),
			High:  valueOr(at(quote.High, i), *closePx),
			Low:   valueOr(at(quote.Low, i), *closePx),
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		snap.Minutes = append(snap.Minutes, bar)
	}
	return snap, nil
}

func at(col []*float64, i int) *float64 {
	if i < len(col) {
		return col[i]
	}
	return nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func firstNonNil(ps ...*float64) *float64 {
	for _, p := range ps {
		if p != nil {
			return p
		}
	}
	return nil
}
