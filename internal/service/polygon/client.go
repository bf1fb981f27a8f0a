package polygon

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"StockPull/internal/domain/models"
	phttp "StockPull/pkg/http"
	"StockPull/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.polygon.io"
	// MaxPageLimit is the largest page the aggregates endpoint serves.
	MaxPageLimit = 50000
)

// Client talks to the Polygon REST API. It implements
// repository.AggregateProvider.
type Client struct {
	apiKey    string
	baseURL   string
	pageLimit int
	http      *phttp.Client
	logger    *logger.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *phttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithPageLimit(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= MaxPageLimit {
			c.pageLimit = n
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		pageLimit: MaxPageLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = phttp.NewClient()
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	return c
}

// ListAggs yields aggregates page by page, following next_url until the
// provider stops returning one. A failed page ends the sequence with the
// error.
func (c *Client) ListAggs(ctx context.Context, req models.AggsRequest) iter.Seq2[models.Aggregate, error] {
	return func(yield func(models.Aggregate, error) bool) {
		next := c.aggsURL(req)
		for page := 1; next != ""; page++ {
			resp, err := c.fetchAggs(ctx, next)
			if err != nil {
				yield(models.Aggregate{}, fmt.Errorf("aggs page %d: %w", page, err))
				return
			}
			c.logger.Debug("polygon aggs page",
				logger.String("ticker", req.Ticker),
				logger.Int("page", page),
				logger.Int("results", len(resp.Results)),
				logger.String("status", resp.Status))

			for _, r := range resp.Results {
				if !yield(r.toAggregate(), nil) {
					return
				}
			}
			next = resp.NextURL
		}
	}
}

func (c *Client) aggsURL(req models.AggsRequest) string {
	limit := req.Limit
	if limit <= 0 || limit > c.pageLimit {
		limit = c.pageLimit
	}
	mult := req.Multiplier
	if mult <= 0 {
		mult = 1
	}
	q := url.Values{}
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("limit", strconv.Itoa(limit))
	return fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s?%s",
		c.baseURL, url.PathEscape(strings.ToUpper(req.Ticker)), mult, req.Interval, req.From, req.To, q.Encode())
}

func (c *Client) fetchAggs(ctx context.Context, rawURL string) (*aggsResponse, error) {
	u, err := c.withAPIKey(rawURL)
	if err != nil {
		return nil, err
	}
	var resp aggsResponse
	if err := c.http.SendAndParse(ctx, &phttp.RequestOptions{URL: u}, &resp); err != nil {
		return nil, err
	}
	switch resp.Status {
	case "OK", "DELAYED":
		return &resp, nil
	default:
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return nil, fmt.Errorf("status %s: %s", resp.Status, msg)
	}
}

// withAPIKey makes sure the key is on the URL. next_url links come back
// without it.
func (c *Client) withAPIKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// MarketHolidays returns the upcoming holidays and early closes of one
// exchange.
func (c *Client) MarketHolidays(ctx context.Context, exchange string) ([]models.MarketHoliday, error) {
	u, err := c.withAPIKey(c.baseURL + "/v1/marketstatus/upcoming")
	if err != nil {
		return nil, err
	}
	var raw []upcomingHoliday
	if err := c.http.SendAndParse(ctx, &phttp.RequestOptions{URL: u}, &raw); err != nil {
		return nil, fmt.Errorf("upcoming holidays: %w", err)
	}

	out := make([]models.MarketHoliday, 0, len(raw))
	for _, h := range raw {
		if exchange != "" && !strings.EqualFold(h.Exchange, exchange) {
			continue
		}
		hol, err := h.toHoliday()
		if err != nil {
			return nil, err
		}
		out = append(out, hol)
	}
	return out, nil
}
