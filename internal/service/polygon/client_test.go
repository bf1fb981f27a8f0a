package polygon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPull/internal/domain/models"
)

func TestListAggsFollowsNextURL(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("apiKey"))
		switch r.URL.Path {
		case "/v2/aggs/ticker/AAPL/range/1/minute/2024-01-01/2024-01-02":
			assert.Equal(t, "50000", r.URL.Query().Get("limit"))
			assert.Equal(t, "asc", r.URL.Query().Get("sort"))
			fmt.Fprintf(w, `{"status":"OK","results":[{"t":1704103200000,"o":1,"h":2,"l":0.5,"c":1.5,"v":1e3,"vw":1.4,"n":12}],"next_url":"%s/v2/aggs/cursor/abc"}`, srv.URL)
		case "/v2/aggs/cursor/abc":
			_, _ = w.Write([]byte(`{"status":"DELAYED","results":[{"t":1704103260000,"o":1.5,"h":1.6,"l":1.4,"c":1.55,"v":200}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	var got []models.Aggregate
	for agg, err := range c.ListAggs(context.Background(), models.AggsRequest{
		Ticker: "aapl", Multiplier: 1, Interval: models.IntervalMinute, From: "2024-01-01", To: "2024-01-02",
	}) {
		require.NoError(t, err)
		got = append(got, agg)
	}

	require.Len(t, got, 2)
	assert.Equal(t, 1000.0, got[0].Volume)
	require.NotNil(t, got[0].VWAP)
	assert.Equal(t, 1.4, *got[0].VWAP)
	require.NotNil(t, got[0].Transactions)
	assert.Equal(t, int64(12), *got[0].Transactions)
	assert.Nil(t, got[1].VWAP)
	assert.Nil(t, got[1].Transactions)
}

func TestListAggsStopsOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ERROR","error":"bad ticker"}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	var errs []error
	for _, err := range c.ListAggs(context.Background(), models.AggsRequest{Ticker: "X", Interval: models.IntervalDay}) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "bad ticker")
}

func TestListAggsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL))
	for _, err := range c.ListAggs(context.Background(), models.AggsRequest{Ticker: "X", Interval: models.IntervalDay}) {
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "secret")
	}
}

func TestMarketHolidays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/marketstatus/upcoming", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"exchange":"NYSE","name":"Thanksgiving","date":"2024-11-28","status":"closed"},
			{"exchange":"NASDAQ","name":"Thanksgiving","date":"2024-11-28","status":"closed"},
			{"exchange":"NYSE","name":"Thanksgiving","date":"2024-11-29","status":"early-close","open":"2024-11-29T14:30:00.000Z","close":"2024-11-29T18:00:00.000Z"}
		]`))
	}))
	defer srv.Close()

	hols, err := NewClient("k", WithBaseURL(srv.URL)).MarketHolidays(context.Background(), "nyse")
	require.NoError(t, err)
	require.Len(t, hols, 2)
	assert.Equal(t, models.HolidayClosed, hols[0].Status)
	assert.Equal(t, models.HolidayEarlyClose, hols[1].Status)
	require.NotNil(t, hols[1].Close)
	assert.Equal(t, 18, hols[1].Close.UTC().Hour())
}

func TestFlexibleInt64(t *testing.T) {
	for in, want := range map[string]int64{`12`: 12, `1.2e3`: 1200, `"7"`: 7} {
		var f FlexibleInt64
		require.NoError(t, f.UnmarshalJSON([]byte(in)))
		assert.Equal(t, want, f.Int64())
	}
	var f FlexibleInt64
	assert.Error(t, f.UnmarshalJSON([]byte(`{}`)))
	assert.Error(t, f.UnmarshalJSON([]byte(`1e19`)))
	assert.Error(t, f.UnmarshalJSON([]byte(`"-1e30"`)))
}
