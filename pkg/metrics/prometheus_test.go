package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New(false)
	r.RecordBarsWritten("postgres", 1000)
	r.RecordBarsWritten("postgres", 500)
	r.RecordCommit("postgres")
	r.RecordCommit("postgres")
	r.RecordRollback("postgres")
	r.RecordTicker("yahoo", "ok")
	r.RecordLastPrice("AAPL", 191.5)

	assert.Equal(t, 1500.0, testutil.ToFloat64(r.barsWritten.WithLabelValues("postgres")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.commits.WithLabelValues("postgres")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rollbacks.WithLabelValues("postgres")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tickers.WithLabelValues("yahoo", "ok")))
	assert.Equal(t, 191.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("AAPL")))
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(false), New(false)
	a.RecordError("x")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.errorsTotal.WithLabelValues("x")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.errorsTotal.WithLabelValues("x")))
}

func TestObservePublishError(t *testing.T) {
	r := New(false)
	r.ObservePublish("bars", 3, 120, time.Millisecond, errors.New("down"))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.kafkaMsgs.WithLabelValues("bars", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("kafka_publish")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New(false)
	r.ObserveHTTP("/api/market/status", http.MethodGet, 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `stockpull_http_requests_total{method="GET",route="/api/market/status",status="200"} 1`)
}

func TestPush(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(false)
	r.RecordCommit("postgres")
	require.NoError(t, r.Push(context.Background(), srv.URL, "backfill"))
	assert.True(t, strings.HasPrefix(path, "/metrics/job/backfill"), path)
}
