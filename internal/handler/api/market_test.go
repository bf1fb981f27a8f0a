package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPull/internal/domain/models"
	drepo "StockPull/internal/domain/repository"
	"StockPull/internal/service/calendar"
	"StockPull/internal/usecase"
	xlogger "StockPull/pkg/logger"
)

type brokenCalendar struct{}

func (brokenCalendar) Schedule(context.Context, time.Time, time.Time) ([]models.Schedule, error) {
	return nil, errors.New("feed down")
}

type stubStorage struct{ err error }

func (stubStorage) Name() string                   { return "postgres" }
func (s stubStorage) Health(context.Context) error { return s.err }

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestEcho(t *testing.T, cal drepo.Calendar, st stubStorage) *echo.Echo {
	t.Helper()
	loc, err := calendar.LoadLocation("America/New_York")
	require.NoError(t, err)
	session := usecase.NewMarketSession(cal, loc)
	h := NewMarketHandler(xlogger.Nop(), session, st)
	h.now = func() time.Time { return time.Date(2024, 7, 3, 10, 0, 0, 0, loc) }
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func rulesCalendar(t *testing.T) *calendar.ExchangeCalendar {
	loc, err := calendar.LoadLocation("America/New_York")
	require.NoError(t, err)
	return calendar.NewExchangeCalendar(calendar.NewRulesSource(loc), loc)
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestMarketStatusAt(t *testing.T) {
	e := newTestEcho(t, rulesCalendar(t), stubStorage{})

	rec := get(e, "/api/market/status?at=2024-01-02T15:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[models.MarketStatusResponse](t, rec)
	assert.True(t, st.Open)
	assert.Equal(t, "in_session", st.Phase)
	assert.Equal(t, "Market open (closes at 16:00 ET)", st.Reason)

	rec = get(e, "/api/market/status?at=2024-12-25T15:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[models.MarketStatusResponse](t, rec)
	assert.False(t, st.Open)
	assert.Equal(t, "Market holiday", st.Reason)
}

func TestMarketStatusDefaultsToNow(t *testing.T) {
	e := newTestEcho(t, rulesCalendar(t), stubStorage{})

	rec := get(e, "/api/market/status")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[models.MarketStatusResponse](t, rec)
	assert.True(t, st.Open)
	assert.True(t, st.EarlyClose)
	assert.Equal(t, "Market open (early close at 13:00 ET)", st.Reason)
}

func TestMarketStatusRejectsBadTime(t *testing.T) {
	e := newTestEcho(t, rulesCalendar(t), stubStorage{})

	rec := get(e, "/api/market/status?at=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"at"`)
}

func TestMarketStatusCalendarFailureIsClosed(t *testing.T) {
	e := newTestEcho(t, brokenCalendar{}, stubStorage{})

	rec := get(e, "/api/market/status?at=2024-01-02T15:00:00Z")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	st := decode[models.MarketStatusResponse](t, rec)
	assert.False(t, st.Open)
	assert.Equal(t, "Calendar unavailable", st.Reason)

	rec = get(e, "/api/market/should-start?at=2024-01-02T15:00:00Z")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	d := decode[models.MonitorDecisionResponse](t, rec)
	assert.False(t, d.Start)
}

func TestShouldStart(t *testing.T) {
	e := newTestEcho(t, rulesCalendar(t), stubStorage{})

	// 09:26 ET, inside the pre-open buffer.
	rec := get(e, "/api/market/should-start?at=2024-01-02T14:26:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[models.MonitorDecisionResponse](t, rec)
	assert.True(t, d.Start)
	assert.Equal(t, "before_open", d.Phase)
	assert.Equal(t, "Good time to start monitoring", d.Reason)

	rec = get(e, "/api/market/should-start?at=2024-01-06T15:00:00Z")
	d = decode[models.MonitorDecisionResponse](t, rec)
	assert.False(t, d.Start)
	assert.Equal(t, "Weekend (Saturday)", d.Reason)
}

func TestHealth(t *testing.T) {
	rec := get(newTestEcho(t, rulesCalendar(t), stubStorage{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage":"postgres"`)

	rec = get(newTestEcho(t, rulesCalendar(t), stubStorage{err: errors.New("refused")}), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
