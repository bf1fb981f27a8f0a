package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applogger "StockPull/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type routes struct{}

func (routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/ok", func(c echo.Context) error { return SuccessResponse(c, "fine") })
	e.GET("/panic", func(c echo.Context) error { panic("boom") })
	e.GET("/fail", func(c echo.Context) error {
		return AppErrorResponse(c, ServiceUnavailableError("calendar down"))
	})
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type observations struct{ statuses []int }

func (o *observations) ObserveHTTP(_, _ string, status int, _ time.Duration) {
	o.statuses = append(o.statuses, status)
}

func serve(s *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServerRoutesAndEnvelope(t *testing.T) {
	obs := &observations{}
	s := NewServer(applogger.Nop(), []Handler{routes{}}, WithMetrics("/metrics", http.NotFoundHandler(), obs))

	rec := serve(s, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":"fine"}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/fail", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(s, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, []int{200, 503, 500}, obs.statuses)
}

func TestServerRateLimit(t *testing.T) {
	s := NewServer(applogger.Nop(), []Handler{routes{}}, WithRateLimit(denyAll{}))
	rec := serve(s, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestServerCORS(t *testing.T) {
	s := NewServer(applogger.Nop(), []Handler{routes{}}, WithCORS("https://dash.example"))

	rec := serve(s, http.MethodGet, "/ok", map[string]string{"Origin": "https://dash.example"})
	assert.Equal(t, "https://dash.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = serve(s, http.MethodGet, "/ok", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
