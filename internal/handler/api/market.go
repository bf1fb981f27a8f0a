package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"StockPull/internal/domain/models"
	xhttp "StockPull/pkg/http"
	xlogger "StockPull/pkg/logger"
)

type marketOracle interface {
	StatusAt(ctx context.Context, t time.Time) (models.MarketStatus, error)
	ShouldStartAt(ctx context.Context, t time.Time) (models.MonitorDecision, error)
}

type healthChecker interface {
	Name() string
	Health(ctx context.Context) error
}

// MarketHandler serves the market gating endpoints and the health check.
// Calendar failures answer 503 with a closed / do-not-start body.
type MarketHandler struct {
	logger  *xlogger.Logger
	oracle  marketOracle
	storage healthChecker
	now     func() time.Time
}

func NewMarketHandler(logger *xlogger.Logger, oracle marketOracle, storage healthChecker) *MarketHandler {
	return &MarketHandler{logger: logger, oracle: oracle, storage: storage, now: time.Now}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api/market")
	g.GET("/status", h.Status)
	g.GET("/should-start", h.ShouldStart)
}

func (h *MarketHandler) Health(c echo.Context) error {
	if err := h.storage.Health(c.Request().Context()); err != nil {
		h.logger.Warn("storage health check failed", xlogger.String("storage", h.storage.Name()), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("storage unavailable").
			WithParam("storage", h.storage.Name()).WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok", "storage": h.storage.Name()})
}

func (h *MarketHandler) Status(c echo.Context) error {
	at, verr := h.readAt(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	st, err := h.oracle.StatusAt(c.Request().Context(), at)
	if err != nil {
		h.logger.Error("market status error", xlogger.Error(err))
		return xhttp.UnavailableResponse(c, models.NewMarketStatusResponse(st))
	}
	return xhttp.SuccessResponse(c, models.NewMarketStatusResponse(st))
}

func (h *MarketHandler) ShouldStart(c echo.Context) error {
	at, verr := h.readAt(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	d, err := h.oracle.ShouldStartAt(c.Request().Context(), at)
	if err != nil {
		h.logger.Error("should-start error", xlogger.Error(err))
		return xhttp.UnavailableResponse(c, models.NewMonitorDecisionResponse(d))
	}
	return xhttp.SuccessResponse(c, models.NewMonitorDecisionResponse(d))
}

func (h *MarketHandler) readAt(c echo.Context) (time.Time, []xhttp.ValidationError) {
	req := &models.MarketQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return time.Time{}, verr
	}
	if req.At == "" {
		return h.now(), nil
	}
	at, err := time.Parse(time.RFC3339, req.At)
	if err != nil {
		return time.Time{}, []xhttp.ValidationError{{Code: "ERR_DATETIME", Field: "at", Message: err.Error()}}
	}
	return at, nil
}
