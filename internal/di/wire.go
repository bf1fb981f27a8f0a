//go:build wireinject
// +build wireinject

package di

import (
	"StockPull/internal/adapter"
	"StockPull/internal/usecase"
	"StockPull/pkg/config"
	applogger "StockPull/pkg/logger"
	"StockPull/pkg/server"

	"github.com/google/wire"
)

var storageSet = wire.NewSet(
	ProvideStorage,
	ProvideBarWriter,
)

var calendarSet = wire.NewSet(
	ProvidePolygonClient,
	ProvideCache,
	ProvideLocation,
	ProvideHolidaySource,
	ProvideCalendar,
	ProvideMarketSession,
)

// InitializeBackfill wires the Polygon backfill job.
func InitializeBackfill(cfg *config.Config, l *applogger.Logger, q adapter.AggregateQuery) (*BackfillJob, func(), error) {
	wire.Build(
		ProvideJobMetrics,
		storageSet,
		ProvidePolygonClient,
		ProvideArchiver,
		ProvideAggregateAdapter,
		ProvideBackfill,
		wire.Struct(new(BackfillJob), "*"),
	)
	return nil, nil, nil
}

// InitializeSnapshot wires the Yahoo snapshot job.
func InitializeSnapshot(cfg *config.Config, l *applogger.Logger) (*SnapshotJob, func(), error) {
	wire.Build(
		ProvideJobMetrics,
		storageSet,
		ProvideYahooClient,
		ProvideSnapshotAdapter,
		ProvideSnapshotRunner,
		wire.Struct(new(SnapshotJob), "*"),
	)
	return nil, nil, nil
}

// InitializeExport wires the SQL dump of the stocks table.
func InitializeExport(cfg *config.Config, l *applogger.Logger) (*ExportJob, func(), error) {
	wire.Build(
		ProvideRowSource,
		ProvideSQLExporter,
		wire.Struct(new(ExportJob), "*"),
	)
	return nil, nil, nil
}

// InitializeMarketSession wires the trading calendar for cmd/marketcheck.
func InitializeMarketSession(cfg *config.Config, l *applogger.Logger) (*usecase.MarketSession, func(), error) {
	wire.Build(calendarSet)
	return nil, nil, nil
}

// InitializeServer wires the HTTP status server.
func InitializeServer(cfg *config.Config, l *applogger.Logger) (*server.App, func(), error) {
	wire.Build(
		ProvideServerMetrics,
		ProvideStorage,
		calendarSet,
		ProvideRateLimiter,
		ProvideMarketHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
