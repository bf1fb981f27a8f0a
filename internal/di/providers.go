package di

import (
	"context"
	"fmt"
	"time"

	"StockPull/internal/adapter"
	"StockPull/internal/domain/repository"
	"StockPull/internal/handler/api"
	internalrepo "StockPull/internal/repository"
	"StockPull/internal/repository/archive"
	"StockPull/internal/service/calendar"
	"StockPull/internal/service/polygon"
	"StockPull/internal/service/ratelimit"
	"StockPull/internal/service/yahoo"
	"StockPull/internal/usecase"
	"StockPull/pkg/cache"
	pkgch "StockPull/pkg/clickhouse"
	"StockPull/pkg/config"
	xhttp "StockPull/pkg/http"
	pkgkafka "StockPull/pkg/kafka"
	applogger "StockPull/pkg/logger"
	"StockPull/pkg/metrics"
	pkgpg "StockPull/pkg/postgres"
	"StockPull/pkg/server"
)

const initTimeout = 30 * time.Second

// BackfillJob is everything cmd/backfill needs.
type BackfillJob struct {
	Backfill *usecase.Backfill
	Metrics  *metrics.Recorder
}

type SnapshotJob struct {
	Runner  *usecase.SnapshotRunner
	Metrics *metrics.Recorder
}

type ExportJob struct {
	Exporter *usecase.SQLExporter
}

// ProvideJobMetrics is the recorder of the batch commands. It carries no
// runtime collectors since it is pushed once at exit.
func ProvideJobMetrics() *metrics.Recorder {
	return metrics.New(false)
}

func ProvideServerMetrics() *metrics.Recorder {
	return metrics.New(true)
}

// ProvideStorage opens the configured backend and ensures its schema.
func ProvideStorage(cfg *config.Config, l *applogger.Logger, rec *metrics.Recorder) (repository.Storage, func(), error) {
	st, err := openStorage(cfg, l, rec)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := st.Init(ctx); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("%s init: %w", st.Name(), err)
	}
	l.Debug("storage ready", applogger.String("backend", st.Name()))
	return st, closeStorage(st, l), nil
}

func openStorage(cfg *config.Config, l *applogger.Logger, rec *metrics.Recorder) (repository.Storage, error) {
	var (
		st  repository.Storage
		err error
	)
	switch cfg.Storage.Backend {
	case "postgres":
		st, err = providePostgresStorage(cfg, l)
	case "clickhouse":
		st, err = provideClickHouseStorage(cfg, l)
	case "kafka":
		st, err = provideKafkaStorage(cfg, rec)
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func closeStorage(st repository.Storage, l *applogger.Logger) func() {
	return func() {
		if err := st.Close(); err != nil {
			l.Warn("storage close error", applogger.String("backend", st.Name()), applogger.Error(err))
		}
	}
}

func providePostgresStorage(cfg *config.Config, l *applogger.Logger) (*internalrepo.PostgresStorage, error) {
	client, err := pkgpg.NewClient(
		pkgpg.WithDSN(cfg.Postgres.DSN),
		pkgpg.WithMaxConnections(cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns),
		pkgpg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pkgpg.WithLogLevel(cfg.Postgres.LogLevel),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	return internalrepo.NewPostgresStorage(client, cfg.Storage.BatchSize, l), nil
}

func provideClickHouseStorage(cfg *config.Config, l *applogger.Logger) (*internalrepo.ClickHouseStorage, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return internalrepo.NewClickHouseStorage(client, cfg.ClickHouse.Table, l), nil
}

func provideKafkaStorage(cfg *config.Config, rec *metrics.Recorder) (*internalrepo.KafkaStorage, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithObserver(rec),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaStorage(producer), nil
}

// ProvideRowSource opens the backend for reading only: the schema is
// neither created nor migrated. Kafka is write only.
func ProvideRowSource(cfg *config.Config, l *applogger.Logger) (repository.RowSource, func(), error) {
	if cfg.Storage.Backend == "kafka" {
		return nil, nil, fmt.Errorf("storage backend %q cannot be exported", cfg.Storage.Backend)
	}
	st, err := openStorage(cfg, l, nil)
	if err != nil {
		return nil, nil, err
	}
	rows, ok := st.(repository.RowSource)
	if !ok {
		_ = st.Close()
		return nil, nil, fmt.Errorf("storage backend %q cannot be exported", st.Name())
	}
	return rows, closeStorage(st, l), nil
}

func ProvideBarWriter(st repository.Storage, cfg *config.Config, l *applogger.Logger, rec *metrics.Recorder) *usecase.BarWriter {
	return usecase.NewBarWriter(st, cfg.Storage.BatchSize, l, rec)
}

func ProvidePolygonClient(cfg *config.Config, l *applogger.Logger) *polygon.Client {
	return polygon.NewClient(cfg.Polygon.APIKey,
		polygon.WithBaseURL(cfg.Polygon.BaseURL),
		polygon.WithPageLimit(cfg.Polygon.PageLimit),
		polygon.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Polygon.Timeout))),
		polygon.WithLogger(l),
	)
}

func ProvideYahooClient(cfg *config.Config) *yahoo.Client {
	return yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(xhttp.NewClient(
			xhttp.WithTimeout(cfg.Yahoo.Timeout),
			xhttp.WithUserAgent(cfg.Yahoo.UserAgent),
		)),
	)
}

// ProvideArchiver returns nil when no archive directory is configured.
func ProvideArchiver(cfg *config.Config) (repository.Archiver, error) {
	if cfg.Backfill.ArchiveDir == "" {
		return nil, nil
	}
	saver, err := archive.NewSaver(cfg.Backfill.ArchiveFormat)
	if err != nil {
		return nil, err
	}
	return archive.NewFileArchiver(cfg.Backfill.ArchiveDir, saver), nil
}

func ProvideAggregateAdapter(pc *polygon.Client, q adapter.AggregateQuery, arch repository.Archiver, l *applogger.Logger) *adapter.AggregateAdapter {
	return adapter.NewAggregateAdapter(pc, q, l, adapter.WithArchiver(arch))
}

func ProvideBackfill(src *adapter.AggregateAdapter, w *usecase.BarWriter, l *applogger.Logger, rec *metrics.Recorder) *usecase.Backfill {
	return usecase.NewBackfill(src, "polygon", w, l, rec)
}

func ProvideSnapshotAdapter(yc *yahoo.Client, l *applogger.Logger) *adapter.SnapshotAdapter {
	return adapter.NewSnapshotAdapter(yc, l)
}

func ProvideSnapshotRunner(src *adapter.SnapshotAdapter, w *usecase.BarWriter, l *applogger.Logger, rec *metrics.Recorder) *usecase.SnapshotRunner {
	return usecase.NewSnapshotRunner(src, "yahoo", w, l, rec)
}

func ProvideSQLExporter(rows repository.RowSource, l *applogger.Logger) *usecase.SQLExporter {
	return usecase.NewSQLExporter(rows, l)
}

// ProvideCache is an in-process cache, layered over Redis when enabled so
// several processes share calendar lookups.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(256))
		return mc, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := cache.NewLayeredCache(rc, time.Minute, cache.WithMemoryMaxSize(256))
	cleanup := func() {
		if err := lc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return lc, cleanup, nil
}

func ProvideLocation(cfg *config.Config) (*time.Location, error) {
	return calendar.LoadLocation(cfg.Calendar.Timezone)
}

// ProvideHolidaySource builds the rule based NYSE holidays, overlaid with
// Polygon's upcoming list when configured, behind the cache.
func ProvideHolidaySource(cfg *config.Config, pc *polygon.Client, c cache.Service, loc *time.Location, l *applogger.Logger) repository.HolidaySource {
	var src repository.HolidaySource = calendar.NewRulesSource(loc)
	name := "rules"
	if cfg.Calendar.Source == "polygon" {
		src = calendar.NewMergedSource(src, calendar.NewPolygonSource(pc, cfg.Calendar.Exchange, loc))
		name = "polygon"
	}
	return calendar.NewCachedSource(src, c, name, cfg.Calendar.CacheTTL, loc, l)
}

func ProvideCalendar(src repository.HolidaySource, loc *time.Location) repository.Calendar {
	return calendar.NewExchangeCalendar(src, loc)
}

func ProvideMarketSession(cal repository.Calendar, loc *time.Location) *usecase.MarketSession {
	return usecase.NewMarketSession(cal, loc)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(int(cfg.Server.RateLimit.Capacity), cfg.Server.RateLimit.RefillPerSec)
}

func ProvideMarketHandler(l *applogger.Logger, ms *usecase.MarketSession, st repository.Storage) *api.MarketHandler {
	return api.NewMarketHandler(l, ms, st)
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.MarketHandler, rec *metrics.Recorder, lim *ratelimit.Limiter) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithAddress("0.0.0.0", cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithRateLimit(lim),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, rec.Handler(), rec))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideApp owns the server lifecycle. Storage and cache are closed by
// the injector cleanup.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server) *server.App {
	return server.New(l, srv, server.WithShutdownTimeout(cfg.Server.ShutdownTimeout))
}

// PushMetrics sends rec to the configured Pushgateway, if any. Failures
// are logged and never change the command's outcome.
func PushMetrics(cfg *config.Config, rec *metrics.Recorder, l *applogger.Logger) {
	if cfg.Metrics.Pushgateway == "" || rec == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rec.Push(ctx, cfg.Metrics.Pushgateway, cfg.Metrics.Job); err != nil {
		l.Warn("metrics push failed", applogger.Error(err))
	}
}
