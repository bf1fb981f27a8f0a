package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"StockPull/internal/adapter"
	"StockPull/internal/di"
	"StockPull/internal/domain/models"
	"StockPull/pkg/config"
	applogger "StockPull/pkg/logger"
	"StockPull/pkg/util"
)

const usage = "usage: backfill TICKER [--days N] [--interval minute|hour|day] [--multiplier N] [--debug] [--config PATH]"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	days := fs.Int("days", 0, "days of history (default backfill.days)")
	interval := fs.String("interval", "", "bar interval: minute, hour or day (default backfill.interval)")
	multiplier := fs.Int("multiplier", 0, "interval multiplier (default backfill.multiplier)")
	debug := fs.Bool("debug", false, "debug logging")
	cfgPath := fs.String("config", config.DefaultPath, "config file path")

	pos, err := util.ParseInterleaved(fs, args)
	if err != nil {
		return 2
	}
	if len(pos) != 1 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if err := cfg.RequirePolygonKey(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	l, err := applogger.New(applogger.CLIConfig(*debug))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}

	q := adapter.AggregateQuery{Days: cfg.Backfill.Days, Multiplier: cfg.Backfill.Multiplier}
	if *days > 0 {
		q.Days = *days
	}
	if *multiplier > 0 {
		q.Multiplier = *multiplier
	}
	raw := cfg.Backfill.Interval
	if *interval != "" {
		raw = *interval
	}
	if q.Interval, err = models.ParseInterval(raw); err != nil {
		l.Error("Invalid arguments", applogger.Error(err))
		return 1
	}

	job, cleanup, err := di.InitializeBackfill(cfg, l, q)
	if err != nil {
		l.Error("Initialization failed", applogger.Error(err))
		return 1
	}
	defer cleanup()
	defer di.PushMetrics(cfg, job.Metrics, l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := job.Backfill.Run(ctx, pos[0]); err != nil {
		l.Error("Backfill failed", applogger.String("ticker", pos[0]), applogger.Error(err))
		return 1
	}
	return 0
}
