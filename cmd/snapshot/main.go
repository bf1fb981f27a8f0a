package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"StockPull/internal/di"
	"StockPull/pkg/config"
	applogger "StockPull/pkg/logger"
	"StockPull/pkg/util"
)

const usage = "usage: snapshot TICKER... [--debug] [--config PATH]"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "debug logging")
	cfgPath := fs.String("config", config.DefaultPath, "config file path")

	tickers, err := util.ParseInterleaved(fs, args)
	if err != nil {
		return 2
	}
	if len(util.NormalizeTickers(tickers)) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	l, err := applogger.New(applogger.CLIConfig(*debug))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}

	job, cleanup, err := di.InitializeSnapshot(cfg, l)
	if err != nil {
		l.Error("Initialization failed", applogger.Error(err))
		return 1
	}
	defer cleanup()
	defer di.PushMetrics(cfg, job.Metrics, l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := job.Runner.Run(ctx, tickers); err != nil {
		l.Error("Snapshot failed", applogger.Error(err))
		return 1
	}
	return 0
}
