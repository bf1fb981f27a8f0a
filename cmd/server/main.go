package main

import (
	"context"
	"flag"
	"log"
	"os"

	"StockPull/internal/di"
	"StockPull/pkg/config"
	applogger "StockPull/pkg/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := applogger.New(&applogger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	l.Info("starting",
		applogger.String("env", cfg.Environment),
		applogger.String("backend", cfg.Storage.Backend),
		applogger.String("calendar", cfg.Calendar.Source))

	app, cleanup, err := di.InitializeServer(cfg, l)
	if err != nil {
		l.Error("app initialization failed", applogger.Error(err))
		os.Exit(1)
	}

	err = app.Run(context.Background())
	cleanup()
	if err != nil {
		l.Error("app error", applogger.Error(err))
		os.Exit(1)
	}
}
