package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"StockPull/internal/di"
	"StockPull/internal/usecase"
	"StockPull/pkg/config"
	applogger "StockPull/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	output := fs.String("output", "", "output file (default export.output)")
	table := fs.String("table", "", "target table name (default export.table)")
	batchSize := fs.Int("batch-size", 0, "rows per INSERT (default export.batch_size)")
	where := fs.String("where", "", "optional SQL filter, e.g. \"ticker = 'AAPL'\"")
	debug := fs.Bool("debug", false, "debug logging")
	cfgPath := fs.String("config", config.DefaultPath, "config file path")
	if err := fs.Parse(args); err != nil {
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

	opts := usecase.ExportOptions{Table: cfg.Export.Table, BatchSize: cfg.Export.BatchSize, Where: *where}
	if *table != "" {
		opts.Table = *table
	}
	if *batchSize > 0 {
		opts.BatchSize = *batchSize
	}
	path := cfg.Export.Output
	if *output != "" {
		path = *output
	}

	job, cleanup, err := di.InitializeExport(cfg, l)
	if err != nil {
		l.Error("Initialization failed", applogger.Error(err))
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := &lazyFile{path: path}
	n, err := job.Exporter.Export(ctx, out, opts)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		l.Error("Export failed", applogger.Error(err))
		return 1
	}
	if n == 0 {
		return 0
	}

	l.Info("Export completed successfully!")
	l.Info("Output file: " + path)
	if st, err := os.Stat(path); err == nil {
		l.Info(fmt.Sprintf("File size: %.2f MB", float64(st.Size())/(1024*1024)))
	}
	return 0
}

// lazyFile creates the file on the first write, so an export that writes
// nothing leaves nothing behind.
type lazyFile struct {
	path string
	f    *os.File
}

func (w *lazyFile) Write(p []byte) (int, error) {
	if w.f == nil {
		f, err := os.Create(w.path)
		if err != nil {
			return 0, err
		}
		w.f = f
	}
	return w.f.Write(p)
}

func (w *lazyFile) Close() error {
	if w.f == nil {
		return nil
	}
	return w.f.Close()
}
