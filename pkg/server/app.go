package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "StockPull/pkg/http"
	applogger "StockPull/pkg/logger"
)

// App runs the HTTP server until a termination signal or a server error,
// then shuts it down and closes the registered resources in order.
type App struct {
	logger          *applogger.Logger
	http            *xhttp.Server
	closers         []namedCloser
	shutdownTimeout time.Duration
	signals         []os.Signal
}

type namedCloser struct {
	name string
	c    io.Closer
}

type Option func(*App)

func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) { a.shutdownTimeout = d }
}

// WithCloser registers a resource closed after the HTTP server stops.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) { a.closers = append(a.closers, namedCloser{name: name, c: c}) }
}

func New(l *applogger.Logger, srv *xhttp.Server, opts ...Option) *App {
	a := &App{
		logger:          l,
		http:            srv,
		shutdownTimeout: 15 * time.Second,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run blocks until ctx is done, a signal arrives or the server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	errCh := a.http.Start()
	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			a.logger.Error("http server error", applogger.Error(err))
			runErr = err
		}
	}
	return errors.Join(runErr, a.shutdown())
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.http.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	for _, c := range a.closers {
		if err := c.c.Close(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
