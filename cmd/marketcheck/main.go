package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"StockPull/internal/di"
	"StockPull/internal/domain/models"
	"StockPull/pkg/config"
	applogger "StockPull/pkg/logger"
)

const usage = "usage: marketcheck [--config PATH] status|should_start"

type oracle interface {
	Now() time.Time
	StatusAt(ctx context.Context, t time.Time) (models.MarketStatus, error)
	ShouldStartAt(ctx context.Context, t time.Time) (models.MonitorDecision, error)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("marketcheck", flag.ContinueOnError)
	cfgPath := fs.String("config", config.DefaultPath, "config file path")
	debug := fs.Bool("debug", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || (fs.Arg(0) != "status" && fs.Arg(0) != "should_start") {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Printf("Error checking market status: %v\n", err)
		return 1
	}
	l, err := applogger.New(applogger.CLIConfig(*debug))
	if err != nil {
		fmt.Printf("Error checking market status: %v\n", err)
		return 1
	}
	session, cleanup, err := di.InitializeMarketSession(cfg, l)
	if err != nil {
		fmt.Printf("Error checking market status: %v\n", err)
		return 1
	}
	defer cleanup()

	return check(context.Background(), os.Stdout, session, fs.Arg(0))
}

// check prints the answer for cmd and returns the exit code: 0 when the
// answer is yes, 1 when it is no or the calendar failed.
func check(ctx context.Context, w io.Writer, o oracle, cmd string) int {
	now := o.Now()
	fmt.Fprintf(w, "Current ET: %s\n", now.Format("2006-01-02 15:04:05 MST"))

	var (
		yes    bool
		reason string
		err    error
	)
	switch cmd {
	case "status":
		var st models.MarketStatus
		st, err = o.StatusAt(ctx, now)
		yes, reason = st.Open, st.Reason
		if err == nil {
			fmt.Fprintf(w, "Market open: %t\n", yes)
		}
	case "should_start":
		var d models.MonitorDecision
		d, err = o.ShouldStartAt(ctx, now)
		yes, reason = d.Start, d.Reason
		if err == nil {
			fmt.Fprintf(w, "Should start: %t\n", yes)
		}
	default:
		fmt.Fprintln(w, usage)
		return 2
	}
	if err != nil {
		fmt.Fprintf(w, "Error checking market status: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "Reason: %s\n", reason)
	if yes {
		return 0
	}
	return 1
}
