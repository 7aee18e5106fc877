package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/zeusync/simphys/internal/core/observability/log"
	"github.com/zeusync/simphys/internal/injector"
	"github.com/zeusync/simphys/internal/scenario"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("simphys", flag.ContinueOnError)
	level := fs.String("level", "info", "log level: debug, info, warn, error")
	encoding := fs.String("log-format", "", "log encoding: json or console (default: console on a terminal)")
	workers := fs.Int("workers", 0, "scenarios run in parallel (0 = one per CPU)")
	asJSON := fs.Bool("json", false, "print results as JSON")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: simphys [flags] scenario.yaml...\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	lvl, err := log.ParseLevel(*level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *encoding == "" {
		*encoding = "json"
		if term.IsTerminal(int(os.Stderr.Fd())) {
			*encoding = "console"
		}
	}

	app := injector.InitializeApp(log.Config{Level: lvl, Encoding: *encoding})
	defer func() { _ = app.Log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scenarios, err := scenario.LoadFiles(ctx, fs.Args(), *workers)
	if err != nil {
		app.Log.Error("load scenarios", log.Error(err))
		return 1
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopCh)
	go func() {
		select {
		case <-stopCh:
			app.Log.Warn("interrupted, stopping runs")
			cancel()
		case <-ctx.Done():
		}
	}()

	results, errs := app.Runner.RunAll(ctx, scenarios, *workers)

	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		lv := log.LevelError
		if errors.Is(err, context.Canceled) {
			lv = log.LevelWarn
		}
		app.Log.Log(lv, "scenario failed", log.String("scenario", scenarios[i].Name), log.Error(err))
	}

	metrics := app.Bus.GetMetrics()
	app.Log.Info("events published",
		log.Uint64("published", metrics.Published),
		log.Uint64("delivered", metrics.DeliveredHandlers),
		log.Uint64("handler_errors", metrics.Errors),
	)

	if err = report(results, *asJSON); err != nil {
		app.Log.Error("write report", log.Error(err))
		return 1
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func report(results []*scenario.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		out := make([]*scenario.Result, 0, len(results))
		for _, r := range results {
			if r != nil {
				out = append(out, r)
			}
		}
		return enc.Encode(out)
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		if err := r.WriteSummary(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}
