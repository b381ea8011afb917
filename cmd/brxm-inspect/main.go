package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/core/config"
	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

var (
	configPath = flag.String("config", "./inspection.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single inspection and exit")
	watch      = flag.Bool("watch", false, "Re-inspect files as they change")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("brxm-inspect v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./inspection.toml" && os.IsNotExist(err) {
			cfg = config.Default()
		} else {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	if flag.NArg() > 0 {
		cfg.ProjectRoot = flag.Arg(0)
	}
	if !filepath.IsAbs(cfg.ProjectRoot) {
		cwd, _ := os.Getwd()
		cfg.ProjectRoot = filepath.Join(cwd, cfg.ProjectRoot)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	results, err := app.RunOnce(ctx)
	if err != nil {
		slog.Error("inspection failed", "error", err)
		os.Exit(1)
	}

	if *once || !*watch {
		app.Close()
		if results.BySeverity()[rule.SeverityError] > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := app.StartWatch(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("shutting down")
}
