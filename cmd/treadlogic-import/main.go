package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/xpasha85/treadlogic-server/internal/config"
	"github.com/xpasha85/treadlogic-server/internal/importer"
	"github.com/xpasha85/treadlogic-server/internal/logging"
	"github.com/xpasha85/treadlogic-server/internal/storage"
	"github.com/xpasha85/treadlogic-server/internal/workouts"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	path := flag.String("path", "", "plan export file or directory of *.json / *.json.gz files (required)")
	dryRun := flag.Bool("dry-run", false, "validate and report counts without storing")
	flag.Parse()

	boot := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: treadlogic-import -config config.yaml -path plans.json [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		boot.Warn("failed to load .env", "error", err)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(cfg.Logging)
	defer logCloser.Close()

	if *dryRun {
		log.Info("DRY RUN mode, no plans will be stored")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Run import
	imp := importer.New(workouts.NewService(store, log), log, *dryRun)
	stats, err := imp.Import(ctx, *path)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"plans_received", stats.PlansReceived,
		"plans_upserted", stats.PlansUpserted,
		"plans_invalid", stats.PlansInvalid,
	)
	if len(stats.InvalidPlans) > 0 {
		log.Info("invalid plans (skipped)", "plans", stats.InvalidPlans)
	}
}
