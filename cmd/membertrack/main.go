package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/datastore"
	"github.com/aleister1102/membertrack/internal/differ"
	"github.com/aleister1102/membertrack/internal/fetcher"
	"github.com/aleister1102/membertrack/internal/logger"
	"github.com/aleister1102/membertrack/internal/notifier"
	"github.com/aleister1102/membertrack/internal/orchestrator"
	"github.com/aleister1102/membertrack/internal/reporter"
	"github.com/aleister1102/membertrack/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	exitOK       = 0
	exitFatal    = 1
	exitNoCounts = 2

	defaultExportFile = "member_counts.parquet"
)

func main() {
	os.Exit(run(ParseFlags()))
}

func run(flags AppFlags) int {
	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile, bootLogger)
	if err != nil {
		bootLogger.Error().Err(err).Str("path", flags.GlobalConfigFile).Msg("Could not load global config")
		return exitFatal
	}

	if flags.Mode != "" {
		gCfg.Mode = flags.Mode
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		bootLogger.Error().Err(err).Msg("Could not initialize logger")
		return exitFatal
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Error().Err(err).Msg("Configuration validation failed")
		return exitFatal
	}
	zLogger.Info().Str("mode", gCfg.Mode).Int("targets", len(gCfg.TargetsConfig.Targets)).Msg("Configuration loaded")

	store, err := datastore.NewSnapshotStore(gCfg.StorageConfig.SQLitePath, zLogger)
	if err != nil {
		zLogger.Error().Err(err).Str("path", gCfg.StorageConfig.SQLitePath).Msg("Snapshot store unavailable")
		return exitFatal
	}
	defer func() {
		if err := store.Close(); err != nil {
			zLogger.Error().Err(err).Msg("Error closing snapshot store")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch gCfg.Mode {
	case config.ModeOnetime:
		return runCollection(ctx, gCfg, store, zLogger, false)
	case config.ModeAutomated:
		return runCollection(ctx, gCfg, store, zLogger, true)
	case config.ModeReport:
		return runReport(ctx, gCfg, store, flags, zLogger)
	case config.ModeExport:
		return runExport(ctx, store, flags.OutputFile, zLogger)
	default:
		zLogger.Error().Str("mode", gCfg.Mode).Msg("Unknown mode")
		return exitFatal
	}
}

func runCollection(ctx context.Context, gCfg *config.GlobalConfig, store *datastore.SnapshotStore, zLogger zerolog.Logger, automated bool) int {
	engine, err := fetcher.NewEngine(gCfg.FetcherConfig, gCfg.HeadlessBrowserConfig, zLogger)
	if err != nil {
		zLogger.Error().Err(err).Msg("Failed to initialize fetch engine")
		return exitFatal
	}
	defer engine.Close()

	var notificationHelper orchestrator.Notifier
	if gCfg.NotificationConfig.Enabled() {
		discordNotifier, err := notifier.NewDiscordNotifier(zLogger, nil)
		if err != nil {
			zLogger.Error().Err(err).Msg("Failed to initialize Discord notifier")
			return exitFatal
		}
		notificationHelper = notifier.NewNotificationHelper(discordNotifier, gCfg.NotificationConfig, zLogger)
	}

	collector := orchestrator.NewCollectionOrchestrator(gCfg.TargetsConfig.Targets, engine, store, notificationHelper, zLogger)

	if automated {
		sched, err := scheduler.NewScheduler(gCfg.SchedulerConfig, collector, store, zLogger)
		if err != nil {
			zLogger.Error().Err(err).Msg("Failed to initialize scheduler")
			return exitFatal
		}
		if err := sched.Start(ctx); err != nil {
			zLogger.Error().Err(err).Msg("Scheduler exited with error")
			return exitFatal
		}
		return exitOK
	}

	fmt.Println("Collecting member counts...")
	summary, err := collector.Run(ctx, time.Time{})
	fmt.Print(reporter.CollectionReport(summary))

	switch {
	case errors.Is(err, orchestrator.ErrNoCountsCollected):
		return exitNoCounts
	case err != nil:
		zLogger.Error().Err(err).Msg("Collection failed")
		return exitFatal
	}

	fmt.Println("Data collection complete!")
	return exitOK
}

func runReport(ctx context.Context, gCfg *config.GlobalConfig, store *datastore.SnapshotStore, flags AppFlags, zLogger zerolog.Logger) int {
	preset, err := differ.ParseRangePreset(flags.Range)
	if err != nil {
		zLogger.Error().Err(err).Msg("Invalid report range")
		return exitFatal
	}

	in, err := reporter.BuildDayReport(ctx, store, gCfg.TargetsConfig.Regions, flags.FromDay, flags.ToDay, time.Local)
	if err != nil {
		zLogger.Error().Err(err).Msg("Failed to build report")
		return exitFatal
	}

	textReporter := reporter.NewTextReporter(zLogger)
	if err := textReporter.WriteReport(os.Stdout, in); err != nil {
		zLogger.Error().Err(err).Msg("Failed to write report")
		return exitFatal
	}

	totals, err := store.BatchTotals(ctx)
	if err != nil {
		zLogger.Error().Err(err).Msg("Failed to load batch totals")
		return exitFatal
	}
	if flags.FromDay != "" || flags.ToDay != "" {
		totals = differ.FilterBetween(totals, in.From.Timestamp, in.To.Timestamp)
	} else if totals, err = differ.FilterTotals(totals, preset, time.Now()); err != nil {
		zLogger.Error().Err(err).Msg("Failed to filter batch totals")
		return exitFatal
	}

	fmt.Println()
	textReporter.WriteGrowth(os.Stdout, totals, time.Local)
	return exitOK
}

func runExport(ctx context.Context, store *datastore.SnapshotStore, outputFile string, zLogger zerolog.Logger) int {
	if outputFile == "" {
		outputFile = defaultExportFile
	}

	f, err := os.Create(outputFile)
	if err != nil {
		zLogger.Error().Err(err).Str("path", outputFile).Msg("Failed to create export file")
		return exitFatal
	}

	rows, err := store.ExportParquet(ctx, f, "zstd")
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		zLogger.Error().Err(err).Str("path", outputFile).Msg("Export failed")
		return exitFatal
	}

	fmt.Printf("Exported %d snapshots to %s\n", rows, outputFile)
	return exitOK
}
