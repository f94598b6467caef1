// Command processor runs the membership reconstruction pipeline once
// and writes the result tables to the output directory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"lendlib/internal/config"
	"lendlib/internal/infrastructure"
	"lendlib/internal/pipeline"
)

func main() {
	dataDir := flag.String("data", "", "data directory holding the source tables (overrides config)")
	outDir := flag.String("out", "", "output directory for result tables (overrides config)")
	coverageFile := flag.String("coverage", "", "local coverage list JSON file (overrides config)")
	backend := flag.String("backend", "", "forecast backend: sarima or linear (overrides config)")
	parallel := flag.Bool("parallel", false, "fit per-gap forecasts concurrently")
	skipExport := flag.Bool("no-export", false, "run the pipeline without writing output tables")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}
	if *coverageFile != "" {
		cfg.Coverage.File = *coverageFile
	}
	if *backend != "" {
		cfg.Forecast.Backend = *backend
	}
	if *parallel {
		cfg.Forecast.Parallel = true
	}

	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("failed to prepare directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx := context.Background()
	runner := pipeline.New(logger, cfg)

	result, err := runner.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "pipeline run failed", "error", err)
		os.Exit(1)
	}

	if !*skipExport {
		if err := runner.Export(ctx, result); err != nil {
			logger.ErrorContext(ctx, "export failed", "error", err)
			os.Exit(1)
		}
	}

	logger.InfoContext(ctx, "done",
		slog.Int("large_gaps", len(result.Gaps.Large)),
		slog.Int("skipped_gaps", len(result.Gaps.Skipped)),
		slog.Int("members", len(result.FirstEvents)),
		slog.Int("forecasts", len(result.Forecasts)))
}
