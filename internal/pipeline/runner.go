// Package pipeline runs the batch reconstruction: load the source
// tables and coverage list, normalize events, detect gaps, aggregate
// member series, forecast across gaps, and export the result tables.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"lendlib/internal/aggregate"
	"lendlib/internal/config"
	"lendlib/internal/dataset"
	"lendlib/internal/exporter"
	"lendlib/internal/forecast"
	"lendlib/internal/gaps"
	"lendlib/internal/member"
)

// Result holds every table one run produces. Each run is independent:
// nothing is retained between calls.
type Result struct {
	Gaps               gaps.DetectResult
	FirstEvents        []member.MemberEvent
	FirstSubscriptions []member.MemberEvent
	WeeklySubscribers  []aggregate.PeriodicCount
	WeeklyLogbook      []aggregate.PeriodicCount
	YearlyFirstEvents  []aggregate.PeriodicCount
	Forecasts          []forecast.GapForecast
}

// Runner executes the pipeline end to end. Stages run synchronously;
// each consumes the full prior output and the run is complete-or-fail.
type Runner struct {
	logger     *slog.Logger
	cfg        *config.Config
	loader     *dataset.Loader
	coverage   *dataset.CoverageSource
	normalizer *member.Normalizer
	detector   *gaps.Detector
	aggregator *aggregate.Aggregator
	forecaster *forecast.Forecaster
}

// New builds a runner from configuration.
func New(logger *slog.Logger, cfg *config.Config) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:     logger,
		cfg:        cfg,
		loader:     dataset.NewLoader(logger, cfg.Paths.DataDir),
		coverage:   dataset.NewCoverageSource(logger, cfg.Coverage),
		normalizer: member.NewNormalizer(logger),
		detector:   gaps.NewDetector(logger, gaps.MinGapDays),
		aggregator: aggregate.New(logger, member.DefaultTypeOrder(), time.Time{}),
		forecaster: forecast.New(logger, forecastOptions(cfg.Forecast)),
	}
}

// Run executes one full pipeline pass.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	records, err := r.loader.LoadEvents(ctx)
	if err != nil {
		return nil, err
	}

	coverage, err := r.coverage.Intervals(ctx)
	if err != nil {
		return nil, err
	}

	events := r.normalizer.Normalize(ctx, records)
	memberEvents := member.ToMemberEvents(events)

	detected := r.detector.Detect(ctx, coverage)

	firstEvents := r.aggregator.FirstEventPerMember(ctx, memberEvents)
	firstSubs := r.aggregator.FirstSubscriptionPerMember(ctx, memberEvents)

	// Events dated inside large gaps are partial records from other
	// sources, not real logbook observations; drop them by event date
	// before bucketing and fitting. Skipped gaps stay in.
	observedSubs := gaps.Exclude(firstSubs, detected.Large,
		func(ev member.MemberEvent) time.Time { return ev.Date })
	weekly := aggregate.CountWeekly(observedSubs)

	weeklyLogbook := aggregate.CountDatesWeekly(gaps.Exclude(
		logbookDates(member.LogbookEvents(events)), detected.Large,
		func(d time.Time) time.Time { return d }))

	forecasts, err := r.forecaster.ForecastAll(ctx, toPoints(weekly), detected.Large)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Gaps:               detected,
		FirstEvents:        firstEvents,
		FirstSubscriptions: firstSubs,
		WeeklySubscribers:  weekly,
		WeeklyLogbook:      weeklyLogbook,
		YearlyFirstEvents:  aggregate.CountYearly(firstEvents),
		Forecasts:          forecasts,
	}

	r.logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("events", len(events)),
		slog.Int("large_gaps", len(detected.Large)),
		slog.Int("forecasts", len(forecasts)),
		slog.Duration("elapsed", time.Since(started)))

	return result, nil
}

// Export writes the result tables as CSV files and a combined workbook
// under the configured output directory.
func (r *Runner) Export(ctx context.Context, result *Result) error {
	csvw := exporter.NewCSVWriter(r.logger, r.cfg.Paths.OutputDir)

	tables := []struct {
		file    string
		headers []string
		records [][]string
	}{
		{"gaps.csv", exporter.GapHeaders, exporter.GapRecords(result.Gaps.Large)},
		{"skipped_gaps.csv", exporter.GapHeaders, exporter.GapRecords(result.Gaps.Skipped)},
		{"weekly_subscribers.csv", exporter.CountHeaders, exporter.CountRecords(result.WeeklySubscribers)},
		{"weekly_logbook_activity.csv", exporter.CountHeaders, exporter.CountRecords(result.WeeklyLogbook)},
		{"yearly_first_events.csv", exporter.CountHeaders, exporter.CountRecords(result.YearlyFirstEvents)},
		{"forecast_near_gaps.csv", exporter.ForecastHeaders, exporter.ForecastRecords(forecast.ConcatNear(result.Forecasts))},
		{"forecast_full.csv", exporter.ForecastHeaders, exporter.ForecastRecords(forecast.ConcatFull(result.Forecasts))},
	}

	sheets := make([]exporter.Sheet, 0, len(tables))
	for _, tbl := range tables {
		if err := csvw.Write(ctx, tbl.file, tbl.headers, tbl.records); err != nil {
			return err
		}
		sheets = append(sheets, exporter.Sheet{
			Name:    sheetName(tbl.file),
			Headers: tbl.headers,
			Records: tbl.records,
		})
	}

	wb := exporter.NewWorkbookWriter(r.logger, r.cfg.Paths.OutputDir)
	return wb.Write(ctx, "report.xlsx", sheets)
}

func sheetName(file string) string {
	return file[:len(file)-len(".csv")]
}

// logbookDates collects the non-absent logbook dates.
func logbookDates(events []member.LogbookEvent) []time.Time {
	dates := make([]time.Time, 0, len(events))
	for _, ev := range events {
		if ev.LogbookDate.IsZero() {
			continue
		}
		dates = append(dates, ev.LogbookDate)
	}
	return dates
}

func toPoints(counts []aggregate.PeriodicCount) []forecast.Point {
	points := make([]forecast.Point, len(counts))
	for i, c := range counts {
		points[i] = forecast.Point{DS: c.Date, Y: float64(c.Total)}
	}
	return points
}

// forecastOptions maps the configuration record onto forecaster
// options.
func forecastOptions(cfg config.ForecastConfig) forecast.Options {
	opts := forecast.Options{Parallel: cfg.Parallel}

	switch cfg.Backend {
	case "linear":
		opts.Trainer = forecast.LinearTrainer{}
	default:
		opts.Trainer = forecast.SarimaTrainer{}
	}

	switch cfg.Granularity {
	case "monthly":
		opts.Frequency = forecast.FreqMonthly
	case "daily":
		opts.Frequency = forecast.FreqDaily
	default:
		opts.Frequency = forecast.FreqWeekly
	}

	if cfg.Training == "global" {
		opts.Training = forecast.TrainGlobal
	} else {
		opts.Training = forecast.TrainPerGap
	}

	if cfg.Growth == "logistic" {
		opts.Growth = forecast.GrowthLogistic
	} else {
		opts.Growth = forecast.GrowthLinear
	}

	return opts
}
