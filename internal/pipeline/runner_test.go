package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendlib/internal/config"
)

const eventHeader = "event_type,start_date,end_date,subscription_purchase_date,member_uris,member_names,item_uri,source_type,subscription_duration,subscription_duration_days,subscription_volumes,subscription_category"

func subscriptionRow(id int, day time.Time) string {
	return fmt.Sprintf(
		"Subscription,%s,,,https://example.org/members/m%d/,Member %d,,Logbook,,,,",
		day.Format("2006-01-02"), id, id)
}

func fixtureConfig(t *testing.T, rows []string, coverage string) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	outDir := t.TempDir()

	csv := strings.Join(append([]string{eventHeader}, rows...), "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "events.csv"), []byte(csv), 0644))

	coveragePath := filepath.Join(dataDir, "coverage.json")
	require.NoError(t, os.WriteFile(coveragePath, []byte(coverage), 0644))

	return &config.Config{
		Paths:    config.PathsConfig{DataDir: dataDir, OutputDir: outDir},
		Coverage: config.CoverageConfig{File: coveragePath},
		Forecast: config.ForecastConfig{
			Backend:     "linear",
			Granularity: "weekly",
			Training:    "per-gap",
			Growth:      "linear",
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	// One logbook subscription per week through Q1 1920; April is
	// uncovered.
	var rows []string
	day := time.Date(1920, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; day.Before(time.Date(1920, 4, 1, 0, 0, 0, 0, time.UTC)); i++ {
		rows = append(rows, subscriptionRow(i, day))
		day = day.AddDate(0, 0, 7)
	}
	// A shared account that must vanish from every aggregation.
	rows = append(rows, "Subscription,1920-02-03,,,https://example.org/members/x/;https://example.org/members/y/,X;Y,,Logbook,,,,")

	return fixtureConfig(t, rows,
		`[{"startDate":"1920-01-01","endDate":"1920-03-31"},{"startDate":"1920-05-01","endDate":"1920-06-30"}]`)
}

func TestRunnerEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	r := New(nil, cfg)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Gaps.Large, 1)
	gap := result.Gaps.Large[0]
	assert.Equal(t, time.Date(1920, 4, 1, 0, 0, 0, 0, time.UTC), gap.Start)
	assert.Equal(t, time.Date(1920, 4, 30, 0, 0, 0, 0, time.UTC), gap.End)

	// 13 weekly subscribers; the shared account contributes nobody.
	assert.Len(t, result.FirstSubscriptions, 13)
	for _, ev := range result.FirstSubscriptions {
		assert.NotContains(t, ev.MemberID, "x")
		assert.NotContains(t, ev.MemberID, "y")
	}

	assert.NotEmpty(t, result.WeeklySubscribers)
	assert.NotEmpty(t, result.WeeklyLogbook)
	assert.NotEmpty(t, result.YearlyFirstEvents)

	require.Len(t, result.Forecasts, 1)
	assert.NotEmpty(t, result.Forecasts[0].Full)
	assert.NotEmpty(t, result.Forecasts[0].NearGap)
}

func TestRunnerExportWritesTables(t *testing.T) {
	cfg := testConfig(t)
	r := New(nil, cfg)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.Export(context.Background(), result))

	for _, file := range []string{
		"gaps.csv",
		"skipped_gaps.csv",
		"weekly_subscribers.csv",
		"weekly_logbook_activity.csv",
		"yearly_first_events.csv",
		"forecast_near_gaps.csv",
		"forecast_full.csv",
		"report.xlsx",
	} {
		_, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, file))
		assert.NoError(t, err, file)
	}
}

func TestRunnerExcludesSubscriptionsByEventDate(t *testing.T) {
	// February through early March is uncovered: gap 1920-02-01 to
	// 1920-03-04. The 1920-01-26 subscription is a real observation
	// whose week-ending Sunday (1920-02-01) lands inside the gap; the
	// 1920-03-02 subscription falls inside the gap but would bucket to
	// the post-gap Sunday 1920-03-07. Filtering must go by event date,
	// not bucket label.
	rows := []string{
		subscriptionRow(1, time.Date(1920, 1, 5, 0, 0, 0, 0, time.UTC)),
		subscriptionRow(2, time.Date(1920, 1, 12, 0, 0, 0, 0, time.UTC)),
		subscriptionRow(3, time.Date(1920, 1, 19, 0, 0, 0, 0, time.UTC)),
		subscriptionRow(4, time.Date(1920, 1, 26, 0, 0, 0, 0, time.UTC)),
		subscriptionRow(5, time.Date(1920, 3, 2, 0, 0, 0, 0, time.UTC)),
	}
	cfg := fixtureConfig(t, rows,
		`[{"startDate":"1920-01-01","endDate":"1920-01-31"},{"startDate":"1920-03-05","endDate":"1920-04-30"}]`)

	r := New(nil, cfg)
	result, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Gaps.Large, 1)

	totals := make(map[string]int)
	for _, c := range result.WeeklySubscribers {
		totals[c.Date.Format("2006-01-02")] = c.Total
	}
	assert.Equal(t, 1, totals["1920-02-01"], "pre-gap subscription keeps its bucket")
	assert.NotContains(t, totals, "1920-03-07", "in-gap subscription must not leak into a post-gap bucket")
}

func TestRunnerKeepsSkippedGapEvents(t *testing.T) {
	// Ten uncovered days in February stay under the threshold: the gap
	// is reported as skipped and the 1920-02-05 subscription still
	// counts in the weekly series.
	rows := []string{
		subscriptionRow(1, time.Date(1920, 1, 5, 0, 0, 0, 0, time.UTC)),
		subscriptionRow(2, time.Date(1920, 2, 5, 0, 0, 0, 0, time.UTC)),
	}
	cfg := fixtureConfig(t, rows,
		`[{"startDate":"1920-01-01","endDate":"1920-01-31"},{"startDate":"1920-02-12","endDate":"1920-03-31"}]`)

	r := New(nil, cfg)
	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Gaps.Large)
	require.Len(t, result.Gaps.Skipped, 1)
	assert.Equal(t, 10, result.Gaps.Skipped[0].Days)

	totals := make(map[string]int)
	for _, c := range result.WeeklySubscribers {
		totals[c.Date.Format("2006-01-02")] = c.Total
	}
	assert.Equal(t, 1, totals["1920-02-08"], "skipped-gap subscription stays in the weekly series")
}

func TestRunnerFailsOnMissingData(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.DataDir = t.TempDir()

	r := New(nil, cfg)
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}
